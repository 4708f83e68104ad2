package common

import "fmt"

const (
	ColorReset = "\033[0m"
	ColorRed   = "\033[31m"
	ColorGreen = "\033[32m"
	ColorBlue  = "\033[1;34m"
)

// Colorize wraps s in an ANSI color escape.
func Colorize(color string, s string) string {
	return color + s + ColorReset
}

// Bool renders b green when true and red when false.
func Bool(b bool) string {
	if b {
		return Colorize(ColorGreen, fmt.Sprint(b))
	}
	return Colorize(ColorRed, fmt.Sprint(b))
}
