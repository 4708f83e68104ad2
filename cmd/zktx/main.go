// zktx is the command line front end for account id grinding and inspection
// and for managing the program fragment store used by the transaction host.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/colorfulnotion/zktx/log"
	"github.com/colorfulnotion/zktx/txerrors"
	"github.com/colorfulnotion/zktx/vm"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(exitCode(err))
	}
}

// errorLine appends the error's catalogue code, e.g. [E6_UnknownAccountProcedure].
func errorLine(err error) string {
	code := txerrors.GetErrorCodeWithName(err)
	if code == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s [%s]", err, code)
}

// exitCode is 2 when the transaction host failed and 1 for anything else.
func exitCode(err error) int {
	if _, ok := vm.AsExecutionError(err); ok {
		return 2
	}
	return 1
}

func newRootCmd() *cobra.Command {
	cfg := DefaultConfig()
	var (
		configPath string
		flags      Config
	)

	rootCmd := &cobra.Command{
		Use:           "zktx",
		Short:         "Account id and transaction host tooling",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("log-level") {
				loaded.LogLevel = flags.LogLevel
			}
			if f.Changed("log-json") {
				loaded.LogJson = flags.LogJson
			}
			if f.Changed("debug") {
				loaded.Debug = flags.Debug
			}
			if f.Changed("datadir") {
				loaded.DataDir = flags.DataDir
			}
			if f.Changed("workers") {
				loaded.Workers = flags.Workers
			}
			*cfg = *loaded

			if err := log.InitLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogJson); err != nil {
				return err
			}
			log.EnableModules(cfg.Debug)
			log.Debug(log.CLIMonitoring, "config loaded", "command", cmd.Name(), "config", cfg.String())
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "JSON config file; explicit flags override its values")
	pf.StringVar(&flags.LogLevel, "log-level", cfg.LogLevel, "Log level (trace, debug, info, warn, error, crit)")
	pf.BoolVar(&flags.LogJson, "log-json", false, "Log in JSON format")
	pf.StringVar(&flags.Debug, "debug", "", "Debug modules to enable (comma separated, or \"all\")")
	pf.StringVarP(&flags.DataDir, "datadir", "d", cfg.DataDir, "Data directory for the fragment store")
	pf.IntVar(&flags.Workers, "workers", 0, "Seed search workers (default: number of CPUs)")

	rootCmd.AddCommand(
		newGrindCmd(cfg),
		newInspectCmd(),
		newVerifyCmd(),
		newProcIndexCmd(),
		newFragmentCmd(cfg),
	)
	return rootCmd
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
