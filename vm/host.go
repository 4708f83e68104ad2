package vm

import (
	"errors"
	"fmt"

	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/txerrors"
)

type responseKind uint8

const (
	responseNone responseKind = iota
	responseElement
	responseWord
	responseDoubleWord
)

// HostResponse is what a host hands back to the processor after a host call.
type HostResponse struct {
	kind  responseKind
	words [2]common.Word
}

var ResponseNone = HostResponse{}

func ResponseElement(v common.Felt) HostResponse {
	r := HostResponse{kind: responseElement}
	r.words[0][0] = v
	return r
}

func ResponseWord(w common.Word) HostResponse {
	return HostResponse{kind: responseWord, words: [2]common.Word{w}}
}

func ResponseDoubleWord(dw [2]common.Word) HostResponse {
	return HostResponse{kind: responseDoubleWord, words: dw}
}

func (r HostResponse) IsNone() bool { return r.kind == responseNone }

func (r HostResponse) Element() (common.Felt, bool) {
	return r.words[0][0], r.kind == responseElement
}

func (r HostResponse) Word() (common.Word, bool) {
	return r.words[0], r.kind == responseWord
}

func (r HostResponse) DoubleWord() ([2]common.Word, bool) {
	return r.words, r.kind == responseDoubleWord
}

func (r HostResponse) String() string {
	switch r.kind {
	case responseElement:
		return fmt.Sprintf("Element(%d)", r.words[0][0].Uint64())
	case responseWord:
		return fmt.Sprintf("Word(%s)", r.words[0])
	case responseDoubleWord:
		return fmt.Sprintf("DoubleWord(%s, %s)", r.words[0], r.words[1])
	default:
		return "None"
	}
}

// Host is the processor's view of the outside world during execution.
type Host interface {
	GetAdvice(process ProcessState, extractor AdviceExtractor) (HostResponse, error)
	SetAdvice(process ProcessState, injector AdviceInjector) (HostResponse, error)
	// GetMastForest returns nil when no forest contains root.
	GetMastForest(root common.Digest) *MastForest
	OnEvent(process ProcessState, eventID uint32) (HostResponse, error)
}

// ExecutionErrorKind classifies host failures surfaced to the processor.
type ExecutionErrorKind uint8

const (
	KindEventError ExecutionErrorKind = iota + 1
	KindAdviceError
)

func (k ExecutionErrorKind) String() string {
	switch k {
	case KindEventError:
		return "EventError"
	case KindAdviceError:
		return "AdviceError"
	default:
		return "Unknown"
	}
}

func (k ExecutionErrorKind) sentinel() error {
	if k == KindAdviceError {
		return txerrors.ErrAdviceError
	}
	return txerrors.ErrEventError
}

// ExecutionError wraps a host failure with its kind so callers can match both
// the kind sentinel and the underlying cause with errors.Is.
type ExecutionError struct {
	Kind ExecutionErrorKind
	Err  error
}

func NewEventError(err error) *ExecutionError {
	return &ExecutionError{Kind: KindEventError, Err: err}
}

func NewEventErrorf(format string, args ...any) *ExecutionError {
	return NewEventError(fmt.Errorf(format, args...))
}

func NewAdviceError(err error) *ExecutionError {
	return &ExecutionError{Kind: KindAdviceError, Err: err}
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ExecutionError) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

// AsExecutionError returns the ExecutionError in err's chain, if any.
func AsExecutionError(err error) (*ExecutionError, bool) {
	var ee *ExecutionError
	ok := errors.As(err, &ee)
	return ee, ok
}
