package txerrors

import (
	"errors"
	"strings"
)

// Account (A) Errors
var (
	ErrAccountIdTooFewOnes           = errors.New("A1|AccountIdTooFewOnes: Account id has fewer than the minimum number of one bits.")
	ErrSeedDigestTooFewTrailingZeros = errors.New("A2|SeedDigestTooFewTrailingZeros: Seed digest proof-of-work is below the threshold for the account type.")
	ErrInvalidFieldElement           = errors.New("A3|InvalidFieldElement: Value does not encode a canonical field element.")
	ErrInconsistentAccountIdSeed     = errors.New("A4|InconsistentAccountIdSeed: Seed does not reproduce the account id.")
	ErrAccountCodeNoProcedures       = errors.New("A5|AccountCodeNoProcedures: Account code must export at least one procedure.")
	ErrAccountCodeTooManyProcedures  = errors.New("A6|AccountCodeTooManyProcedures: Account code exports more procedures than can be indexed.")
	ErrAccountTypeUnknown            = errors.New("A7|AccountTypeUnknown: Unrecognized account type name.")
	ErrSeedSearchExhausted           = errors.New("A8|SeedSearchExhausted: Seed search stopped before finding a valid seed.")
)

// Advice (V) Errors
var (
	ErrAdviceStackReadFailed = errors.New("V1|AdviceStackReadFailed: Advice stack does not hold enough elements.")
	ErrAdviceMapKeyNotFound  = errors.New("V2|AdviceMapKeyNotFound: Advice map has no value for the key.")
	ErrAdviceMapValueInvalid = errors.New("V3|AdviceMapValueInvalid: Advice map value is malformed.")
	ErrAdviceDivideByZero    = errors.New("V4|AdviceDivideByZero: Division by zero requested from the advice provider.")
)

// Host & Execution (E) Errors
var (
	ErrEventError              = errors.New("E1|EventError: Event handling failed.")
	ErrAdviceError             = errors.New("E2|AdviceError: Advice request failed.")
	ErrUnknownEvent            = errors.New("E3|UnknownEvent: Event id is not part of the transaction event set.")
	ErrEventNotRootContext     = errors.New("E4|EventNotRootContext: Event can only be emitted from the root context.")
	ErrUnknownCodeCommitment   = errors.New("E5|UnknownCodeCommitment: Code commitment is not registered with the procedure index map.")
	ErrUnknownAccountProcedure = errors.New("E6|UnknownAccountProcedure: Procedure root is not exported by the active account code.")
	ErrMissingAccountCode      = errors.New("E7|MissingAccountCode: Active account code commitment is not available in memory.")
	ErrMastForestInvalid       = errors.New("E8|MastForestInvalid: Program fragment is malformed.")
	ErrHostReleased            = errors.New("E9|HostReleased: Advice provider was already handed back from the host.")
)

// catalogue is searched in order; the generic E1/E2 kinds come last so the
// cause wrapped inside an execution error wins.
var catalogue = []error{
	ErrAccountIdTooFewOnes, ErrSeedDigestTooFewTrailingZeros, ErrInvalidFieldElement,
	ErrInconsistentAccountIdSeed, ErrAccountCodeNoProcedures, ErrAccountCodeTooManyProcedures,
	ErrAccountTypeUnknown, ErrSeedSearchExhausted,
	ErrAdviceStackReadFailed, ErrAdviceMapKeyNotFound, ErrAdviceMapValueInvalid, ErrAdviceDivideByZero,
	ErrUnknownEvent, ErrEventNotRootContext, ErrUnknownCodeCommitment, ErrUnknownAccountProcedure,
	ErrMissingAccountCode, ErrMastForestInvalid, ErrHostReleased,
	ErrEventError, ErrAdviceError,
}

// Sentinel returns the most specific catalogued error in err's chain, or nil.
func Sentinel(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range catalogue {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}

// split breaks a sentinel message "CODE|Name: description" into code and name.
func split(sentinel error) (code, name string) {
	code, rest, _ := strings.Cut(sentinel.Error(), "|")
	name, _, _ = strings.Cut(rest, ":")
	return strings.TrimSpace(code), strings.TrimSpace(name)
}

// GetErrorName returns the name of the sentinel err wraps, or the message
// itself for errors outside the catalogue.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	s := Sentinel(err)
	if s == nil {
		return err.Error()
	}
	_, name := split(s)
	return name
}

// GetErrorCode returns the code of the sentinel err wraps, or "".
func GetErrorCode(err error) string {
	s := Sentinel(err)
	if s == nil {
		return ""
	}
	code, _ := split(s)
	return code
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	s := Sentinel(err)
	if s == nil {
		return ""
	}
	code, name := split(s)
	return code + "_" + name
}
