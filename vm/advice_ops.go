package vm

import (
	"errors"
	"fmt"

	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/crypto"
	"github.com/colorfulnotion/zktx/txerrors"
)

// AdviceExtractor selects how many elements GetAdvice pops off the advice stack.
type AdviceExtractor uint8

const (
	PopStack AdviceExtractor = iota
	PopStackWord
	PopStackDWord
)

func (e AdviceExtractor) String() string {
	switch e {
	case PopStack:
		return "PopStack"
	case PopStackWord:
		return "PopStackWord"
	case PopStackDWord:
		return "PopStackDWord"
	default:
		return fmt.Sprintf("AdviceExtractor(%d)", uint8(e))
	}
}

// AdviceInjector is one of MapValueToStack, U64Div or HdwordToMap.
type AdviceInjector interface {
	inject(p *MemAdviceProvider, process ProcessState) error
	String() string
}

// MapValueToStack pushes the advice map entry keyed by the operand stack word
// at KeyOffset.
type MapValueToStack struct {
	IncludeLen bool
	KeyOffset  int
}

func (i MapValueToStack) inject(p *MemAdviceProvider, process ProcessState) error {
	key := process.GetStackWord(i.KeyOffset)
	return p.PushStack(AdviceSourceMap(key, i.IncludeLen))
}

func (i MapValueToStack) String() string {
	return fmt.Sprintf("MapValueToStack(includeLen=%v, keyOffset=%d)", i.IncludeLen, i.KeyOffset)
}

// U64Div divides the u64 a by b, both given as 32-bit limbs on the operand
// stack as [b_hi, b_lo, a_hi, a_lo] from the top. The quotient and remainder
// limbs are pushed so that q_hi is popped first.
type U64Div struct{}

func (U64Div) inject(p *MemAdviceProvider, process ProcessState) error {
	limb := func(pos int) (uint64, error) {
		v := process.GetStackItem(pos)
		u := v.Uint64()
		if u > 0xffffffff {
			return 0, fmt.Errorf("%w: stack item %d is not a u32", txerrors.ErrAdviceStackReadFailed, pos)
		}
		return u, nil
	}
	var limbs [4]uint64
	for pos := range limbs {
		v, err := limb(pos)
		if err != nil {
			return err
		}
		limbs[pos] = v
	}
	divisor := limbs[0]<<32 | limbs[1]
	dividend := limbs[2]<<32 | limbs[3]
	if divisor == 0 {
		return txerrors.ErrAdviceDivideByZero
	}
	q := dividend / divisor
	r := dividend % divisor

	for _, v := range []uint64{r & 0xffffffff, r >> 32, q & 0xffffffff, q >> 32} {
		_ = p.PushStack(AdviceSourceValue(common.NewFelt(v)))
	}
	return nil
}

func (U64Div) String() string { return "U64Div" }

// HdwordToMap hashes the top two operand stack words in Domain and inserts
// them into the advice map under the result. Word 1 is hashed first.
type HdwordToMap struct {
	Domain common.Felt
}

func (i HdwordToMap) inject(p *MemAdviceProvider, process ProcessState) error {
	b := process.GetStackWord(0)
	a := process.GetStackWord(1)
	key := crypto.MergeInDomain(common.Digest(a), common.Digest(b), i.Domain)
	value := make([]common.Felt, 0, 2*common.WordSize)
	value = append(value, a[:]...)
	value = append(value, b[:]...)
	p.InsertIntoMap(key, value)
	return nil
}

func (i HdwordToMap) String() string {
	return fmt.Sprintf("HdwordToMap(domain=%d)", i.Domain.Uint64())
}

// GetAdvice pops what extractor asks for and returns it to the processor.
func (p *MemAdviceProvider) GetAdvice(_ ProcessState, extractor AdviceExtractor) (HostResponse, error) {
	switch extractor {
	case PopStack:
		v, err := p.PopStack()
		if err != nil {
			return ResponseNone, NewAdviceError(err)
		}
		return ResponseElement(v), nil
	case PopStackWord:
		w, err := p.PopStackWord()
		if err != nil {
			return ResponseNone, NewAdviceError(err)
		}
		return ResponseWord(w), nil
	case PopStackDWord:
		dw, err := p.PopStackDWord()
		if err != nil {
			return ResponseNone, NewAdviceError(err)
		}
		return ResponseDoubleWord(dw), nil
	default:
		return ResponseNone, NewAdviceError(fmt.Errorf("unknown extractor %s", extractor))
	}
}

// SetAdvice applies injector against the current process state.
func (p *MemAdviceProvider) SetAdvice(process ProcessState, injector AdviceInjector) (HostResponse, error) {
	if injector == nil {
		return ResponseNone, NewAdviceError(errors.New("nil advice injector"))
	}
	if err := injector.inject(p, process); err != nil {
		return ResponseNone, NewAdviceError(err)
	}
	return ResponseNone, nil
}
