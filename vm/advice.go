package vm

import (
	"fmt"

	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/txerrors"
)

// AdviceInputs seed an advice provider. Stack[0] is popped first.
type AdviceInputs struct {
	Stack []common.Felt
	Map   map[common.Digest][]common.Felt
}

func NewAdviceInputs() AdviceInputs {
	return AdviceInputs{Map: make(map[common.Digest][]common.Felt)}
}

// WithStack appends vals below the values already queued.
func (a AdviceInputs) WithStack(vals ...common.Felt) AdviceInputs {
	stack := make([]common.Felt, 0, len(a.Stack)+len(vals))
	stack = append(stack, a.Stack...)
	a.Stack = append(stack, vals...)
	return a
}

// WithMap returns a copy of a with key set to value.
func (a AdviceInputs) WithMap(key common.Digest, value []common.Felt) AdviceInputs {
	m := make(map[common.Digest][]common.Felt, len(a.Map)+1)
	for k, v := range a.Map {
		m[k] = v
	}
	m[key] = append([]common.Felt(nil), value...)
	a.Map = m
	return a
}

// Extend merges other into a; other wins on duplicate map keys.
func (a *AdviceInputs) Extend(other AdviceInputs) {
	a.Stack = append(a.Stack, other.Stack...)
	if a.Map == nil {
		a.Map = make(map[common.Digest][]common.Felt, len(other.Map))
	}
	for k, v := range other.Map {
		a.Map[k] = v
	}
}

type adviceSourceKind uint8

const (
	sourceValue adviceSourceKind = iota
	sourceWord
	sourceMap
)

// AdviceSource describes what PushStack places on the advice stack.
type AdviceSource struct {
	kind       adviceSourceKind
	value      common.Felt
	word       common.Word
	includeLen bool
}

// AdviceSourceValue pushes a single element.
func AdviceSourceValue(v common.Felt) AdviceSource {
	return AdviceSource{kind: sourceValue, value: v}
}

// AdviceSourceWord pushes w so that w[0] is popped first.
func AdviceSourceWord(w common.Word) AdviceSource {
	return AdviceSource{kind: sourceWord, word: w}
}

// AdviceSourceMap pushes the advice map value under key so that its first
// element is popped first, preceded by its length when includeLen is set.
func AdviceSourceMap(key common.Word, includeLen bool) AdviceSource {
	return AdviceSource{kind: sourceMap, word: key, includeLen: includeLen}
}

// MemAdviceProvider keeps the advice stack and map in memory. It is owned by a
// single host and is not safe for concurrent use.
type MemAdviceProvider struct {
	// top of the stack is the last element
	stack []common.Felt
	store map[common.Digest][]common.Felt
}

func NewMemAdviceProvider(inputs AdviceInputs) *MemAdviceProvider {
	p := &MemAdviceProvider{
		stack: make([]common.Felt, len(inputs.Stack)),
		store: make(map[common.Digest][]common.Felt, len(inputs.Map)),
	}
	for i, v := range inputs.Stack {
		p.stack[len(inputs.Stack)-1-i] = v
	}
	for k, v := range inputs.Map {
		p.store[k] = append([]common.Felt(nil), v...)
	}
	return p
}

func (p *MemAdviceProvider) StackLen() int {
	return len(p.stack)
}

func (p *MemAdviceProvider) PushStack(src AdviceSource) error {
	switch src.kind {
	case sourceValue:
		p.stack = append(p.stack, src.value)
	case sourceWord:
		p.pushReversed(src.word[:])
	case sourceMap:
		key := common.Digest(src.word)
		values, ok := p.store[key]
		if !ok {
			return fmt.Errorf("%w: %s", txerrors.ErrAdviceMapKeyNotFound, key)
		}
		p.pushReversed(values)
		if src.includeLen {
			p.stack = append(p.stack, common.NewFelt(uint64(len(values))))
		}
	}
	return nil
}

func (p *MemAdviceProvider) pushReversed(vals []common.Felt) {
	for i := len(vals) - 1; i >= 0; i-- {
		p.stack = append(p.stack, vals[i])
	}
}

func (p *MemAdviceProvider) PopStack() (common.Felt, error) {
	n := len(p.stack)
	if n == 0 {
		return common.ZeroFelt, fmt.Errorf("%w: need 1, have 0", txerrors.ErrAdviceStackReadFailed)
	}
	v := p.stack[n-1]
	p.stack = p.stack[:n-1]
	return v, nil
}

// PopStackWord pops four elements; the first popped becomes word element 0.
func (p *MemAdviceProvider) PopStackWord() (common.Word, error) {
	var w common.Word
	if len(p.stack) < common.WordSize {
		return w, fmt.Errorf("%w: need %d, have %d", txerrors.ErrAdviceStackReadFailed, common.WordSize, len(p.stack))
	}
	for i := range w {
		w[i], _ = p.PopStack()
	}
	return w, nil
}

// PopStackDWord pops two words; the first popped word comes first.
func (p *MemAdviceProvider) PopStackDWord() ([2]common.Word, error) {
	var dw [2]common.Word
	if len(p.stack) < 2*common.WordSize {
		return dw, fmt.Errorf("%w: need %d, have %d", txerrors.ErrAdviceStackReadFailed, 2*common.WordSize, len(p.stack))
	}
	dw[0], _ = p.PopStackWord()
	dw[1], _ = p.PopStackWord()
	return dw, nil
}

func (p *MemAdviceProvider) GetMapValue(key common.Digest) ([]common.Felt, bool) {
	v, ok := p.store[key]
	return v, ok
}

func (p *MemAdviceProvider) InsertIntoMap(key common.Digest, values []common.Felt) {
	p.store[key] = append([]common.Felt(nil), values...)
}
