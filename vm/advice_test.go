package vm

import (
	"testing"

	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/crypto"
	"github.com/colorfulnotion/zktx/txerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func felts(vals ...uint64) []common.Felt {
	return common.FeltsFromUint64s(vals...)
}

func TestAdviceInputsStackOrder(t *testing.T) {
	inputs := NewAdviceInputs().WithStack(felts(1, 2)...).WithStack(felts(3)...)
	p := NewMemAdviceProvider(inputs)
	require.Equal(t, 3, p.StackLen())

	for _, want := range []uint64{1, 2, 3} {
		v, err := p.PopStack()
		require.NoError(t, err)
		assert.Equal(t, want, v.Uint64())
	}
	_, err := p.PopStack()
	assert.ErrorIs(t, err, txerrors.ErrAdviceStackReadFailed)
}

func TestAdviceInputsWithMapCopies(t *testing.T) {
	key := crypto.HashBytes([]byte("k"))
	base := NewAdviceInputs()
	withKey := base.WithMap(key, felts(7))
	_, inBase := base.Map[key]
	assert.False(t, inBase)
	assert.Len(t, withKey.Map, 1)

	var merged AdviceInputs
	merged.Extend(withKey)
	merged.Extend(NewAdviceInputs().WithMap(key, felts(8)).WithStack(felts(9)...))
	assert.Equal(t, felts(8), merged.Map[key])
	assert.Equal(t, felts(9), merged.Stack)
}

func TestPushStackSources(t *testing.T) {
	key := crypto.HashBytes([]byte("entry"))
	p := NewMemAdviceProvider(NewAdviceInputs().WithMap(key, felts(10, 11, 12)))

	require.NoError(t, p.PushStack(AdviceSourceMap(key.Word(), true)))
	require.Equal(t, 4, p.StackLen())
	for _, want := range []uint64{3, 10, 11, 12} {
		v, err := p.PopStack()
		require.NoError(t, err)
		assert.Equal(t, want, v.Uint64())
	}

	w := common.WordFromUint64s(1, 2, 3, 4)
	require.NoError(t, p.PushStack(AdviceSourceWord(w)))
	got, err := p.PopStackWord()
	require.NoError(t, err)
	assert.Equal(t, w, got)

	require.NoError(t, p.PushStack(AdviceSourceValue(common.NewFelt(5))))
	v, err := p.PopStack()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v.Uint64())

	missing := crypto.HashBytes([]byte("missing"))
	err = p.PushStack(AdviceSourceMap(missing.Word(), false))
	assert.ErrorIs(t, err, txerrors.ErrAdviceMapKeyNotFound)
}

func TestPopStackWordUnderflowLeavesStack(t *testing.T) {
	p := NewMemAdviceProvider(NewAdviceInputs().WithStack(felts(1, 2, 3)...))
	_, err := p.PopStackWord()
	assert.ErrorIs(t, err, txerrors.ErrAdviceStackReadFailed)
	assert.Equal(t, 3, p.StackLen())

	p = NewMemAdviceProvider(NewAdviceInputs().WithStack(felts(1, 2, 3, 4, 5, 6, 7)...))
	_, err = p.PopStackDWord()
	assert.ErrorIs(t, err, txerrors.ErrAdviceStackReadFailed)
	assert.Equal(t, 7, p.StackLen())
}

func TestGetAdviceExtractors(t *testing.T) {
	p := NewMemAdviceProvider(NewAdviceInputs().WithStack(felts(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13)...))
	process := NewMockProcess()

	resp, err := p.GetAdvice(process, PopStack)
	require.NoError(t, err)
	v, ok := resp.Element()
	require.True(t, ok)
	assert.Equal(t, uint64(1), v.Uint64())

	resp, err = p.GetAdvice(process, PopStackWord)
	require.NoError(t, err)
	w, ok := resp.Word()
	require.True(t, ok)
	assert.Equal(t, common.WordFromUint64s(2, 3, 4, 5), w)

	resp, err = p.GetAdvice(process, PopStackDWord)
	require.NoError(t, err)
	dw, ok := resp.DoubleWord()
	require.True(t, ok)
	assert.Equal(t, common.WordFromUint64s(6, 7, 8, 9), dw[0])
	assert.Equal(t, common.WordFromUint64s(10, 11, 12, 13), dw[1])

	_, err = p.GetAdvice(process, PopStackWord)
	assert.ErrorIs(t, err, txerrors.ErrAdviceError)
	assert.ErrorIs(t, err, txerrors.ErrAdviceStackReadFailed)
}

func TestSetAdviceMapValueToStack(t *testing.T) {
	key := crypto.HashBytes([]byte("proc"))
	p := NewMemAdviceProvider(NewAdviceInputs().WithMap(key, felts(4, 5)))
	process := NewMockProcess()
	process.PushWord(key.Word())
	process.PushWord(common.EmptyWord)

	resp, err := p.SetAdvice(process, MapValueToStack{IncludeLen: false, KeyOffset: 1})
	require.NoError(t, err)
	assert.True(t, resp.IsNone())
	assert.Equal(t, 2, p.StackLen())

	_, err = p.SetAdvice(process, MapValueToStack{KeyOffset: 0})
	assert.ErrorIs(t, err, txerrors.ErrAdviceError)
	assert.ErrorIs(t, err, txerrors.ErrAdviceMapKeyNotFound)
}

func TestSetAdviceU64Div(t *testing.T) {
	a := uint64(0x1234567890abcdef)
	b := uint64(0x10001)
	process := NewMockProcess()
	// pushed last is on top: [b_hi, b_lo, a_hi, a_lo]
	process.PushStack(
		common.NewFelt(a&0xffffffff), common.NewFelt(a>>32),
		common.NewFelt(b&0xffffffff), common.NewFelt(b>>32),
	)
	p := NewMemAdviceProvider(NewAdviceInputs())
	_, err := p.SetAdvice(process, U64Div{})
	require.NoError(t, err)

	q, r := a/b, a%b
	for _, want := range []uint64{q >> 32, q & 0xffffffff, r >> 32, r & 0xffffffff} {
		v, err := p.PopStack()
		require.NoError(t, err)
		assert.Equal(t, want, v.Uint64())
	}

	zero := NewMockProcess()
	zero.PushStack(common.NewFelt(1), common.NewFelt(0), common.NewFelt(0), common.NewFelt(0))
	_, err = p.SetAdvice(zero, U64Div{})
	assert.ErrorIs(t, err, txerrors.ErrAdviceDivideByZero)
}

func TestSetAdviceHdwordToMap(t *testing.T) {
	a := common.WordFromUint64s(1, 2, 3, 4)
	b := common.WordFromUint64s(5, 6, 7, 8)
	process := NewMockProcess()
	process.PushWord(a)
	process.PushWord(b)

	domain := common.NewFelt(3)
	p := NewMemAdviceProvider(NewAdviceInputs())
	_, err := p.SetAdvice(process, HdwordToMap{Domain: domain})
	require.NoError(t, err)

	key := crypto.MergeInDomain(common.Digest(a), common.Digest(b), domain)
	value, ok := p.GetMapValue(key)
	require.True(t, ok)
	assert.Equal(t, felts(1, 2, 3, 4, 5, 6, 7, 8), value)

	_, ok = p.GetMapValue(crypto.Merge(common.Digest(a), common.Digest(b)))
	assert.False(t, ok)
}

func TestSetAdviceNilInjector(t *testing.T) {
	p := NewMemAdviceProvider(NewAdviceInputs().WithStack(felts(1)...))
	resp, err := p.SetAdvice(NewMockProcess(), nil)
	assert.True(t, resp.IsNone())
	assert.ErrorIs(t, err, txerrors.ErrAdviceError)
	assert.Equal(t, 1, p.StackLen())
}
