package host

import (
	"testing"

	"github.com/colorfulnotion/zktx/accounts"
	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/crypto"
	"github.com/colorfulnotion/zktx/txerrors"
	"github.com/colorfulnotion/zktx/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	code    *accounts.AccountCode
	header  accounts.AccountHeader
	inputs  vm.AdviceInputs
	store   *TransactionMastStore
	forest  *vm.MastForest
	process *vm.MockProcess
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	forest, err := vm.NewMastForest(
		vm.Procedure{Name: "wallet::receive_asset", Body: []byte{0x01}},
		vm.Procedure{Name: "wallet::send_asset", Body: []byte{0x02}},
		vm.Procedure{Name: "auth::basic", Body: []byte{0x03}},
	)
	require.NoError(t, err)
	code, err := accounts.NewAccountCode(forest.Roots())
	require.NoError(t, err)

	id, err := accounts.AccountIdFromUint64(0x00000000000000ff)
	require.NoError(t, err)
	account := accounts.NewAccount(id, common.NewFelt(1), code, accounts.NewAccountStorage(nil))

	store := NewTransactionMastStore()
	require.NoError(t, store.Insert(forest))

	process := vm.NewMockProcess()
	process.SetMemValue(vm.RootContext(), CurrentAccountCodeCommitmentPtr, code.Commitment().Word())

	return &fixture{
		code:    code,
		header:  account.Header(),
		inputs:  vm.NewAdviceInputs().WithMap(code.Commitment(), code.AdviceMapValue()),
		store:   store,
		forest:  forest,
		process: process,
	}
}

func (f *fixture) host(t *testing.T) *TransactionHost {
	t.Helper()
	h, err := NewTransactionHost(f.header, f.inputs, f.store)
	require.NoError(t, err)
	return h
}

func TestEventFromID(t *testing.T) {
	ev, err := EventFromID(131077)
	require.NoError(t, err)
	assert.Equal(t, AccountPushProcedureIndex, ev)
	assert.Equal(t, "AccountPushProcedureIndex", ev.String())
	assert.Equal(t, uint32(0x20005), ev.ID())

	ev, err = EventFromID(0x20000)
	require.NoError(t, err)
	assert.Equal(t, AccountVaultAddAsset, ev)
	ev, err = EventFromID(0x20006)
	require.NoError(t, err)
	assert.Equal(t, NoteCreated, ev)

	for _, id := range []uint32{0, 0x1ffff, 0x20007, 0xffffffff} {
		_, err := EventFromID(id)
		assert.ErrorIs(t, err, txerrors.ErrUnknownEvent, "id %x", id)
	}
	assert.Equal(t, "TransactionEvent(0x7)", TransactionEvent(7).String())
}

func TestOnEventPushesProcedureIndex(t *testing.T) {
	f := newFixture(t)
	for i, root := range f.code.Procedures() {
		h := f.host(t)
		f.process.Stack = nil
		f.process.PushWord(root.Word())

		resp, err := h.OnEvent(f.process, AccountPushProcedureIndex.ID())
		require.NoError(t, err)
		assert.True(t, resp.IsNone())
		require.Equal(t, 1, h.AdviceProvider().StackLen())

		v, err := h.AdviceProvider().PopStack()
		require.NoError(t, err)
		assert.Equal(t, uint64(i), v.Uint64())
	}
}

func TestOnEventUnknownID(t *testing.T) {
	f := newFixture(t)
	h := f.host(t)
	_, err := h.OnEvent(f.process, 0x20007)
	assert.ErrorIs(t, err, txerrors.ErrEventError)
	assert.ErrorIs(t, err, txerrors.ErrUnknownEvent)
	assert.Equal(t, 0, h.AdviceProvider().StackLen())
	assert.Equal(t, "E3", txerrors.GetErrorCode(err))
	assert.Equal(t, "E3_UnknownEvent", txerrors.GetErrorCodeWithName(err))
}

func TestOnEventRequiresRootContext(t *testing.T) {
	f := newFixture(t)
	h := f.host(t)
	f.process.PushWord(f.code.Procedures()[0].Word())
	f.process.Context = vm.ContextID(8)

	for id := uint32(0x20000); id <= 0x20006; id++ {
		_, err := h.OnEvent(f.process, id)
		require.Error(t, err)
		assert.ErrorIs(t, err, txerrors.ErrEventError)
		assert.ErrorIs(t, err, txerrors.ErrEventNotRootContext)
		assert.Contains(t, err.Error(), "event can only be emitted from the root context")
	}
	assert.Equal(t, 0, h.AdviceProvider().StackLen())
}

func TestOnEventOtherEventsAreNoops(t *testing.T) {
	f := newFixture(t)
	h := f.host(t)
	for _, ev := range []TransactionEvent{
		AccountVaultAddAsset, AccountVaultRemoveAsset, AccountStorageSetItem,
		AccountStorageSetMapItem, AccountIncrementNonce, NoteCreated,
	} {
		resp, err := h.OnEvent(f.process, ev.ID())
		require.NoError(t, err, ev.String())
		assert.True(t, resp.IsNone())
	}
	assert.Equal(t, 0, h.AdviceProvider().StackLen())
}

func TestOnEventUnknownProcedure(t *testing.T) {
	f := newFixture(t)
	h := f.host(t)
	f.process.PushWord(crypto.HashBytes([]byte("not exported")).Word())

	_, err := h.OnEvent(f.process, AccountPushProcedureIndex.ID())
	assert.ErrorIs(t, err, txerrors.ErrEventError)
	assert.ErrorIs(t, err, txerrors.ErrUnknownAccountProcedure)
	assert.Equal(t, 0, h.AdviceProvider().StackLen())
}

func TestOnEventUnknownCommitment(t *testing.T) {
	f := newFixture(t)
	h := f.host(t)
	f.process.PushWord(f.code.Procedures()[0].Word())
	f.process.SetMemValue(vm.RootContext(), CurrentAccountCodeCommitmentPtr, common.WordFromUint64s(1, 2, 3, 4))

	_, err := h.OnEvent(f.process, AccountPushProcedureIndex.ID())
	assert.ErrorIs(t, err, txerrors.ErrEventError)
	assert.ErrorIs(t, err, txerrors.ErrUnknownCodeCommitment)

	f.process.Memory = map[vm.ContextID]map[uint32]common.Word{}
	_, err = h.OnEvent(f.process, AccountPushProcedureIndex.ID())
	assert.ErrorIs(t, err, txerrors.ErrMissingAccountCode)
}

func TestNewTransactionHostRequiresAccountCode(t *testing.T) {
	f := newFixture(t)
	_, err := NewTransactionHost(f.header, vm.NewAdviceInputs(), f.store)
	assert.ErrorIs(t, err, txerrors.ErrAdviceMapKeyNotFound)

	// an entry whose roots do not hash to the key
	other, err := accounts.NewAccountCode([]common.Digest{crypto.HashBytes([]byte("x"))})
	require.NoError(t, err)
	bad := vm.NewAdviceInputs().WithMap(f.code.Commitment(), other.AdviceMapValue())
	_, err = NewTransactionHost(f.header, bad, f.store)
	assert.ErrorIs(t, err, txerrors.ErrAdviceMapValueInvalid)

	// no account code at all
	empty := f.header
	empty.CodeCommitment = common.Digest{}
	h, err := NewTransactionHost(empty, vm.NewAdviceInputs(), f.store)
	require.NoError(t, err)
	f.process.PushWord(f.code.Procedures()[0].Word())
	_, err = h.OnEvent(f.process, AccountPushProcedureIndex.ID())
	assert.ErrorIs(t, err, txerrors.ErrUnknownCodeCommitment)
}

func TestHostAdviceAndMastPassThrough(t *testing.T) {
	f := newFixture(t)
	f.inputs = f.inputs.WithStack(common.FeltsFromUint64s(7, 8, 9, 10)...)
	h := f.host(t)

	resp, err := h.GetAdvice(f.process, vm.PopStackWord)
	require.NoError(t, err)
	w, ok := resp.Word()
	require.True(t, ok)
	assert.Equal(t, common.WordFromUint64s(7, 8, 9, 10), w)

	f.process.PushWord(f.code.Commitment().Word())
	_, err = h.SetAdvice(f.process, vm.MapValueToStack{IncludeLen: true})
	require.NoError(t, err)
	assert.Equal(t, 1+len(f.code.AdviceMapValue()), h.AdviceProvider().StackLen())

	root := f.forest.Roots()[1]
	assert.Same(t, f.forest, h.GetMastForest(root))
	assert.Nil(t, h.GetMastForest(common.Digest{}))

	assert.Equal(t, f.header, h.Account())
	provider := h.IntoParts()
	assert.NotNil(t, provider)
	assert.Nil(t, h.AdviceProvider())
}

func TestHostAfterIntoParts(t *testing.T) {
	f := newFixture(t)
	f.inputs = f.inputs.WithStack(common.FeltsFromUint64s(7)...)
	h := f.host(t)
	provider := h.IntoParts()
	require.Equal(t, 1, provider.StackLen())

	_, err := h.GetAdvice(f.process, vm.PopStack)
	assert.ErrorIs(t, err, txerrors.ErrAdviceError)
	assert.ErrorIs(t, err, txerrors.ErrHostReleased)

	_, err = h.SetAdvice(f.process, vm.U64Div{})
	assert.ErrorIs(t, err, txerrors.ErrHostReleased)

	f.process.PushWord(f.code.Procedures()[0].Word())
	_, err = h.OnEvent(f.process, AccountPushProcedureIndex.ID())
	assert.ErrorIs(t, err, txerrors.ErrHostReleased)
	assert.Equal(t, "E9", txerrors.GetErrorCode(err))

	// other events do not touch the advice provider
	_, err = h.OnEvent(f.process, NoteCreated.ID())
	assert.NoError(t, err)
	assert.Equal(t, 1, provider.StackLen())
}
