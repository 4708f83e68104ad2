package host

import (
	"github.com/colorfulnotion/zktx/accounts"
	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/log"
	"github.com/colorfulnotion/zktx/txerrors"
	"github.com/colorfulnotion/zktx/vm"
)

// TransactionHost serves one transaction execution. It owns its advice
// provider and is not safe for concurrent use; the mast store may be shared.
type TransactionHost struct {
	advice    *vm.MemAdviceProvider
	procIndex AccountProcedureIndexMap
	mastStore vm.MastForestStore
	account   accounts.AccountHeader
}

var _ vm.Host = (*TransactionHost)(nil)

// NewTransactionHost builds the advice provider from inputs and indexes the
// procedures of account's code, which must be present in the advice map.
func NewTransactionHost(account accounts.AccountHeader, inputs vm.AdviceInputs, mastStore vm.MastForestStore) (*TransactionHost, error) {
	advice := vm.NewMemAdviceProvider(inputs)
	procIndex, err := NewAccountProcedureIndexMap([]common.Digest{account.CodeCommitment}, advice)
	if err != nil {
		return nil, err
	}
	return &TransactionHost{
		advice:    advice,
		procIndex: procIndex,
		mastStore: mastStore,
		account:   account,
	}, nil
}

func (h *TransactionHost) GetAdvice(process vm.ProcessState, extractor vm.AdviceExtractor) (vm.HostResponse, error) {
	if h.advice == nil {
		return vm.ResponseNone, vm.NewAdviceError(txerrors.ErrHostReleased)
	}
	return h.advice.GetAdvice(process, extractor)
}

func (h *TransactionHost) SetAdvice(process vm.ProcessState, injector vm.AdviceInjector) (vm.HostResponse, error) {
	if h.advice == nil {
		return vm.ResponseNone, vm.NewAdviceError(txerrors.ErrHostReleased)
	}
	return h.advice.SetAdvice(process, injector)
}

func (h *TransactionHost) GetMastForest(root common.Digest) *vm.MastForest {
	if h.mastStore == nil {
		return nil
	}
	return h.mastStore.GetMastForest(root)
}

// OnEvent handles an event emitted by the transaction kernel. Events are only
// accepted from the root context. Only AccountPushProcedureIndex has an effect
// here: it pushes the index of the procedure on top of the operand stack onto
// the advice stack.
func (h *TransactionHost) OnEvent(process vm.ProcessState, eventID uint32) (vm.HostResponse, error) {
	event, err := EventFromID(eventID)
	if err != nil {
		return vm.ResponseNone, vm.NewEventError(err)
	}
	if !process.Ctx().IsRoot() {
		return vm.ResponseNone, vm.NewEventErrorf("%s event can only be emitted from the root context (ctx %d): %w",
			event, process.Ctx(), txerrors.ErrEventNotRootContext)
	}
	log.Trace(log.HostMonitoring, "transaction event", "event", event, "clk", process.Clk())

	switch event {
	case AccountPushProcedureIndex:
		if h.advice == nil {
			return vm.ResponseNone, vm.NewAdviceError(txerrors.ErrHostReleased)
		}
		if err := h.onPushAccountProcedureIndex(process); err != nil {
			return vm.ResponseNone, err
		}
	}
	return vm.ResponseNone, nil
}

func (h *TransactionHost) onPushAccountProcedureIndex(process vm.ProcessState) error {
	idx, err := h.procIndex.GetProcIndex(process)
	if err != nil {
		return vm.NewEventError(err)
	}
	if err := h.advice.PushStack(vm.AdviceSourceValue(common.NewFelt(uint64(idx)))); err != nil {
		return vm.NewAdviceError(err)
	}
	log.Debug(log.HostMonitoring, "pushed procedure index", "account", h.account.Id, "index", idx)
	return nil
}

func (h *TransactionHost) Account() accounts.AccountHeader {
	return h.account
}

func (h *TransactionHost) AdviceProvider() *vm.MemAdviceProvider {
	return h.advice
}

// IntoParts hands the advice provider back to the caller once execution is
// over. Advice requests made on the host afterwards fail with ErrHostReleased.
func (h *TransactionHost) IntoParts() *vm.MemAdviceProvider {
	advice := h.advice
	h.advice = nil
	return advice
}
