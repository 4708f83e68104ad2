// Package host implements the transaction execution host: the bridge between
// the VM interpreter and the advice provider, program fragment store and
// account procedure index.
package host

import (
	"fmt"

	"github.com/colorfulnotion/zktx/txerrors"
)

// TransactionEvent is an event the transaction kernel emits to the host.
type TransactionEvent uint32

const eventIDBase = 0x2_0000

const (
	AccountVaultAddAsset TransactionEvent = eventIDBase + iota
	AccountVaultRemoveAsset
	AccountStorageSetItem
	AccountStorageSetMapItem
	AccountIncrementNonce
	AccountPushProcedureIndex
	NoteCreated
)

var eventNames = [...]string{
	"AccountVaultAddAsset",
	"AccountVaultRemoveAsset",
	"AccountStorageSetItem",
	"AccountStorageSetMapItem",
	"AccountIncrementNonce",
	"AccountPushProcedureIndex",
	"NoteCreated",
}

// EventFromID decodes a raw event id.
func EventFromID(id uint32) (TransactionEvent, error) {
	if id < eventIDBase || id-eventIDBase >= uint32(len(eventNames)) {
		return 0, fmt.Errorf("%w: 0x%x", txerrors.ErrUnknownEvent, id)
	}
	return TransactionEvent(id), nil
}

func (e TransactionEvent) ID() uint32 {
	return uint32(e)
}

func (e TransactionEvent) String() string {
	if e < eventIDBase || uint32(e-eventIDBase) >= uint32(len(eventNames)) {
		return fmt.Sprintf("TransactionEvent(0x%x)", uint32(e))
	}
	return eventNames[e-eventIDBase]
}
