package host

import (
	"fmt"

	"github.com/colorfulnotion/zktx/accounts"
	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/txerrors"
	"github.com/colorfulnotion/zktx/vm"
)

// CurrentAccountCodeCommitmentPtr is the kernel memory address, in the root
// context, holding the code commitment of the account being executed.
const CurrentAccountCodeCommitmentPtr uint32 = 403

// AccountProcedureIndexMap maps each known code commitment to the index of
// every procedure root that code exports.
type AccountProcedureIndexMap map[common.Digest]map[common.Digest]uint8

// AdviceMap is the read side of an advice provider.
type AdviceMap interface {
	GetMapValue(key common.Digest) ([]common.Felt, bool)
}

// NewAccountProcedureIndexMap reads the code of every commitment from the
// advice map. The empty digest stands for "no account code" and is skipped.
func NewAccountProcedureIndexMap(commitments []common.Digest, advice AdviceMap) (AccountProcedureIndexMap, error) {
	m := make(AccountProcedureIndexMap, len(commitments))
	for _, commitment := range commitments {
		if commitment == (common.Digest{}) {
			continue
		}
		value, ok := advice.GetMapValue(commitment)
		if !ok {
			return nil, fmt.Errorf("%w: account code %s", txerrors.ErrAdviceMapKeyNotFound, commitment.String_short())
		}
		code, err := accounts.AccountCodeFromAdviceMapValue(value)
		if err != nil {
			return nil, fmt.Errorf("account code %s: %w", commitment.String_short(), err)
		}
		if code.Commitment() != commitment {
			return nil, fmt.Errorf("%w: account code under %s hashes to %s",
				txerrors.ErrAdviceMapValueInvalid, commitment.String_short(), code.Commitment().String_short())
		}
		indices := make(map[common.Digest]uint8, code.NumProcedures())
		for i, root := range code.Procedures() {
			if _, dup := indices[root]; !dup {
				indices[root] = uint8(i)
			}
		}
		m[commitment] = indices
	}
	return m, nil
}

// GetProcIndex returns the index of the procedure whose root is on top of the
// operand stack, within the code of the account currently executing.
func (m AccountProcedureIndexMap) GetProcIndex(process vm.ProcessState) (uint8, error) {
	word, ok := process.GetMemValue(vm.RootContext(), CurrentAccountCodeCommitmentPtr)
	if !ok {
		return 0, txerrors.ErrMissingAccountCode
	}
	commitment := common.Digest(word)
	procs, ok := m[commitment]
	if !ok {
		return 0, fmt.Errorf("%w: %s", txerrors.ErrUnknownCodeCommitment, commitment.String_short())
	}
	root := common.Digest(process.GetStackWord(0))
	idx, ok := procs[root]
	if !ok {
		return 0, fmt.Errorf("%w: %s", txerrors.ErrUnknownAccountProcedure, root.String_short())
	}
	return idx, nil
}
