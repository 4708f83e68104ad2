package accounts

import (
	"fmt"

	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/crypto"
	"github.com/colorfulnotion/zktx/txerrors"
)

// MaxNumProcedures bounds account code so a procedure index fits in one byte.
const MaxNumProcedures = 256

// AccountCode is the set of procedure roots an account exports, in index order.
type AccountCode struct {
	procedures []common.Digest
	commitment common.Digest
}

func NewAccountCode(procedures []common.Digest) (*AccountCode, error) {
	if len(procedures) == 0 {
		return nil, txerrors.ErrAccountCodeNoProcedures
	}
	if len(procedures) > MaxNumProcedures {
		return nil, fmt.Errorf("%w: %d > %d", txerrors.ErrAccountCodeTooManyProcedures, len(procedures), MaxNumProcedures)
	}
	procs := make([]common.Digest, len(procedures))
	copy(procs, procedures)
	return &AccountCode{
		procedures: procs,
		commitment: crypto.HashElements(flattenDigests(procs)),
	}, nil
}

// AccountCodeFromAdviceMapValue parses the layout written by AdviceMapValue.
func AccountCodeFromAdviceMapValue(value []common.Felt) (*AccountCode, error) {
	if len(value) == 0 {
		return nil, fmt.Errorf("%w: empty account code entry", txerrors.ErrAdviceMapValueInvalid)
	}
	n := value[0].Uint64()
	if n > MaxNumProcedures {
		return nil, fmt.Errorf("%w: %d > %d", txerrors.ErrAccountCodeTooManyProcedures, n, MaxNumProcedures)
	}
	if uint64(len(value)-1) != n*common.WordSize {
		return nil, fmt.Errorf("%w: %d procedures need %d elements, got %d",
			txerrors.ErrAdviceMapValueInvalid, n, n*common.WordSize, len(value)-1)
	}
	procs := make([]common.Digest, n)
	for i := range procs {
		copy(procs[i][:], value[1+i*common.WordSize:1+(i+1)*common.WordSize])
	}
	return NewAccountCode(procs)
}

func (c *AccountCode) Commitment() common.Digest {
	return c.commitment
}

func (c *AccountCode) Procedures() []common.Digest {
	out := make([]common.Digest, len(c.procedures))
	copy(out, c.procedures)
	return out
}

func (c *AccountCode) NumProcedures() int {
	return len(c.procedures)
}

// ProcedureIndex returns the position of root among the exported procedures.
func (c *AccountCode) ProcedureIndex(root common.Digest) (uint8, bool) {
	for i, p := range c.procedures {
		if p == root {
			return uint8(i), true
		}
	}
	return 0, false
}

// AdviceMapValue is [n, root_0, .., root_{n-1}], stored in the advice map under
// the code commitment so the transaction host can index procedures.
func (c *AccountCode) AdviceMapValue() []common.Felt {
	out := make([]common.Felt, 0, 1+len(c.procedures)*common.WordSize)
	out = append(out, common.NewFelt(uint64(len(c.procedures))))
	return append(out, flattenDigests(c.procedures)...)
}

// AccountStorage is a flat list of storage slots.
type AccountStorage struct {
	slots      []common.Word
	commitment common.Digest
}

func NewAccountStorage(slots []common.Word) *AccountStorage {
	s := make([]common.Word, len(slots))
	copy(s, slots)
	elems := make([]common.Felt, 0, len(s)*common.WordSize)
	for _, w := range s {
		elems = append(elems, w[:]...)
	}
	return &AccountStorage{slots: s, commitment: crypto.HashElements(elems)}
}

func (s *AccountStorage) Commitment() common.Digest {
	return s.commitment
}

func (s *AccountStorage) NumSlots() int {
	return len(s.slots)
}

func (s *AccountStorage) GetItem(index int) (common.Word, bool) {
	if index < 0 || index >= len(s.slots) {
		return common.EmptyWord, false
	}
	return s.slots[index], true
}

// Account is the part of the account state this module needs: its id, nonce,
// code and storage.
type Account struct {
	id      AccountId
	nonce   common.Felt
	code    *AccountCode
	storage *AccountStorage
}

func NewAccount(id AccountId, nonce common.Felt, code *AccountCode, storage *AccountStorage) *Account {
	return &Account{id: id, nonce: nonce, code: code, storage: storage}
}

// NewAccountFromSeed derives the account id from seed before building the account.
func NewAccountFromSeed(seed common.Word, code *AccountCode, storage *AccountStorage) (*Account, error) {
	id, err := NewAccountId(seed, code.Commitment(), storage.Commitment())
	if err != nil {
		return nil, err
	}
	return NewAccount(id, common.ZeroFelt, code, storage), nil
}

func (a *Account) Id() AccountId { return a.id }
func (a *Account) Nonce() common.Felt { return a.nonce }
func (a *Account) Code() *AccountCode { return a.code }
func (a *Account) Storage() *AccountStorage { return a.storage }
func (a *Account) IsNew() bool { return a.nonce.IsZero() }
func (a *Account) AccountType() AccountType { return a.id.AccountType() }
func (a *Account) CodeCommitment() common.Digest { return a.code.Commitment() }

func (a *Account) Header() AccountHeader {
	return AccountHeader{
		Id:                a.id,
		Nonce:             a.nonce.Uint64(),
		CodeCommitment:    a.code.Commitment(),
		StorageCommitment: a.storage.Commitment(),
	}
}

// AccountHeader carries the account id, nonce and state commitments.
type AccountHeader struct {
	Id                AccountId     `json:"id"`
	Nonce             uint64        `json:"nonce"`
	CodeCommitment    common.Digest `json:"code_commitment"`
	StorageCommitment common.Digest `json:"storage_commitment"`
}

func flattenDigests(ds []common.Digest) []common.Felt {
	out := make([]common.Felt, 0, len(ds)*common.WordSize)
	for _, d := range ds {
		out = append(out, d[:]...)
	}
	return out
}
