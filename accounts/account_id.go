package accounts

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"

	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/crypto"
	"github.com/colorfulnotion/zktx/txerrors"
	"golang.org/x/exp/slices"
)

const (
	// MinAccountOnes is the minimum Hamming weight of a valid account id.
	MinAccountOnes uint32 = 5

	// Minimum trailing zeros of the last seed digest element. The three
	// metadata bits of the id are matched by the same search, so the effective
	// work is higher than these numbers alone suggest.
	RegularAccountSeedDigestMinTrailingZeros uint32 = 23
	FaucetSeedDigestMinTrailingZeros         uint32 = 31

	// offChainBit set means only a commitment to the account state is kept on chain.
	offChainShift = 61
	offChainBit   = uint64(1) << offChainShift

	seedDigestInputLen = 16
	powElementIndex    = 3
)

// AccountId identifies an account and encodes its type and storage mode.
//
// Bit layout, most significant first:
//   - 63..62: account type (see AccountType)
//   - 61: 1 if only a commitment to the account state is stored on chain, 0 if
//     the full state is
//   - 60..0: free bits, constrained only by the Hamming weight and seed rules
//
// An AccountId always has at least MinAccountOnes bits set.
type AccountId struct {
	value common.Felt
}

// powRules are the admission thresholds checked at derivation time.
type powRules struct {
	minOnes      uint32
	regularZeros uint32
	faucetZeros  uint32
}

func defaultPowRules() powRules {
	return powRules{
		minOnes:      MinAccountOnes,
		regularZeros: RegularAccountSeedDigestMinTrailingZeros,
		faucetZeros:  FaucetSeedDigestMinTrailingZeros,
	}
}

// NewAccountId derives an id from a seed and the code and storage commitments.
// The id is element 0 of ComputeDigest(seed, code, storage), accepted only when
// the digest passes ValidateSeedDigest.
func NewAccountId(seed common.Word, codeCommitment, storageCommitment common.Digest) (AccountId, error) {
	return defaultPowRules().deriveAccountId(seed, codeCommitment, storageCommitment)
}

func (r powRules) deriveAccountId(seed common.Word, codeCommitment, storageCommitment common.Digest) (AccountId, error) {
	digest := ComputeDigest(seed, codeCommitment, storageCommitment)
	if err := r.validateSeedDigest(digest); err != nil {
		return AccountId{}, err
	}
	return AccountId{value: digest[0]}, nil
}

// ComputeDigest hashes seed, code commitment and storage commitment padded with
// four zero elements: 16 elements, two permutations of the sponge.
func ComputeDigest(seed common.Word, codeCommitment, storageCommitment common.Digest) common.Digest {
	elements := make([]common.Felt, 0, seedDigestInputLen)
	elements = append(elements, seed[:]...)
	elements = append(elements, codeCommitment[:]...)
	elements = append(elements, storageCommitment[:]...)
	for len(elements) < seedDigestInputLen {
		elements = append(elements, common.ZeroFelt)
	}
	return crypto.HashElements(elements)
}

// DigestPow is the number of trailing zero bits of digest element 3.
func DigestPow(digest common.Digest) uint32 {
	return uint32(bits.TrailingZeros64(digest[powElementIndex].Uint64()))
}

// ValidateSeedDigest checks the Hamming weight of digest element 0 and the
// proof-of-work required for the account category it encodes.
func ValidateSeedDigest(digest common.Digest) error {
	return defaultPowRules().validateSeedDigest(digest)
}

func (r powRules) validateSeedDigest(digest common.Digest) error {
	id := digest[0].Uint64()
	if ones := uint32(bits.OnesCount64(id)); ones < r.minOnes {
		return fmt.Errorf("%w: %d ones in 0x%016x", txerrors.ErrAccountIdTooFewOnes, ones, id)
	}

	required := r.regularZeros
	if id>>63 == 1 {
		required = r.faucetZeros
	}
	if pow := DigestPow(digest); pow < required {
		return fmt.Errorf("%w: %d < %d", txerrors.ErrSeedDigestTooFewTrailingZeros, pow, required)
	}
	return nil
}

// AccountIdFromFelt rebuilds an id from an existing value. Only the Hamming
// weight is checked; the seed proof-of-work was checked when the id was derived.
func AccountIdFromFelt(value common.Felt) (AccountId, error) {
	id := AccountId{value: value}
	if err := id.validate(); err != nil {
		return AccountId{}, err
	}
	return id, nil
}

func AccountIdFromUint64(value uint64) (AccountId, error) {
	f, err := common.FeltFromUint64(value)
	if err != nil {
		return AccountId{}, err
	}
	return AccountIdFromFelt(f)
}

// AccountIdFromBytes parses the 8 byte little-endian encoding.
func AccountIdFromBytes(b [8]byte) (AccountId, error) {
	f, err := common.FeltFromBytes(b)
	if err != nil {
		return AccountId{}, err
	}
	return AccountIdFromFelt(f)
}

// HexToAccountId parses the String form.
func HexToAccountId(s string) (AccountId, error) {
	raw := common.FromHex(strings.TrimSpace(s))
	if len(raw) == 0 || len(raw) > 8 {
		return AccountId{}, fmt.Errorf("%w: %q is not an 8 byte hex value", txerrors.ErrInvalidFieldElement, s)
	}
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return AccountIdFromUint64(v)
}

func (id AccountId) validate() error {
	if ones := uint32(bits.OnesCount64(id.Uint64())); ones < MinAccountOnes {
		return fmt.Errorf("%w: %d ones in %s", txerrors.ErrAccountIdTooFewOnes, ones, id)
	}
	return nil
}

func (id AccountId) AccountType() AccountType {
	return accountTypeFromValue(id.Uint64())
}

// IsFaucet reports whether the account can issue assets.
func (id AccountId) IsFaucet() bool {
	return id.AccountType().IsFaucet()
}

func (id AccountId) IsRegularAccount() bool {
	return id.AccountType().IsRegular()
}

// IsOnChain reports whether the full account state is stored on chain.
func (id AccountId) IsOnChain() bool {
	return isOnChainValue(id.Uint64())
}

func isOnChainValue(v uint64) bool {
	return v&offChainBit == 0
}

func (id AccountId) Felt() common.Felt {
	return id.value
}

func (id AccountId) Uint64() uint64 {
	return id.value.Uint64()
}

func (id AccountId) Bytes() [8]byte {
	return common.FeltToBytes(id.value)
}

func (id AccountId) String() string {
	return fmt.Sprintf("0x%016x", id.Uint64())
}

// Compare orders ids by their integer value.
func (id AccountId) Compare(other AccountId) int {
	a, b := id.Uint64(), other.Uint64()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (id AccountId) Less(other AccountId) bool {
	return id.Compare(other) < 0
}

// SortAccountIds sorts ids in place into canonical order.
func SortAccountIds(ids []AccountId) {
	slices.SortFunc(ids, func(a, b AccountId) int {
		return a.Compare(b)
	})
}

func (id AccountId) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *AccountId) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	parsed, err := HexToAccountId(hexStr)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// InconsistentAccountIdSeedError is returned when a seed does not reproduce
// the id stored in an account.
type InconsistentAccountIdSeedError struct {
	Expected AccountId
	Actual   AccountId
}

func (e *InconsistentAccountIdSeedError) Error() string {
	return fmt.Sprintf("%v expected %s, actual %s", txerrors.ErrInconsistentAccountIdSeed, e.Expected, e.Actual)
}

func (e *InconsistentAccountIdSeedError) Unwrap() error {
	return txerrors.ErrInconsistentAccountIdSeed
}

// ValidateAccountSeed re-derives the id of account from seed and its own code
// and storage commitments.
func ValidateAccountSeed(account *Account, seed common.Word) error {
	return defaultPowRules().validateAccountSeed(account, seed)
}

func (r powRules) validateAccountSeed(account *Account, seed common.Word) error {
	derived, err := r.deriveAccountId(seed, account.Code().Commitment(), account.Storage().Commitment())
	if err != nil {
		return err
	}
	if derived != account.Id() {
		return &InconsistentAccountIdSeedError{Expected: account.Id(), Actual: derived}
	}
	return nil
}
