package accounts

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/zktx/txerrors"
)

// AccountType is the two most significant bits of an account id. The four
// constants cover the whole two bit domain, so decoding never fails.
type AccountType uint8

const (
	RegularAccountUpdatableCode AccountType = 0b00
	RegularAccountImmutableCode AccountType = 0b01
	FungibleFaucet              AccountType = 0b10
	NonFungibleFaucet           AccountType = 0b11

	accountTagMask   = 0b11
	faucetTagBit     = 0b10
	accountTypeShift = 62
)

var accountTypeNames = [4]string{
	RegularAccountUpdatableCode: "regular-updatable",
	RegularAccountImmutableCode: "regular-immutable",
	FungibleFaucet:              "fungible-faucet",
	NonFungibleFaucet:           "non-fungible-faucet",
}

// accountTypeFromValue decodes bits 63..62 of v.
func accountTypeFromValue(v uint64) AccountType {
	return AccountType((v >> accountTypeShift) & accountTagMask)
}

func (t AccountType) tag() uint64 {
	return uint64(t) & accountTagMask
}

func (t AccountType) IsFaucet() bool {
	return t.tag()&faucetTagBit != 0
}

func (t AccountType) IsRegular() bool {
	return !t.IsFaucet()
}

func (t AccountType) String() string {
	return accountTypeNames[t.tag()]
}

// ParseAccountType accepts the names produced by String.
func ParseAccountType(s string) (AccountType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range accountTypeNames {
		if n == name {
			return AccountType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", txerrors.ErrAccountTypeUnknown, s)
}
