// Package crypto implements the sequential sponge hash used for account seed
// digests, code and storage commitments and program fragment digests.
//
// The sponge runs the Poseidon2 permutation over the Goldilocks field with a
// state of 12 elements: elements 0..3 are the capacity, 4..11 the rate. The
// digest is read from the first rate word.
package crypto

import (
	"sync"

	"github.com/colorfulnotion/zktx/common"
	"github.com/consensys/gnark-crypto/field/goldilocks/poseidon2"
)

const (
	StateWidth    = 12
	RateWidth     = 8
	CapacityWidth = StateWidth - RateWidth

	fullRounds    = 6
	partialRounds = 17

	digestStart = CapacityWidth
)

var permutation = sync.OnceValue(func() *poseidon2.Permutation {
	return poseidon2.NewPermutation(StateWidth, fullRounds, partialRounds)
})

func permute(state *[StateWidth]common.Felt) {
	// only fails on a width mismatch, which the array type rules out
	_ = permutation().Permutation(state[:])
}

func squeeze(state *[StateWidth]common.Felt) common.Digest {
	var d common.Digest
	copy(d[:], state[digestStart:digestStart+common.WordSize])
	return d
}

// HashElements absorbs elements into the rate, overwriting it, and permutes
// after every full rate block. A trailing partial block is zero padded. The
// first capacity element is domain separated by len(elements) mod RateWidth, so
// exactly n/RateWidth permutations are applied when n is a multiple of the rate.
func HashElements(elements []common.Felt) common.Digest {
	var state [StateWidth]common.Felt
	state[0] = common.NewFelt(uint64(len(elements) % RateWidth))

	i := 0
	for _, e := range elements {
		state[CapacityWidth+i] = e
		i++
		if i == RateWidth {
			permute(&state)
			i = 0
		}
	}
	if i > 0 {
		for ; i < RateWidth; i++ {
			state[CapacityWidth+i] = common.ZeroFelt
		}
		permute(&state)
	}
	return squeeze(&state)
}

// HashBytes hashes an arbitrary byte string.
func HashBytes(b []byte) common.Digest {
	return HashElements(common.BytesToFelts(b))
}

// Merge is a 2-to-1 compression of two digests, one permutation.
func Merge(left, right common.Digest) common.Digest {
	var state [StateWidth]common.Felt
	copy(state[CapacityWidth:CapacityWidth+common.WordSize], left[:])
	copy(state[CapacityWidth+common.WordSize:], right[:])
	permute(&state)
	return squeeze(&state)
}

// MergeInDomain is Merge with the second capacity element set to domain.
func MergeInDomain(left, right common.Digest, domain common.Felt) common.Digest {
	var state [StateWidth]common.Felt
	state[1] = domain
	copy(state[CapacityWidth:CapacityWidth+common.WordSize], left[:])
	copy(state[CapacityWidth+common.WordSize:], right[:])
	permute(&state)
	return squeeze(&state)
}
