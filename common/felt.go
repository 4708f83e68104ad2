package common

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/colorfulnotion/zktx/txerrors"
	"github.com/consensys/gnark-crypto/field/goldilocks"
)

const (
	// FieldModulus is the Goldilocks prime 2^64 - 2^32 + 1.
	FieldModulus uint64 = 0xffffffff00000001

	FeltBytes   = goldilocks.Bytes
	WordSize    = 4
	DigestBytes = WordSize * FeltBytes
)

// Felt is an element of the Goldilocks field.
type Felt = goldilocks.Element

// Word is four field elements.
type Word [WordSize]Felt

// Digest is a hash output; it has the shape of a Word.
type Digest [WordSize]Felt

var (
	ZeroFelt  Felt
	EmptyWord Word
)

// NewFelt reduces v modulo the field prime.
func NewFelt(v uint64) Felt {
	return goldilocks.NewElement(v)
}

// FeltFromUint64 returns an error when v is not a canonical field element.
func FeltFromUint64(v uint64) (Felt, error) {
	if v >= FieldModulus {
		return Felt{}, fmt.Errorf("%w: %d is not below the field modulus", txerrors.ErrInvalidFieldElement, v)
	}
	return goldilocks.NewElement(v), nil
}

// FeltFromBytes parses a little-endian canonical encoding.
func FeltFromBytes(b [FeltBytes]byte) (Felt, error) {
	f, err := goldilocks.LittleEndian.Element(&b)
	if err != nil {
		return Felt{}, fmt.Errorf("%w: %v", txerrors.ErrInvalidFieldElement, err)
	}
	return f, nil
}

func FeltToBytes(f Felt) [FeltBytes]byte {
	var b [FeltBytes]byte
	goldilocks.LittleEndian.PutElement(&b, f)
	return b
}

// FeltToUint64 returns the canonical integer value of f.
func FeltToUint64(f Felt) uint64 {
	return f.Uint64()
}

func WordFromUint64s(a, b, c, d uint64) Word {
	return Word{NewFelt(a), NewFelt(b), NewFelt(c), NewFelt(d)}
}

func (w Word) Elements() []Felt {
	return w[:]
}

func (w Word) IsEmpty() bool {
	return w == EmptyWord
}

func (w Word) Uint64s() [WordSize]uint64 {
	var out [WordSize]uint64
	for i := range w {
		out[i] = w[i].Uint64()
	}
	return out
}

func (w Word) Bytes() []byte {
	out := make([]byte, 0, DigestBytes)
	for i := range w {
		b := FeltToBytes(w[i])
		out = append(out, b[:]...)
	}
	return out
}

func (w Word) String() string {
	return Bytes2Hex(w.Bytes())
}

// WordFromBytes decodes 32 little-endian bytes into a Word.
func WordFromBytes(b []byte) (Word, error) {
	var w Word
	if len(b) != DigestBytes {
		return w, fmt.Errorf("%w: expected %d bytes, got %d", txerrors.ErrInvalidFieldElement, DigestBytes, len(b))
	}
	for i := range w {
		var chunk [FeltBytes]byte
		copy(chunk[:], b[i*FeltBytes:(i+1)*FeltBytes])
		f, err := FeltFromBytes(chunk)
		if err != nil {
			return Word{}, fmt.Errorf("element %d: %w", i, err)
		}
		w[i] = f
	}
	return w, nil
}

// HexToWord parses a 32 byte hex string, with or without the 0x prefix.
func HexToWord(s string) (Word, error) {
	return WordFromBytes(FromHex(strings.TrimSpace(s)))
}

func (d Digest) Word() Word {
	return Word(d)
}

func (d Digest) Elements() []Felt {
	return d[:]
}

func (d Digest) Bytes() []byte {
	return Word(d).Bytes()
}

// Hash returns the digest bytes as a 32 byte Hash, used for storage keys.
func (d Digest) Hash() Hash {
	return BytesToHash(d.Bytes())
}

func (d Digest) String() string {
	return Word(d).String()
}

func (d Digest) String_short() string {
	return d.Hash().String_short()
}

func DigestFromHash(h Hash) (Digest, error) {
	w, err := WordFromBytes(h.Bytes())
	return Digest(w), err
}

func HexToDigest(s string) (Digest, error) {
	w, err := HexToWord(s)
	return Digest(w), err
}

func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Digest) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	parsed, err := HexToDigest(hexStr)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FeltsFromUint64s reduces each value into the field.
func FeltsFromUint64s(vals ...uint64) []Felt {
	out := make([]Felt, len(vals))
	for i, v := range vals {
		out[i] = NewFelt(v)
	}
	return out
}

// BytesToFelts packs b into field elements seven bytes at a time so that every
// chunk is canonical. The final chunk is padded with a single 0x01 marker byte
// when there is room, which keeps inputs of different lengths distinct.
func BytesToFelts(b []byte) []Felt {
	const chunk = FeltBytes - 1
	out := make([]Felt, 0, len(b)/chunk+1)
	for i := 0; i < len(b); i += chunk {
		var buf [FeltBytes]byte
		end := i + chunk
		if end > len(b) {
			end = len(b)
		}
		n := copy(buf[:], b[i:end])
		if n < chunk {
			buf[n] = 1
		}
		out = append(out, NewFelt(binary.LittleEndian.Uint64(buf[:])))
	}
	if len(b)%chunk == 0 {
		out = append(out, NewFelt(1))
	}
	return out
}
