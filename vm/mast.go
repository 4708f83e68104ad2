package vm

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/crypto"
	"github.com/colorfulnotion/zktx/txerrors"
)

// Procedure is a compiled program fragment. Its root is the digest of Body.
type Procedure struct {
	Name string
	Body []byte
}

func (p Procedure) Digest() common.Digest {
	return crypto.HashBytes(p.Body)
}

type procedureJSON struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

func (p Procedure) MarshalJSON() ([]byte, error) {
	return json.Marshal(procedureJSON{Name: p.Name, Body: "0x" + hex.EncodeToString(p.Body)})
}

func (p *Procedure) UnmarshalJSON(data []byte) error {
	var raw procedureJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	body, err := hex.DecodeString(strings.TrimPrefix(raw.Body, "0x"))
	if err != nil {
		return fmt.Errorf("procedure %q body: %w", raw.Name, err)
	}
	p.Name = raw.Name
	p.Body = body
	return nil
}

// MastForest is a set of procedures addressable by root.
type MastForest struct {
	Procedures []Procedure `json:"procedures"`
	index      map[common.Digest]int
}

func NewMastForest(procs ...Procedure) (*MastForest, error) {
	if len(procs) == 0 {
		return nil, fmt.Errorf("%w: no procedures", txerrors.ErrMastForestInvalid)
	}
	f := &MastForest{Procedures: append([]Procedure(nil), procs...)}
	if err := f.buildIndex(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *MastForest) buildIndex() error {
	f.index = make(map[common.Digest]int, len(f.Procedures))
	for i, p := range f.Procedures {
		root := p.Digest()
		if _, dup := f.index[root]; dup {
			return fmt.Errorf("%w: duplicate procedure %s (%s)", txerrors.ErrMastForestInvalid, p.Name, root.String_short())
		}
		f.index[root] = i
	}
	return nil
}

func (f *MastForest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Procedures []Procedure `json:"procedures"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	forest, err := NewMastForest(raw.Procedures...)
	if err != nil {
		return err
	}
	*f = *forest
	return nil
}

// Roots lists procedure roots in forest order.
func (f *MastForest) Roots() []common.Digest {
	roots := make([]common.Digest, len(f.Procedures))
	for i, p := range f.Procedures {
		roots[i] = p.Digest()
	}
	return roots
}

func (f *MastForest) Procedure(root common.Digest) (Procedure, bool) {
	i, ok := f.index[root]
	if !ok {
		return Procedure{}, false
	}
	return f.Procedures[i], true
}

// MastForestStore resolves procedure roots to the forest holding them.
type MastForestStore interface {
	GetMastForest(root common.Digest) *MastForest
}
