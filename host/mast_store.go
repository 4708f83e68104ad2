package host

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/log"
	"github.com/colorfulnotion/zktx/storage"
	"github.com/colorfulnotion/zktx/txerrors"
	"github.com/colorfulnotion/zktx/vm"
	lru "github.com/hashicorp/golang-lru/v2"
)

// forest keys are prefixed so the store can share a database with other data
var fragmentPrefix = []byte("mast:")

// DefaultFragmentCacheSize bounds how many procedure roots read back from the
// backing store are kept in memory.
const DefaultFragmentCacheSize = 4096

// TransactionMastStore holds the program fragments a transaction may call
// into. It is shared between hosts and safe for concurrent use.
type TransactionMastStore struct {
	mu      sync.RWMutex
	forests map[common.Digest]*vm.MastForest
	backing *storage.PersistenceStore
	// forests read from backing
	cache *lru.Cache[common.Digest, *vm.MastForest]
}

func NewTransactionMastStore() *TransactionMastStore {
	return &TransactionMastStore{forests: make(map[common.Digest]*vm.MastForest)}
}

// NewPersistentMastStore writes inserted forests through to ps and falls back
// to it on misses.
func NewPersistentMastStore(ps *storage.PersistenceStore) *TransactionMastStore {
	s, err := NewPersistentMastStoreWithCache(ps, DefaultFragmentCacheSize)
	if err != nil {
		// lru.New only rejects a non-positive size
		panic(err)
	}
	return s
}

func NewPersistentMastStoreWithCache(ps *storage.PersistenceStore, cacheSize int) (*TransactionMastStore, error) {
	cache, err := lru.New[common.Digest, *vm.MastForest](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("fragment cache: %w", err)
	}
	s := NewTransactionMastStore()
	s.backing = ps
	s.cache = cache
	return s, nil
}

func fragmentKey(root common.Digest) []byte {
	h := root.Hash()
	return append(append([]byte(nil), fragmentPrefix...), h.Bytes()...)
}

// Insert registers forest under every procedure root it contains.
func (s *TransactionMastStore) Insert(forest *vm.MastForest) error {
	roots := forest.Roots()
	if s.backing != nil {
		encoded, err := json.Marshal(forest)
		if err != nil {
			return fmt.Errorf("encode mast forest: %w", err)
		}
		pairs := make([][2][]byte, len(roots))
		for i, root := range roots {
			pairs[i] = [2][]byte{fragmentKey(root), encoded}
		}
		if err := s.backing.PutBatch(pairs); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, root := range roots {
		s.forests[root] = forest
	}
	log.Debug(log.StoreMonitoring, "mast forest inserted", "procedures", len(roots))
	return nil
}

// GetMastForest returns nil when root is unknown or the backing store cannot
// produce it; the latter is logged.
func (s *TransactionMastStore) GetMastForest(root common.Digest) *vm.MastForest {
	forest, err := s.LoadMastForest(root)
	if err != nil {
		log.Warn(log.StoreMonitoring, "mast forest load failed", "root", root.String_short(), "err", err)
		return nil
	}
	return forest
}

// LoadMastForest is GetMastForest with backing store failures reported. An
// unknown root gives (nil, nil).
func (s *TransactionMastStore) LoadMastForest(root common.Digest) (*vm.MastForest, error) {
	s.mu.RLock()
	forest, ok := s.forests[root]
	s.mu.RUnlock()
	if ok || s.backing == nil {
		return forest, nil
	}
	if cached, ok := s.cache.Get(root); ok {
		return cached, nil
	}

	data, found, err := s.backing.Get(fragmentKey(root))
	if err != nil {
		return nil, fmt.Errorf("read mast forest %s: %w", root.String_short(), err)
	}
	if !found {
		return nil, nil
	}
	forest, err = decodeForest(data)
	if err != nil {
		return nil, fmt.Errorf("mast forest %s: %w", root.String_short(), err)
	}
	for _, r := range forest.Roots() {
		s.cache.Add(r, forest)
	}
	log.Trace(log.StoreMonitoring, "mast forest loaded", "root", root.String_short())
	return forest, nil
}

func decodeForest(data []byte) (*vm.MastForest, error) {
	forest := new(vm.MastForest)
	if err := json.Unmarshal(data, forest); err != nil {
		if errors.Is(err, txerrors.ErrMastForestInvalid) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", txerrors.ErrMastForestInvalid, err)
	}
	return forest, nil
}

// Remove drops the forest containing root under all of its roots, from memory
// and from the backing store. It reports false when root is unknown.
func (s *TransactionMastStore) Remove(root common.Digest) (bool, error) {
	forest, err := s.LoadMastForest(root)
	if err != nil || forest == nil {
		return false, err
	}
	roots := forest.Roots()
	if s.backing != nil {
		keys := make([][]byte, len(roots))
		for i, r := range roots {
			keys[i] = fragmentKey(r)
		}
		if err := s.backing.DeleteBatch(keys); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range roots {
		delete(s.forests, r)
		if s.cache != nil {
			s.cache.Remove(r)
		}
	}
	log.Debug(log.StoreMonitoring, "mast forest removed", "procedures", len(roots))
	return true, nil
}

// List returns every stored forest once, ordered by the key of its first
// root. Persistent stores list the backing store, which holds everything
// inserted.
func (s *TransactionMastStore) List() ([]*vm.MastForest, error) {
	if s.backing == nil {
		s.mu.RLock()
		seen := make(map[*vm.MastForest]bool, len(s.forests))
		var forests []*vm.MastForest
		for _, f := range s.forests {
			if !seen[f] {
				seen[f] = true
				forests = append(forests, f)
			}
		}
		s.mu.RUnlock()
		sortForests(forests)
		return forests, nil
	}

	pairs, err := s.backing.GetWithPrefix(fragmentPrefix)
	if err != nil {
		return nil, err
	}
	seen := make(map[common.Digest]bool, len(pairs))
	var forests []*vm.MastForest
	for _, kv := range pairs {
		forest, err := decodeForest(kv[1])
		if err != nil {
			return nil, fmt.Errorf("key %x: %w", kv[0], err)
		}
		first := forest.Roots()[0]
		if seen[first] {
			continue
		}
		seen[first] = true
		forests = append(forests, forest)
	}
	sortForests(forests)
	return forests, nil
}

func sortForests(forests []*vm.MastForest) {
	sort.Slice(forests, func(i, j int) bool {
		return bytes.Compare(fragmentKey(forests[i].Roots()[0]), fragmentKey(forests[j].Roots()[0])) < 0
	})
}

// Len is the number of procedure roots held in memory.
func (s *TransactionMastStore) Len() int {
	s.mu.RLock()
	n := len(s.forests)
	s.mu.RUnlock()
	if s.cache != nil {
		n += s.cache.Len()
	}
	return n
}
