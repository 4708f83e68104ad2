package accounts

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/log"
	"github.com/colorfulnotion/zktx/txerrors"
	"golang.org/x/sync/errgroup"
)

// ctx is polled once per this many attempts
const seedCheckInterval = 1 << 10

// SeedSearchOptions tunes GetAccountSeedWithOptions.
type SeedSearchOptions struct {
	// Workers defaults to runtime.NumCPU().
	Workers int
	// MaxAttempts bounds the total number of digests tried; 0 means unbounded.
	MaxAttempts uint64
}

var errSeedFound = errors.New("seed found")

// GetAccountSeed searches for a seed whose digest passes ValidateSeedDigest and
// whose id encodes accountType and the requested storage mode. initSeed only
// selects where the search starts.
func GetAccountSeed(
	ctx context.Context,
	initSeed [32]byte,
	accountType AccountType,
	onChain bool,
	codeCommitment common.Digest,
	storageCommitment common.Digest,
) (common.Word, error) {
	return GetAccountSeedWithOptions(ctx, initSeed, accountType, onChain, codeCommitment, storageCommitment, SeedSearchOptions{})
}

func GetAccountSeedWithOptions(
	ctx context.Context,
	initSeed [32]byte,
	accountType AccountType,
	onChain bool,
	codeCommitment common.Digest,
	storageCommitment common.Digest,
	opts SeedSearchOptions,
) (common.Word, error) {
	return defaultPowRules().findSeed(ctx, initSeed, accountType, onChain, codeCommitment, storageCommitment, opts)
}

func (r powRules) findSeed(
	ctx context.Context,
	initSeed [32]byte,
	accountType AccountType,
	onChain bool,
	codeCommitment common.Digest,
	storageCommitment common.Digest,
	opts SeedSearchOptions,
) (common.Word, error) {
	budgets := attemptBudgets(opts)

	var (
		found    common.Word
		once     sync.Once
		attempts atomic.Uint64
	)
	one := common.NewFelt(1)
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w, budget := range budgets {
		seed := seedStart(initSeed, w)
		g.Go(func() error {
			for i := uint64(0); budget == 0 || i < budget; i++ {
				if i%seedCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				digest := ComputeDigest(seed, codeCommitment, storageCommitment)
				attempts.Add(1)
				if r.seedMatches(digest, accountType, onChain) {
					once.Do(func() { found = seed })
					return errSeedFound
				}
				seed[0].Add(&seed[0], &one)
			}
			return nil
		})
	}

	err := g.Wait()
	switch {
	case errors.Is(err, errSeedFound):
		log.Info(log.AccountMonitoring, "account seed found",
			"type", accountType, "onChain", onChain,
			"attempts", attempts.Load(), "elapsed", time.Since(start))
		return found, nil
	case err != nil:
		return common.Word{}, err
	default:
		return common.Word{}, fmt.Errorf("%w: %d attempts", txerrors.ErrSeedSearchExhausted, attempts.Load())
	}
}

// attemptBudgets splits MaxAttempts over the workers, one entry per worker.
// The entries sum to MaxAttempts, so a small bound runs fewer workers. A zero
// entry means unbounded.
func attemptBudgets(opts SeedSearchOptions) []uint64 {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if opts.MaxAttempts > 0 && opts.MaxAttempts < uint64(workers) {
		workers = int(opts.MaxAttempts)
	}
	budgets := make([]uint64, workers)
	if opts.MaxAttempts == 0 {
		return budgets
	}
	per, rem := opts.MaxAttempts/uint64(workers), opts.MaxAttempts%uint64(workers)
	for w := range budgets {
		budgets[w] = per
		if uint64(w) < rem {
			budgets[w]++
		}
	}
	return budgets
}

func (r powRules) seedMatches(digest common.Digest, accountType AccountType, onChain bool) bool {
	v := digest[0].Uint64()
	if accountTypeFromValue(v) != accountType || isOnChainValue(v) != onChain {
		return false
	}
	return r.validateSeedDigest(digest) == nil
}

// seedStart spreads workers over the seed space by hashing initSeed with the
// worker index.
func seedStart(initSeed [32]byte, worker int) common.Word {
	buf := append(initSeed[:], common.Uint32ToBytes(uint32(worker))...)
	h := common.ComputeHash(buf)
	var seed common.Word
	for i := range seed {
		seed[i] = common.NewFelt(binary.LittleEndian.Uint64(h[i*8 : (i+1)*8]))
	}
	return seed
}
