package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colorfulnotion/zktx/accounts"
	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/log"
	"github.com/colorfulnotion/zktx/vm"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var defaultProcedures = []string{
	"basic_wallet::receive_asset",
	"basic_wallet::send_asset",
	"auth::basic",
}

// accountSpec is the account description shared by grind and verify.
type accountSpec struct {
	procedures []string
	slots      []string
}

func (s *accountSpec) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&s.procedures, "procedure", defaultProcedures, "Exported procedure names, in index order")
	cmd.Flags().StringSliceVar(&s.slots, "slot", nil, "Storage slot words as 32 byte hex, in slot order")
}

// build turns procedure names into fragments whose bodies are the names, so
// the same names always give the same code commitment.
func (s *accountSpec) build() (*accounts.AccountCode, *accounts.AccountStorage, *vm.MastForest, error) {
	procs := make([]vm.Procedure, len(s.procedures))
	for i, name := range s.procedures {
		procs[i] = vm.Procedure{Name: name, Body: []byte(name)}
	}
	forest, err := vm.NewMastForest(procs...)
	if err != nil {
		return nil, nil, nil, err
	}
	code, err := accounts.NewAccountCode(forest.Roots())
	if err != nil {
		return nil, nil, nil, err
	}
	slots := make([]common.Word, len(s.slots))
	for i, hex := range s.slots {
		w, err := common.HexToWord(hex)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("slot %d: %w", i, err)
		}
		slots[i] = w
	}
	return code, accounts.NewAccountStorage(slots), forest, nil
}

// parseInitSeed decodes a 0x-prefixed 32 byte hex string, or draws a random
// seed when s is empty.
func parseInitSeed(s string) ([32]byte, error) {
	var seed [32]byte
	if s == "" {
		_, err := rand.Read(seed[:])
		return seed, err
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return seed, fmt.Errorf("init seed: %w", err)
	}
	if len(b) != len(seed) {
		return seed, fmt.Errorf("init seed: expected %d bytes, got %d", len(seed), len(b))
	}
	copy(seed[:], b)
	return seed, nil
}

type grindResult struct {
	Seed    string                 `json:"seed"`
	Id      accounts.AccountId     `json:"id"`
	Type    string                 `json:"type"`
	OnChain bool                   `json:"on_chain"`
	Pow     uint32                 `json:"pow"`
	Elapsed string                 `json:"elapsed"`
	Header  accounts.AccountHeader `json:"header"`
}

func newGrindCmd(cfg *Config) *cobra.Command {
	var (
		spec        accountSpec
		typeName    string
		offChain    bool
		initSeedHex string
		maxAttempts uint64
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "grind",
		Short: "Search for an account seed and print the resulting account id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accountType, err := accounts.ParseAccountType(typeName)
			if err != nil {
				return err
			}
			code, storage, _, err := spec.build()
			if err != nil {
				return err
			}
			initSeed, err := parseInitSeed(initSeedHex)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			log.Info(log.CLIMonitoring, "grinding account seed", "type", accountType, "onChain", !offChain,
				"code", code.Commitment().String_short(), "storage", storage.Commitment().String_short())
			start := time.Now()
			seed, err := accounts.GetAccountSeedWithOptions(ctx, initSeed, accountType, !offChain,
				code.Commitment(), storage.Commitment(),
				accounts.SeedSearchOptions{Workers: cfg.Workers, MaxAttempts: maxAttempts})
			if err != nil {
				return err
			}
			account, err := accounts.NewAccountFromSeed(seed, code, storage)
			if err != nil {
				return err
			}
			digest := accounts.ComputeDigest(seed, code.Commitment(), storage.Commitment())
			return printJSON(cmd.OutOrStdout(), grindResult{
				Seed:    seed.String(),
				Id:      account.Id(),
				Type:    account.AccountType().String(),
				OnChain: account.Id().IsOnChain(),
				Pow:     accounts.DigestPow(digest),
				Elapsed: time.Since(start).Round(time.Millisecond).String(),
				Header:  account.Header(),
			})
		},
	}
	spec.addFlags(cmd)
	cmd.Flags().StringVar(&typeName, "type", accounts.RegularAccountUpdatableCode.String(), "Account type (regular-updatable, regular-immutable, fungible-faucet, non-fungible-faucet)")
	cmd.Flags().BoolVar(&offChain, "off-chain", false, "Grind an id for an account whose state is kept off chain")
	cmd.Flags().StringVar(&initSeedHex, "init-seed", "", "32 byte hex start point for the search (default: random)")
	cmd.Flags().Uint64Var(&maxAttempts, "max-attempts", 0, "Give up after this many digests (0: unbounded)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (0: no limit)")
	return cmd
}
