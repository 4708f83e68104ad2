package main

import (
	"fmt"

	"github.com/colorfulnotion/zktx/accounts"
	"github.com/colorfulnotion/zktx/common"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"
)

// accountIdTree renders the fields encoded in an account id.
func accountIdTree(id accounts.AccountId) treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(common.Colorize(common.ColorBlue, "Account "+id.String()))
	b := id.Bytes()
	tree.AddNode(fmt.Sprintf("value: %d", id.Uint64()))
	tree.AddNode(fmt.Sprintf("bytes (le): %s", common.Bytes2Hex(b[:])))
	kind := tree.AddBranch(fmt.Sprintf("type: %s", id.AccountType()))
	kind.AddNode("faucet: " + common.Bool(id.IsFaucet()))
	kind.AddNode("regular: " + common.Bool(id.IsRegularAccount()))
	tree.AddNode("on-chain: " + common.Bool(id.IsOnChain()))
	return tree
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <account-id>...",
		Short: "Decode account ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]accounts.AccountId, 0, len(args))
			for _, arg := range args {
				id, err := accounts.HexToAccountId(arg)
				if err != nil {
					return fmt.Errorf("%s: %w", arg, err)
				}
				ids = append(ids, id)
			}
			accounts.SortAccountIds(ids)
			for _, id := range ids {
				fmt.Fprint(cmd.OutOrStdout(), accountIdTree(id).String())
			}
			return nil
		},
	}
}

type verifyResult struct {
	Id     accounts.AccountId `json:"id"`
	Valid  bool               `json:"valid"`
	Pow    uint32             `json:"pow"`
	Reason string             `json:"reason,omitempty"`
}

func newVerifyCmd() *cobra.Command {
	var (
		spec    accountSpec
		seedHex string
	)
	cmd := &cobra.Command{
		Use:   "verify <account-id>",
		Short: "Check that a seed reproduces an account id for the given code and storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := accounts.HexToAccountId(args[0])
			if err != nil {
				return err
			}
			seed, err := common.HexToWord(seedHex)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			code, storage, _, err := spec.build()
			if err != nil {
				return err
			}
			account := accounts.NewAccount(id, common.ZeroFelt, code, storage)
			res := verifyResult{
				Id:  id,
				Pow: accounts.DigestPow(accounts.ComputeDigest(seed, code.Commitment(), storage.Commitment())),
			}
			verr := accounts.ValidateAccountSeed(account, seed)
			if verr != nil {
				res.Reason = verr.Error()
			} else {
				res.Valid = true
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return verr
		},
	}
	spec.addFlags(cmd)
	cmd.Flags().StringVar(&seedHex, "seed", "", "Seed word as 32 byte hex")
	_ = cmd.MarkFlagRequired("seed")
	return cmd
}
