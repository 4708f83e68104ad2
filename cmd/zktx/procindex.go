package main

import (
	"fmt"

	"github.com/colorfulnotion/zktx/accounts"
	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/crypto"
	"github.com/colorfulnotion/zktx/host"
	"github.com/colorfulnotion/zktx/vm"
	"github.com/spf13/cobra"
)

type procIndexResult struct {
	Procedure string        `json:"procedure"`
	Root      common.Digest `json:"root"`
	Index     uint64        `json:"index"`
}

// resolveProcIndex runs the AccountPushProcedureIndex event against a host
// built for the given account, with name's root on top of the operand stack.
func resolveProcIndex(account *accounts.Account, forest *vm.MastForest, name string) (procIndexResult, error) {
	code := account.Code()
	store := host.NewTransactionMastStore()
	if err := store.Insert(forest); err != nil {
		return procIndexResult{}, err
	}
	inputs := vm.NewAdviceInputs().WithMap(code.Commitment(), code.AdviceMapValue())
	h, err := host.NewTransactionHost(account.Header(), inputs, store)
	if err != nil {
		return procIndexResult{}, err
	}

	root := crypto.HashBytes([]byte(name))
	process := vm.NewMockProcess()
	process.SetMemValue(vm.RootContext(), host.CurrentAccountCodeCommitmentPtr, code.Commitment().Word())
	process.PushWord(root.Word())

	if _, err := h.OnEvent(process, host.AccountPushProcedureIndex.ID()); err != nil {
		return procIndexResult{}, err
	}
	resp, err := h.GetAdvice(process, vm.PopStack)
	if err != nil {
		return procIndexResult{}, err
	}
	idx, ok := resp.Element()
	if !ok {
		return procIndexResult{}, fmt.Errorf("unexpected advice response %s", resp)
	}
	return procIndexResult{Procedure: name, Root: root, Index: common.FeltToUint64(idx)}, nil
}

func newProcIndexCmd() *cobra.Command {
	var (
		spec  accountSpec
		idHex string
	)
	cmd := &cobra.Command{
		Use:   "procindex <procedure>",
		Short: "Resolve a procedure's index through the transaction host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := accounts.HexToAccountId(idHex)
			if err != nil {
				return err
			}
			code, storage, forest, err := spec.build()
			if err != nil {
				return err
			}
			account := accounts.NewAccount(id, common.ZeroFelt, code, storage)
			res, err := resolveProcIndex(account, forest, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	spec.addFlags(cmd)
	cmd.Flags().StringVar(&idHex, "id", "0x00000000000000ff", "Account id the host runs for")
	return cmd
}
