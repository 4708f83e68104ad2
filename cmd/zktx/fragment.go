package main

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/zktx/common"
	"github.com/colorfulnotion/zktx/host"
	"github.com/colorfulnotion/zktx/log"
	"github.com/colorfulnotion/zktx/storage"
	"github.com/colorfulnotion/zktx/vm"
	"github.com/spf13/cobra"
)

func openFragmentStore(cfg *Config) (*host.TransactionMastStore, *storage.PersistenceStore, error) {
	ps, err := storage.NewPersistenceStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return host.NewPersistentMastStore(ps), ps, nil
}

// parseProcedure reads name=0xbody.
func parseProcedure(arg string) (vm.Procedure, error) {
	name, body, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return vm.Procedure{}, fmt.Errorf("procedure %q: expected name=0xbody", arg)
	}
	b := common.FromHex(body)
	if len(b) == 0 {
		return vm.Procedure{}, fmt.Errorf("procedure %q: empty body", name)
	}
	return vm.Procedure{Name: name, Body: b}, nil
}

type fragmentRoot struct {
	Name string        `json:"name"`
	Root common.Digest `json:"root"`
}

func fragmentRoots(forest *vm.MastForest) []fragmentRoot {
	roots := make([]fragmentRoot, len(forest.Procedures))
	for i, p := range forest.Procedures {
		roots[i] = fragmentRoot{Name: p.Name, Root: p.Digest()}
	}
	return roots
}

func newFragmentCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fragment",
		Short: "Manage the program fragment store",
	}

	addCmd := &cobra.Command{
		Use:   "add <name=0xbody>...",
		Short: "Store procedures as one fragment and print their roots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			procs := make([]vm.Procedure, len(args))
			for i, arg := range args {
				p, err := parseProcedure(arg)
				if err != nil {
					return err
				}
				procs[i] = p
			}
			forest, err := vm.NewMastForest(procs...)
			if err != nil {
				return err
			}
			store, ps, err := openFragmentStore(cfg)
			if err != nil {
				return err
			}
			defer ps.Close()
			if err := store.Insert(forest); err != nil {
				return err
			}
			log.Info(log.CLIMonitoring, "fragment stored", "datadir", ps.Path(), "procedures", len(procs))
			return printJSON(cmd.OutOrStdout(), fragmentRoots(forest))
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <root>",
		Short: "Print the fragment holding a procedure root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := common.HexToDigest(args[0])
			if err != nil {
				return fmt.Errorf("root: %w", err)
			}
			store, ps, err := openFragmentStore(cfg)
			if err != nil {
				return err
			}
			defer ps.Close()
			forest, err := store.LoadMastForest(root)
			if err != nil {
				return err
			}
			if forest == nil {
				return fmt.Errorf("no fragment contains %s", root)
			}
			return printJSON(cmd.OutOrStdout(), forest)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the roots of every stored fragment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, ps, err := openFragmentStore(cfg)
			if err != nil {
				return err
			}
			defer ps.Close()
			forests, err := store.List()
			if err != nil {
				return err
			}
			listing := make([][]fragmentRoot, len(forests))
			for i, forest := range forests {
				listing[i] = fragmentRoots(forest)
			}
			return printJSON(cmd.OutOrStdout(), listing)
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <root>",
		Short: "Delete the fragment holding a procedure root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := common.HexToDigest(args[0])
			if err != nil {
				return fmt.Errorf("root: %w", err)
			}
			store, ps, err := openFragmentStore(cfg)
			if err != nil {
				return err
			}
			defer ps.Close()
			removed, err := store.Remove(root)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no fragment contains %s", root)
			}
			log.Info(log.CLIMonitoring, "fragment removed", "datadir", ps.Path(), "root", root.String_short())
			return nil
		},
	}

	cmd.AddCommand(addCmd, getCmd, listCmd, rmCmd)
	return cmd
}
