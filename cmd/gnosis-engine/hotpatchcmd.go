package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/gnosischain/gnosis-engine/params"
)

var (
	patchActivationFlag = &cli.Uint64Flag{
		Name:  "activation",
		Usage: "Activation timestamp of the hot-patch given with --patch",
	}
	patchEntryFlag = &cli.StringSliceFlag{
		Name:  "patch",
		Usage: "Bytecode replacement as <address>=<hex code>; an empty code clears the account",
	}
	patchParentTimeFlag = &cli.Uint64Flag{
		Name:  "parent-time",
		Usage: "Parent block timestamp for the transition check",
	}
	patchTimeFlag = &cli.Uint64Flag{
		Name:  "time",
		Usage: "Block timestamp for the transition check",
	}
)

var hotpatchCommand = &cli.Command{
	Name:   "hotpatch",
	Usage:  "Inspect a bytecode hot-patch table",
	Action: showHotPatch,
	Flags:  []cli.Flag{patchActivationFlag, patchEntryFlag, patchParentTimeFlag, patchTimeFlag},
	Description: `
gnosis-engine hotpatch [--activation T --patch <address>=<code> ...] [--parent-time P --time T]
prints the hot-patch table of the chain, or the one given on the command line.
With --time it reports whether a block at that time is the transition block.`,
}

func hotPatchFromFlags(ctx *cli.Context) (*params.HotPatchTable, error) {
	patches := ctx.StringSlice(patchEntryFlag.Name)
	if len(patches) == 0 {
		spec, err := chainSpec(ctx)
		if err != nil {
			return nil, err
		}
		return spec.HotPatch(), nil
	}
	if !ctx.IsSet(patchActivationFlag.Name) {
		return nil, errors.New("--patch requires --activation")
	}
	mapping := make(map[common.Address]string, len(patches))
	for _, patch := range patches {
		addr, code, ok := strings.Cut(patch, "=")
		if !ok || !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid patch %q", patch)
		}
		mapping[common.HexToAddress(addr)] = code
	}
	activation := ctx.Uint64(patchActivationFlag.Name)
	return params.ParseHotPatchConfig(&activation, mapping)
}

func showHotPatch(ctx *cli.Context) error {
	table, err := hotPatchFromFlags(ctx)
	if err != nil {
		return err
	}
	w := ctx.App.Writer
	if table == nil {
		fmt.Fprintln(w, "No hot-patch configured")
		return nil
	}
	fmt.Fprintf(w, "Activation time: %d\n", table.ActivationTime)
	for _, entry := range table.Entries {
		fmt.Fprintf(w, " - %v codeHash=%v size=%d\n", entry.Address, entry.CodeHash, len(entry.Code))
	}
	if ctx.IsSet(patchTimeFlag.Name) {
		parent, time := ctx.Uint64(patchParentTimeFlag.Name), ctx.Uint64(patchTimeFlag.Name)
		fmt.Fprintf(w, "Active: %v\n", table.IsActive(time))
		fmt.Fprintf(w, "Transition: %v\n", table.IsTransition(parent, time))
	}
	return nil
}
