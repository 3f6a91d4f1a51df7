package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/gnosischain/gnosis-engine/params"
)

var (
	headNumberFlag = &cli.Uint64Flag{
		Name:  "number",
		Usage: "Head block number",
	}
	headTimeFlag = &cli.Uint64Flag{
		Name:  "time",
		Usage: "Head block timestamp",
	}
)

var (
	forkidCommand = &cli.Command{
		Name:   "forkid",
		Usage:  "Print the EIP-2124 fork identifier of the chain",
		Action: showForkID,
		Flags:  []cli.Flag{headNumberFlag, headTimeFlag},
		Description: `
gnosis-engine forkid [--number N --time T]
prints the fork identifier at the given head. Without a head the identifier
with every known fork applied is printed.`,
		Subcommands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Check a remote fork identifier against the local chain",
				ArgsUsage: "<hash> <next>",
				Action:    validateForkID,
				Flags:     []cli.Flag{headNumberFlag, headTimeFlag},
			},
		},
	}
	forksCommand = &cli.Command{
		Name:   "forks",
		Usage:  "Print the hardfork table of the chain",
		Action: showForks,
	}
)

func headFromFlags(ctx *cli.Context) params.Head {
	return params.Head{
		Number:    ctx.Uint64(headNumberFlag.Name),
		Timestamp: ctx.Uint64(headTimeFlag.Name),
	}
}

func showForkID(ctx *cli.Context) error {
	spec, err := chainSpec(ctx)
	if err != nil {
		return err
	}
	id := spec.LatestForkID()
	if ctx.IsSet(headNumberFlag.Name) || ctx.IsSet(headTimeFlag.Name) {
		id = spec.ForkID(headFromFlags(ctx))
	}
	fmt.Fprintf(ctx.App.Writer, "Genesis seed: %v\n", spec.ForkHashSeed())
	fmt.Fprintf(ctx.App.Writer, "Fork ID: hash=%v next=%d\n", id.Hash, id.Next)
	return nil
}

func validateForkID(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errors.New("expected <hash> <next>")
	}
	spec, err := chainSpec(ctx)
	if err != nil {
		return err
	}
	raw, err := hexutil.Decode(ctx.Args().Get(0))
	if err != nil {
		return fmt.Errorf("invalid fork hash: %w", err)
	}
	var remote params.ForkID
	if len(raw) != len(remote.Hash) {
		return fmt.Errorf("invalid fork hash length %d", len(raw))
	}
	copy(remote.Hash[:], raw)
	if remote.Next, err = strconv.ParseUint(ctx.Args().Get(1), 10, 64); err != nil {
		return fmt.Errorf("invalid fork next: %w", err)
	}
	head := headFromFlags(ctx)
	if err := spec.ValidateForkID(head, remote); err != nil {
		log.Warn("Remote fork identifier rejected", "hash", remote.Hash, "next", remote.Next, "err", err)
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "Fork ID hash=%v next=%d is compatible\n", remote.Hash, remote.Next)
	return nil
}

func showForks(ctx *cli.Context) error {
	spec, err := chainSpec(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "Chain ID: %v\n", spec.ChainID())

	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Fork", "Activation"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	for _, f := range spec.Forks() {
		table.Append([]string{f.Fork.String(), f.Condition.String()})
	}
	table.Render()
	return nil
}
