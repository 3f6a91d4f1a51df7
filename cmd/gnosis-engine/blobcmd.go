package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gnosischain/gnosis-engine/consensus/misc"
)

var (
	excessBlobGasFlag = &cli.Uint64Flag{
		Name:  "excess",
		Usage: "Excess blob gas of the block, or of its parent together with --parent-used",
	}
	parentBlobGasUsedFlag = &cli.Uint64Flag{
		Name:  "parent-used",
		Usage: "Blob gas used by the parent block",
	}
	blockTimeFlag = &cli.Uint64Flag{
		Name:  "time",
		Usage: "Block timestamp selecting the blob parameters (default: now)",
	}
)

var blobfeeCommand = &cli.Command{
	Name:   "blobfee",
	Usage:  "Compute the blob base fee",
	Action: showBlobFee,
	Flags:  []cli.Flag{excessBlobGasFlag, parentBlobGasUsedFlag, blockTimeFlag},
	Description: `
gnosis-engine blobfee --excess N [--parent-used M] [--time T]
prints the blob base fee for a block with the given excess blob gas. With
--parent-used the excess of the block is first derived from the parent's
excess and usage.`,
}

func showBlobFee(ctx *cli.Context) error {
	spec, err := chainSpec(ctx)
	if err != nil {
		return err
	}
	ts := uint64(time.Now().Unix())
	if ctx.IsSet(blockTimeFlag.Name) {
		ts = ctx.Uint64(blockTimeFlag.Name)
	}
	blob := spec.BlobParamsAt(ts)
	if blob == nil {
		return fmt.Errorf("blob transactions are not active at time %d", ts)
	}
	excess := ctx.Uint64(excessBlobGasFlag.Name)
	if ctx.IsSet(parentBlobGasUsedFlag.Name) {
		excess = misc.CalcExcessBlobGas(excess, ctx.Uint64(parentBlobGasUsedFlag.Name), blob)
	}
	w := ctx.App.Writer
	fmt.Fprintf(w, "Blob params: target=%d max=%d updateFraction=%d minFee=%d\n", blob.Target, blob.Max, blob.UpdateFraction, blob.MinBlobFee)
	fmt.Fprintf(w, "Excess blob gas: %d\n", excess)
	fmt.Fprintf(w, "Blob fee: %v wei\n", misc.CalcBlobFee(excess, blob))
	return nil
}
