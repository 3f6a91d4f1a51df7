// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package miner

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/zircuit-labs/zkr-go-common/xerrors/stacktrace"

	"github.com/gnosischain/gnosis-engine/consensus/misc"
	"github.com/gnosischain/gnosis-engine/core"
	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/core/vm"
	"github.com/gnosischain/gnosis-engine/params"
)

var (
	errMissingParent      = errors.New("missing parent")
	errInvalidTimestamp   = errors.New("invalid timestamp")
	errMissingBeaconRoot  = errors.New("missing beacon root")
	errEarlyWithdrawals   = errors.New("withdrawals before shanghai")
	errEarlyBeaconRoot    = errors.New("beacon root before cancun")
	errBlockGasExhausted  = errors.New("transaction gas exceeds block gas left")
	errBlockBlobExhausted = errors.New("transaction blob gas exceeds block blob gas left")
)

// Reasons a pool transaction is left out of a payload, used as metric labels.
const (
	skipGasLimit    = "gas_limit"
	skipBlobLimit   = "blob_limit"
	skipBlacklisted = "blacklisted"
)

// environment is the state of one build attempt.
type environment struct {
	parent   *types.Header
	header   *types.Header
	state    *state.StateDB
	executor *core.BlockExecutor
	cached   *state.CachedReads
	maxBlob  uint64

	withdrawals types.Withdrawals

	txs      types.Transactions
	sidecars []*types.BlobTxSidecar
	fees     *uint256.Int
	log      log.Logger
}

// BuildPayload runs one build attempt for args on top of the parent block.
// Pool transactions come from the miner's pool, best is the payload to beat
// (nil for none) and cached, if not nil, holds parent state reads of a
// previous attempt. Errors are only returned for failures that make the
// attempt meaningless; everything a pool transaction can do wrong is handled
// inside.
func (miner *Miner) BuildPayload(ctx context.Context, args *BuildPayloadArgs, best *BuiltPayload, cached *state.CachedReads) (*BuildOutcome, error) {
	return miner.generateWork(ctx, args, func(filter PendingFilter) BestTransactions {
		if miner.txpool == nil {
			return emptyTransactions{}
		}
		return miner.txpool.Pending(filter)
	}, best, cached)
}

func (miner *Miner) buildEmptyPayload(args *BuildPayloadArgs) (*BuiltPayload, error) {
	outcome, err := miner.generateWork(context.Background(), args, func(PendingFilter) BestTransactions {
		return emptyTransactions{}
	}, nil, nil)
	if err != nil {
		return nil, err
	}
	return outcome.Payload, nil
}

func (miner *Miner) generateWork(ctx context.Context, args *BuildPayloadArgs, pending func(PendingFilter) BestTransactions, best *BuiltPayload, cached *state.CachedReads) (*BuildOutcome, error) {
	start := time.Now()
	env, err := miner.prepareWork(args, cached)
	if err != nil {
		return nil, stacktrace.Wrap(err)
	}
	if err := env.executor.ApplyPreExecutionChanges(); err != nil {
		return nil, stacktrace.Wrap(fmt.Errorf("failed to apply pre-execution changes: %w", err))
	}

	txs := pending(env.pendingFilter())
	if err := miner.commitTransactions(ctx, env, txs); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			env.log.Debug("Payload build cancelled", "txs", len(env.txs), "err", err)
			miner.metrics.observeBuild(OutcomeCancelled, time.Since(start))
			return &BuildOutcome{Kind: OutcomeCancelled, CachedReads: env.cached}, nil
		}
		return nil, stacktrace.Wrap(err)
	}
	if best != nil && env.fees.Cmp(best.Fees) <= 0 {
		env.log.Trace("Payload not better than best", "fees", env.fees, "best", best.Fees)
		miner.metrics.observeBuild(OutcomeAborted, time.Since(start))
		return &BuildOutcome{Kind: OutcomeAborted, Fees: env.fees, CachedReads: env.cached}, nil
	}
	payload, err := miner.sealPayload(env, args)
	if err != nil {
		return nil, stacktrace.Wrap(err)
	}
	miner.metrics.observeBuild(OutcomeSuccess, time.Since(start))
	env.log.Info("Built payload", "id", payload.ID, "number", env.header.Number, "hash", payload.Block.Hash(),
		"txs", len(env.txs), "gas", env.header.GasUsed, "fees", env.fees, "elapsed", common.PrettyDuration(time.Since(start)))
	return &BuildOutcome{Kind: OutcomeSuccess, Payload: payload, Fees: env.fees, CachedReads: env.cached}, nil
}

// prepareWork constructs the header of the new block and the state and
// executor of the attempt.
func (miner *Miner) prepareWork(args *BuildPayloadArgs, cached *state.CachedReads) (*environment, error) {
	parent := miner.backend.HeaderByHash(args.Parent)
	if parent == nil {
		return nil, fmt.Errorf("%w: %x", errMissingParent, args.Parent)
	}
	if parent.Time >= args.Timestamp {
		return nil, fmt.Errorf("%w: parent %d, given %d", errInvalidTimestamp, parent.Time, args.Timestamp)
	}
	cfg := miner.settings()
	header := &types.Header{
		ParentHash: parent.Hash(),
		UncleHash:  types.EmptyUncleHash,
		Coinbase:   args.FeeRecipient,
		Difficulty: new(big.Int),
		Number:     parent.Number + 1,
		GasLimit:   calcGasLimit(parent.GasLimit, cfg.GasCeil),
		Time:       args.Timestamp,
		Extra:      []byte(cfg.ExtraData),
		MixDigest:  args.Random,
	}
	if miner.spec.IsLondon(header.Number) {
		header.BaseFee = misc.CalcBaseFee(miner.spec, parent)
	}

	withdrawals := args.Withdrawals
	if miner.spec.IsShanghai(header.Time) {
		if withdrawals == nil {
			withdrawals = types.Withdrawals{}
		}
	} else if withdrawals != nil {
		return nil, errEarlyWithdrawals
	}

	var maxBlob uint64
	if miner.spec.IsCancun(header.Time) {
		if args.BeaconRoot == nil {
			return nil, errMissingBeaconRoot
		}
		blob := miner.spec.BlobParamsAt(header.Time)
		excess := misc.NextExcessBlobGas(parent, blob)
		header.ExcessBlobGas = &excess
		header.BlobGasUsed = new(uint64)
		root := *args.BeaconRoot
		header.ParentBeaconRoot = &root
		maxBlob = blob.MaxBlobGas()
	} else if args.BeaconRoot != nil {
		return nil, errEarlyBeaconRoot
	}

	reader, err := miner.backend.StateAt(parent)
	if err != nil {
		return nil, err
	}
	if cached == nil {
		cached = state.NewCachedReads()
	}
	db := state.New(cached.Reader(reader))
	execCtx := core.ExecutionContext{
		ParentHash:       header.ParentHash,
		ParentBeaconRoot: header.ParentBeaconRoot,
		ParentTimestamp:  parent.Time,
		Withdrawals:      withdrawals,
		GetHash:          miner.backend.GetHashFn(parent),
	}
	return &environment{
		parent:   parent,
		header:   header,
		state:    db,
		executor: core.NewBlockExecutor(miner.spec, db, header, execCtx, miner.interpreter),
		cached:   cached,
		maxBlob:  maxBlob,

		withdrawals: withdrawals,
		fees:        new(uint256.Int),
		log:         miner.log.New("build", uuid.NewString(), "number", header.Number),
	}, nil
}

func (env *environment) pendingFilter() PendingFilter {
	var filter PendingFilter
	if env.header.BaseFee != nil {
		filter.BaseFee = uint256.MustFromBig(env.header.BaseFee)
	}
	if env.header.ExcessBlobGas != nil {
		filter.BlobFee = new(uint256.Int).Set(env.executor.EVM().Context.BlobBaseFee)
	}
	return filter
}

// commitTransactions fills the block with pool transactions until the pool
// runs dry. It returns the context error if the attempt was interrupted and
// any error that is not the fault of a single transaction.
func (miner *Miner) commitTransactions(ctx context.Context, env *environment, txs BestTransactions) error {
	var baseFee *uint256.Int
	if env.header.BaseFee != nil {
		baseFee = uint256.MustFromBig(env.header.BaseFee)
	}
	for {
		ptx := txs.Next()
		if ptx == nil {
			return nil
		}
		tx := ptx.Tx

		// If we don't have enough space for the next transaction, drop it.
		if env.executor.GasUsed()+tx.Gas() > env.header.GasLimit {
			env.log.Trace("Not enough gas left for transaction", "hash", tx.Hash(), "left", env.header.GasLimit-env.executor.GasUsed(), "needed", tx.Gas())
			txs.MarkInvalid(ptx, errBlockGasExhausted)
			miner.metrics.incSkipped(skipGasLimit)
			continue
		}
		if blobGas := tx.BlobGas(); blobGas > 0 && env.executor.BlobGasUsed()+blobGas > env.maxBlob {
			env.log.Trace("Not enough blob gas left for transaction", "hash", tx.Hash(), "left", env.maxBlob-env.executor.BlobGasUsed(), "needed", blobGas)
			txs.MarkInvalid(ptx, errBlockBlobExhausted)
			miner.metrics.incSkipped(skipBlobLimit)
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := miner.filter.Check(env.header.Time, tx, ptx.Sender); err != nil {
			env.log.Trace("Skipping blacklisted transaction", "hash", tx.Hash(), "sender", ptx.Sender, "err", err)
			txs.MarkInvalid(ptx, err)
			miner.metrics.incSkipped(skipBlacklisted)
			continue
		}

		receipt, err := env.executor.ExecuteTransaction(tx, ptx.Sender)
		var invalid *vm.InvalidTxError
		switch {
		case err == nil:

		case errors.Is(err, vm.ErrNonceTooLow):
			// Head notification race between the pool and the builder; the
			// following transactions of the sender may still apply.
			env.log.Trace("Skipping transaction with low nonce", "hash", tx.Hash(), "sender", ptx.Sender, "nonce", tx.Nonce())
			miner.metrics.incSkipped(invalidTxReason(err))
			continue

		case errors.As(err, &invalid):
			env.log.Trace("Transaction invalid, account skipped", "hash", tx.Hash(), "sender", ptx.Sender, "err", err)
			txs.MarkInvalid(ptx, err)
			miner.metrics.incSkipped(invalid.Reason())
			continue

		default:
			return fmt.Errorf("could not apply tx %v: %w", tx.Hash(), err)
		}

		if sidecar := tx.BlobTxSidecar(); sidecar != nil {
			env.sidecars = append(env.sidecars, sidecar)
		}
		if tx.Type() == types.BlobTxType && env.executor.BlobGasUsed() >= env.maxBlob {
			txs.SkipBlobTransactions()
		}
		env.txs = append(env.txs, tx.WithoutBlobTxSidecar())

		tip, err := effectiveTip(tx, baseFee)
		if err != nil {
			// Execution already checked the fee cap against the base fee.
			return err
		}
		env.fees.Add(env.fees, tip.Mul(tip, uint256.NewInt(receipt.GasUsed)))
	}
}

// sealPayload runs the finishing calls and assembles the block.
func (miner *Miner) sealPayload(env *environment, args *BuildPayloadArgs) (*BuiltPayload, error) {
	result, err := env.executor.Finish()
	if err != nil {
		return nil, fmt.Errorf("failed to finish block: %w", err)
	}
	root, err := miner.rooter.StateRoot(env.parent, env.state.Changes())
	if err != nil {
		return nil, fmt.Errorf("failed to compute state root: %w", err)
	}

	header := env.header
	header.Root = root
	header.TxHash = types.DeriveSha(env.txs, trie.NewStackTrie(nil))
	header.ReceiptHash = types.DeriveSha(result.Receipts, trie.NewStackTrie(nil))
	header.Bloom = types.ReceiptsBloom(result.Receipts)
	header.GasUsed = result.GasUsed
	header.Nonce = types.BlockNonce{}

	body := &types.Body{Transactions: env.txs}
	if env.withdrawals != nil {
		hash := types.DeriveSha(env.withdrawals, trie.NewStackTrie(nil))
		header.WithdrawalsHash = &hash
		body.Withdrawals = env.withdrawals
	}
	if header.BlobGasUsed != nil {
		used := result.BlobGasUsed
		header.BlobGasUsed = &used
	}
	if result.Requests != nil {
		hash := result.Requests.Hash()
		header.RequestsHash = &hash
	}
	return &BuiltPayload{
		ID:       args.Id(),
		Block:    types.NewBlock(header, body),
		Fees:     new(uint256.Int).Set(env.fees),
		Receipts: result.Receipts,
		Requests: result.Requests,
		Sidecars: env.sidecars,
	}, nil
}

func invalidTxReason(err error) string {
	var invalid *vm.InvalidTxError
	if errors.As(err, &invalid) {
		return invalid.Reason()
	}
	return "invalid"
}

// calcGasLimit computes the gas limit of the next block after parent. It aims
// to keep the baseline gas close to the provided target, and increase it towards
// the target if the baseline gas is lower.
func calcGasLimit(parentGasLimit, desiredLimit uint64) uint64 {
	delta := parentGasLimit/params.GasLimitBoundDivisor - 1
	limit := parentGasLimit
	if desiredLimit < params.MinGasLimit {
		desiredLimit = params.MinGasLimit
	}
	// If we're outside our allowed gas range, we try to hone towards them
	if limit < desiredLimit {
		limit = parentGasLimit + delta
		if limit > desiredLimit {
			limit = desiredLimit
		}
		return limit
	}
	if limit > desiredLimit {
		limit = parentGasLimit - delta
		if limit < desiredLimit {
			limit = desiredLimit
		}
	}
	return limit
}
