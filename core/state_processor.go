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

package core

import (
	"fmt"
	"runtime"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/zircuit-labs/zkr-go-common/xerrors/stacktrace"
	"golang.org/x/sync/errgroup"

	"github.com/gnosischain/gnosis-engine/consensus/misc"
	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/core/vm"
	"github.com/gnosischain/gnosis-engine/internal/enginelog"
	"github.com/gnosischain/gnosis-engine/params"
)

var (
	blockExecutionTimer = metrics.NewRegisteredTimer("chain/execution", nil)
	blockTxsCounter     = metrics.NewRegisteredCounter("chain/txs", nil)
)

// StateProcessor is a basic Processor, which takes care of transitioning
// state from one point to another.
type StateProcessor struct {
	spec        *params.ChainSpec
	interpreter vm.Interpreter
	filter      *TxFilter
	log         log.Logger
}

// NewStateProcessor initialises a new StateProcessor. A nil filter disables
// the transaction blacklist.
func NewStateProcessor(spec *params.ChainSpec, interpreter vm.Interpreter, filter *TxFilter) *StateProcessor {
	return &StateProcessor{
		spec:        spec,
		interpreter: interpreter,
		filter:      filter,
		log:         enginelog.New("state_processor"),
	}
}

// Process processes the state changes according to the Gnosis rules by
// running the pre-block system calls, the transactions and the finishing
// calls against statedb.
//
// Process returns the receipts and requests accumulated during the process
// and the amount of gas that was used. If any of the transactions failed to
// execute, or the header's gas accounting does not match, it returns an
// error and statedb must be discarded.
func (p *StateProcessor) Process(block *types.Block, ctx ExecutionContext, statedb *state.StateDB) (*BlockResult, error) {
	var (
		start  = time.Now()
		header = block.Header()
		txs    = block.Transactions()
	)
	if err := header.VerifyForkFields(p.spec); err != nil {
		return nil, stacktrace.Wrap(err)
	}
	if ctx.Parent != nil {
		if err := p.verifyParentFields(ctx.Parent, header); err != nil {
			return nil, stacktrace.Wrap(err)
		}
		if ctx.ParentTimestamp == 0 {
			ctx.ParentTimestamp = ctx.Parent.Time
		}
	}
	if ctx.Withdrawals == nil {
		ctx.Withdrawals = block.Withdrawals()
	}
	if ctx.ParentBeaconRoot == nil {
		ctx.ParentBeaconRoot = header.ParentBeaconRoot
	}
	if ctx.ParentHash == (common.Hash{}) {
		ctx.ParentHash = header.ParentHash
	}

	senders, err := p.recoverSenders(txs)
	if err != nil {
		return nil, stacktrace.Wrap(err)
	}
	for i, tx := range txs {
		if err := p.filter.Check(header.Time, tx, senders[i]); err != nil {
			return nil, stacktrace.Wrap(fmt.Errorf("could not apply tx %d [%v]: %w", i, tx.Hash().Hex(), err))
		}
	}

	executor := NewBlockExecutor(p.spec, statedb, header, ctx, p.interpreter)
	if err := executor.ApplyPreExecutionChanges(); err != nil {
		return nil, stacktrace.Wrap(err)
	}
	for i, tx := range txs {
		if _, err := executor.ExecuteTransaction(tx, senders[i]); err != nil {
			return nil, stacktrace.Wrap(fmt.Errorf("could not apply tx %d [%v]: %w", i, tx.Hash().Hex(), err))
		}
	}
	result, err := executor.Finish()
	if err != nil {
		return nil, stacktrace.Wrap(err)
	}

	if result.GasUsed != header.GasUsed {
		return nil, stacktrace.Wrap(fmt.Errorf("%w (remote: %d local: %d)", ErrGasUsedMismatch, header.GasUsed, result.GasUsed))
	}
	if header.BlobGasUsed != nil && *header.BlobGasUsed != result.BlobGasUsed {
		return nil, stacktrace.Wrap(fmt.Errorf("%w (remote: %d local: %d)", ErrBlobGasUsedMismatch, *header.BlobGasUsed, result.BlobGasUsed))
	}
	if header.RequestsHash != nil {
		if local := result.Requests.Hash(); local != *header.RequestsHash {
			return nil, stacktrace.Wrap(fmt.Errorf("invalid requests hash (remote: %x local: %x)", *header.RequestsHash, local))
		}
	}

	blockExecutionTimer.UpdateSince(start)
	blockTxsCounter.Inc(int64(len(txs)))
	p.log.Debug("Processed block", "number", header.Number, "hash", block.Hash(), "txs", len(txs),
		"gas", result.GasUsed, "elapsed", common.PrettyDuration(time.Since(start)))
	return result, nil
}

// verifyParentFields checks the fields of header that derive from its parent.
func (p *StateProcessor) verifyParentFields(parent, header *types.Header) error {
	if hash := parent.Hash(); hash != header.ParentHash {
		return fmt.Errorf("%w: have %x, parent %x", ErrParentMismatch, header.ParentHash, hash)
	}
	if p.spec.IsLondon(header.Number) {
		if err := misc.VerifyEIP1559Header(p.spec, parent, header); err != nil {
			return err
		}
	}
	if p.spec.IsCancun(header.Time) {
		if err := misc.VerifyEIP4844Header(p.spec, parent, header); err != nil {
			return err
		}
	}
	return nil
}

// recoverSenders derives the sender of every transaction in parallel.
func (p *StateProcessor) recoverSenders(txs types.Transactions) ([]common.Address, error) {
	var (
		signer  = types.LatestSignerForChainID(p.spec.ChainID())
		senders = make([]common.Address, len(txs))
		g       errgroup.Group
	)
	g.SetLimit(runtime.NumCPU())
	for i, tx := range txs {
		g.Go(func() error {
			sender, err := types.Sender(signer, tx)
			if err != nil {
				return fmt.Errorf("invalid transaction %d [%v]: %w", i, tx.Hash().Hex(), err)
			}
			senders[i] = sender
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return senders, nil
}
