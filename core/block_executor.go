// Copyright 2024 The go-ethereum Authors
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
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/consensus/misc"
	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/core/vm"
	"github.com/gnosischain/gnosis-engine/params"
)

// ExecutionContext carries the facts about a block that are not part of its
// header but are needed to execute it.
type ExecutionContext struct {
	ParentHash       common.Hash
	ParentBeaconRoot *common.Hash
	ParentTimestamp  uint64

	// Withdrawals of the block; nil when the block has no withdrawals field.
	Withdrawals types.Withdrawals

	// GetHash resolves historical block hashes for the BLOCKHASH opcode.
	GetHash vm.GetHashFunc

	// Parent is the parent header if known. StateProcessor checks the fee
	// fields of the block against it.
	Parent *types.Header
}

// BlockResult is the output of executing all transactions of a block.
type BlockResult struct {
	Receipts    types.Receipts
	Requests    types.Requests // nil before Prague
	GasUsed     uint64
	BlobGasUsed uint64
}

// BlockExecutor executes one block: pre-execution system calls, then the
// transactions one by one, then the finishing calls. It is single use.
type BlockExecutor struct {
	spec   *params.ChainSpec
	db     *state.StateDB
	header *types.Header
	ctx    ExecutionContext
	evm    *vm.EVM
	system *SystemCaller

	receipts    types.Receipts
	gasUsed     uint64
	blobGasUsed uint64
	logIndex    uint
	finished    bool
}

// NewBlockExecutor creates an executor for header on top of db.
func NewBlockExecutor(spec *params.ChainSpec, db *state.StateDB, header *types.Header, ctx ExecutionContext, interpreter vm.Interpreter) *BlockExecutor {
	blockCtx := NewEVMBlockContext(header, spec, ctx.GetHash)
	return &BlockExecutor{
		spec:   spec,
		db:     db,
		header: header,
		ctx:    ctx,
		evm:    NewEVM(spec, blockCtx, db, interpreter),
		system: NewSystemCaller(spec, db),
	}
}

// EVM returns the EVM transactions are executed with.
func (e *BlockExecutor) EVM() *vm.EVM { return e.evm }

// GasUsed returns the gas used by the transactions executed so far.
func (e *BlockExecutor) GasUsed() uint64 { return e.gasUsed }

// BlobGasUsed returns the blob gas used by the transactions executed so far.
func (e *BlockExecutor) BlobGasUsed() uint64 { return e.blobGasUsed }

// Receipts returns the receipts of the transactions executed so far.
func (e *BlockExecutor) Receipts() types.Receipts { return e.receipts }

// ApplyPreExecutionChanges runs the EIP-2935 and EIP-4788 system calls and
// the bytecode hot-patch.
func (e *BlockExecutor) ApplyPreExecutionChanges() error {
	if e.finished {
		return ErrExecutorFinished
	}
	e.db.SetStateClearFlag(e.spec.IsSpuriousDragon(e.header.Number))

	if err := e.system.ApplyBlockHashesContractCall(e.evm, e.ctx.ParentHash); err != nil {
		return err
	}
	if err := e.system.ApplyBeaconRootContractCall(e.evm, e.ctx.ParentBeaconRoot); err != nil {
		return err
	}
	if n := misc.ApplyHotPatch(e.spec.HotPatch(), e.ctx.ParentTimestamp, e.header.Time, e.db); n > 0 {
		log.Info("Applied bytecode hot-patch", "number", e.header.Number, "accounts", n)
	}
	return e.db.Error()
}

// ExecuteTransaction executes tx sent by sender and commits its state
// changes. Consensus-invalid transactions return a *vm.InvalidTxError and
// leave the state untouched.
func (e *BlockExecutor) ExecuteTransaction(tx *types.Transaction, sender common.Address) (*types.Receipt, error) {
	if e.finished {
		return nil, ErrExecutorFinished
	}
	available := e.header.GasLimit - e.gasUsed
	if tx.Gas() > available {
		return nil, &GasLimitError{TxGas: tx.Gas(), Available: available}
	}
	var baseFee *uint256.Int
	if e.header.BaseFee != nil {
		baseFee = e.evm.Context.BaseFee
	}
	msg := vm.TransactionToMessage(tx, sender, baseFee)
	res, err := e.evm.Transact(msg)
	if err != nil {
		return nil, err
	}
	e.db.Commit(res.State)
	if err := e.db.Error(); err != nil {
		return nil, err
	}
	e.gasUsed += res.Result.GasUsed
	e.blobGasUsed += msg.BlobGas()

	receipt := e.makeReceipt(tx, msg, res.Result)
	e.receipts = append(e.receipts, receipt)
	return receipt, nil
}

func (e *BlockExecutor) makeReceipt(tx *types.Transaction, msg *vm.Message, result *vm.ExecutionResult) *types.Receipt {
	receipt := &types.Receipt{
		Type:              tx.Type(),
		CumulativeGasUsed: e.gasUsed,
		TxHash:            tx.Hash(),
		GasUsed:           result.GasUsed,
		BlockNumber:       new(big.Int).SetUint64(e.header.Number),
		TransactionIndex:  uint(len(e.receipts)),
	}
	if result.Failed() {
		receipt.Status = types.ReceiptStatusFailed
	} else {
		receipt.Status = types.ReceiptStatusSuccessful
	}
	if tx.Type() == types.BlobTxType {
		receipt.BlobGasUsed = msg.BlobGas()
		receipt.BlobGasPrice = e.evm.Context.BlobBaseFee.ToBig()
	}
	if result.ContractAddress != nil {
		receipt.ContractAddress = *result.ContractAddress
	}
	receipt.Logs = make([]*types.Log, 0, len(result.Logs))
	for _, l := range result.Logs {
		l.TxHash = receipt.TxHash
		l.TxIndex = receipt.TransactionIndex
		l.BlockNumber = e.header.Number
		l.Index = e.logIndex
		e.logIndex++
		receipt.Logs = append(receipt.Logs, l)
	}
	receipt.Bloom = types.LogsBloom(receipt.Logs)
	return receipt
}

// Finish collects the EIP-7685 requests, runs the withdrawals and block
// rewards calls and mints the rewards. The executor cannot be used
// afterwards.
func (e *BlockExecutor) Finish() (*BlockResult, error) {
	if e.finished {
		return nil, ErrExecutorFinished
	}
	e.finished = true

	deposit, ok := e.spec.DepositContract()
	if !ok {
		return nil, ErrMissingDepositContract
	}
	var requests types.Requests
	if e.spec.IsPrague(e.header.Time) {
		requests = types.Requests{}
		deposits, err := types.ParseDepositRequests(e.receipts, deposit)
		if err != nil {
			return nil, fmt.Errorf("failed to parse deposit logs: %w", err)
		}
		if len(deposits) > 0 {
			requests = append(requests, types.NewRequest(types.DepositRequestType, deposits))
		}
		withdrawals, err := e.system.ApplyWithdrawalRequestsContractCall(e.evm)
		if err != nil {
			return nil, fmt.Errorf("failed to process withdrawal queue: %w", err)
		}
		if len(withdrawals) > 0 {
			requests = append(requests, types.NewRequest(types.WithdrawalRequestType, withdrawals))
		}
		consolidations, err := e.system.ApplyConsolidationRequestsContractCall(e.evm)
		if err != nil {
			return nil, fmt.Errorf("failed to process consolidation queue: %w", err)
		}
		if len(consolidations) > 0 {
			requests = append(requests, types.NewRequest(types.ConsolidationRequestType, consolidations))
		}
	}

	increments, err := e.system.ApplyPostBlockCalls(e.evm, e.ctx.Withdrawals, e.ctx.Withdrawals != nil)
	if err != nil {
		return nil, err
	}
	if err := e.db.IncrementBalances(increments); err != nil {
		return nil, err
	}
	if err := e.db.Error(); err != nil {
		return nil, err
	}
	return &BlockResult{
		Receipts:    e.receipts,
		Requests:    requests,
		GasUsed:     e.gasUsed,
		BlobGasUsed: e.blobGasUsed,
	}, nil
}
