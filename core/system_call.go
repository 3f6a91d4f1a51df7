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
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/core/vm"
	"github.com/gnosischain/gnosis-engine/params"
)

var systemCallTimer = metrics.NewRegisteredTimer("chain/systemcalls", nil)

// SystemCaller executes consensus system calls against a block's state and
// commits their effects.
type SystemCaller struct {
	spec *params.ChainSpec
	db   *state.StateDB
	log  log.Logger
}

// NewSystemCaller creates a system caller committing into db.
func NewSystemCaller(spec *params.ChainSpec, db *state.StateDB) *SystemCaller {
	return &SystemCaller{spec: spec, db: db, log: log.Root()}
}

// transact runs a call from the system address to contract. The block gas
// limit and base fee are lifted for the duration of the call and restored
// afterwards; the returned diff is left untouched.
func (c *SystemCaller) transact(evm *vm.EVM, contract common.Address, data []byte) (*vm.ResultAndState, error) {
	defer systemCallTimer.UpdateSince(time.Now())

	msg := &vm.Message{
		Type:            types.LegacyTxType,
		From:            params.SystemAddress,
		To:              &contract,
		Value:           new(uint256.Int),
		GasLimit:        params.SystemCallGasLimit,
		GasPrice:        new(uint256.Int),
		Data:            data,
		SkipNonceChecks: true,
	}
	gasLimit, baseFee := evm.Context.GasLimit, evm.Context.BaseFee
	evm.Context.GasLimit, evm.Context.BaseFee = params.SystemCallGasLimit, new(uint256.Int)
	defer func() {
		evm.Context.GasLimit, evm.Context.BaseFee = gasLimit, baseFee
	}()

	res, err := evm.Transact(msg)
	if err != nil {
		return nil, err
	}
	c.log.Debug("System call executed", "contract", contract, "status", res.Result.Status, "gas", res.Result.GasUsed)
	return res, nil
}

// Call executes a system call and strips the system address and the block
// beneficiary from the resulting diff. The diff is not committed.
func (c *SystemCaller) Call(evm *vm.EVM, contract common.Address, data []byte) (*vm.ResultAndState, error) {
	res, err := c.transact(evm, contract, data)
	if err != nil {
		return nil, err
	}
	delete(res.State, params.SystemAddress)
	delete(res.State, evm.Context.Coinbase)
	return res, nil
}

// ApplyBeaconRootContractCall stores the parent beacon block root in the
// EIP-4788 contract. It is a no-op before Cancun and for the genesis block.
func (c *SystemCaller) ApplyBeaconRootContractCall(evm *vm.EVM, root *common.Hash) error {
	if !c.spec.IsCancun(evm.Context.Time) {
		return nil
	}
	if root == nil {
		return ErrMissingParentBeaconRoot
	}
	if evm.Context.Number == 0 {
		if *root != (common.Hash{}) {
			return ErrGenesisBeaconRootNotZero
		}
		return nil
	}
	res, err := c.Call(evm, params.BeaconRootsAddress, root.Bytes())
	if err != nil {
		return &SystemCallError{Name: "beacon roots contract", Contract: params.BeaconRootsAddress, Err: err}
	}
	c.db.Commit(res.State)
	return nil
}

// ApplyBlockHashesContractCall stores the parent hash in the EIP-2935
// history contract. It is a no-op before Prague and for the genesis block.
func (c *SystemCaller) ApplyBlockHashesContractCall(evm *vm.EVM, parentHash common.Hash) error {
	if !c.spec.IsPrague(evm.Context.Time) || evm.Context.Number == 0 {
		return nil
	}
	res, err := c.Call(evm, params.HistoryStorageAddress, parentHash.Bytes())
	if err != nil {
		return &SystemCallError{Name: "block hashes contract", Contract: params.HistoryStorageAddress, Err: err}
	}
	c.db.Commit(res.State)
	return nil
}

// ApplyWithdrawalRequestsContractCall dequeues the EIP-7002 withdrawal
// requests and returns their concatenated encoding.
func (c *SystemCaller) ApplyWithdrawalRequestsContractCall(evm *vm.EVM) ([]byte, error) {
	return c.requestsCall(evm, "withdrawal requests contract", params.WithdrawalQueueAddress)
}

// ApplyConsolidationRequestsContractCall dequeues the EIP-7251
// consolidation requests and returns their concatenated encoding.
func (c *SystemCaller) ApplyConsolidationRequestsContractCall(evm *vm.EVM) ([]byte, error) {
	return c.requestsCall(evm, "consolidation requests contract", params.ConsolidationQueueAddress)
}

func (c *SystemCaller) requestsCall(evm *vm.EVM, name string, contract common.Address) ([]byte, error) {
	if len(c.db.GetCode(contract)) == 0 {
		return nil, &SystemCallError{Name: name, Contract: contract, Err: ErrSystemContractNotDeployed}
	}
	res, err := c.Call(evm, contract, nil)
	if err != nil {
		return nil, &SystemCallError{Name: name, Contract: contract, Err: err}
	}
	if res.Result.Failed() {
		return nil, &SystemCallError{Name: name, Contract: contract, Status: res.Result.Status, Output: res.Result.Output, Err: res.Result.HaltReason}
	}
	c.db.Commit(res.State)
	return res.Result.Output, nil
}
