// Copyright 2014 The go-ethereum Authors
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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gnosischain/gnosis-engine/core/vm"
)

var (
	// ErrMissingWithdrawals is returned if a block past Shanghai carries no
	// withdrawals field.
	ErrMissingWithdrawals = errors.New("block has no withdrawals field")

	// ErrMissingDepositContract is returned when the chain specification
	// has no deposit contract, which the finishing calls require.
	ErrMissingDepositContract = errors.New("deposit contract address is not set in the chain specification")

	// ErrExecutorFinished is returned when a finished block executor is used
	// again.
	ErrExecutorFinished = errors.New("block executor already finished")

	// ErrMissingParentBeaconRoot is returned if a Cancun block has no parent
	// beacon block root.
	ErrMissingParentBeaconRoot = errors.New("parent beacon block root missing")

	// ErrGenesisBeaconRootNotZero is returned if the genesis block carries a
	// non-zero parent beacon block root.
	ErrGenesisBeaconRootNotZero = errors.New("cancun genesis block parent beacon block root is not zero")

	// ErrSystemContractNotDeployed is returned when a request contract has no
	// code.
	ErrSystemContractNotDeployed = errors.New("system contract not deployed")

	// ErrParentMismatch is returned when the parent header handed to the
	// processor is not the parent of the block.
	ErrParentMismatch = errors.New("parent header does not match block")

	// ErrGasUsedMismatch is returned when the gas used by the transactions
	// differs from the header.
	ErrGasUsedMismatch = errors.New("invalid gas used")

	// ErrBlobGasUsedMismatch is returned when the blob gas used by the
	// transactions differs from the header.
	ErrBlobGasUsedMismatch = errors.New("invalid blob gas used")

	// ErrBlacklistedTransaction is returned for transactions sent from, to or
	// delegating through a blacklisted address.
	ErrBlacklistedTransaction = errors.New("transaction touches a blacklisted address")
)

// GasLimitError is returned when a transaction's gas limit exceeds the gas
// still available in the block.
type GasLimitError struct {
	TxGas     uint64
	Available uint64
}

func (e *GasLimitError) Error() string {
	return fmt.Sprintf("transaction gas limit %d is more than block available gas %d", e.TxGas, e.Available)
}

// SystemCallError reports a system call that did not succeed. Err is set when
// the call could not be executed at all; otherwise Status tells whether the
// contract reverted (with Output) or halted (with Err as the halt reason).
type SystemCallError struct {
	Name     string
	Contract common.Address
	Status   vm.Status
	Output   []byte
	Err      error
}

func (e *SystemCallError) Error() string {
	switch e.Status {
	case vm.StatusRevert:
		return fmt.Sprintf("%s system call revert %#x", e.Name, e.Output)
	case vm.StatusHalt:
		return fmt.Sprintf("%s system call halt %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s system call error: %v", e.Name, e.Err)
}

func (e *SystemCallError) Unwrap() error { return e.Err }
