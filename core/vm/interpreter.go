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

package vm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Status is the outcome class of an executed frame.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusRevert
	StatusHalt
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRevert:
		return "revert"
	case StatusHalt:
		return "halt"
	}
	return "unknown"
}

// Frame is the top-level call frame handed to the interpreter.
type Frame struct {
	Caller   common.Address
	Address  common.Address // account whose code is executed, the new contract on create
	Code     []byte
	Input    []byte
	Value    *uint256.Int
	Gas      uint64
	IsCreate bool
}

// FrameResult is what the interpreter reports back for a frame.
type FrameResult struct {
	Status  Status
	Output  []byte
	GasLeft uint64

	// GasRefund is the accumulated refund counter. Only honoured on success.
	GasRefund int64

	// HaltReason explains a StatusHalt result.
	HaltReason error
}

// Interpreter executes EVM bytecode. Nested calls, precompiles and the
// instruction set are its responsibility; it accesses state through
// evm.Journal() and emits logs there.
//
// A non-nil error aborts the whole transaction and is reserved for failures
// outside consensus rules, such as database errors.
type Interpreter interface {
	Run(evm *EVM, frame *Frame) (FrameResult, error)
}
