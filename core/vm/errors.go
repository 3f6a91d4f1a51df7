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
	"errors"
	"fmt"
)

// List of consensus errors a transaction can be rejected with before it is
// executed. They are always wrapped in an InvalidTxError.
var (
	ErrNonceTooLow             = errors.New("nonce too low")
	ErrNonceTooHigh            = errors.New("nonce too high")
	ErrNonceMax                = errors.New("nonce has max value")
	ErrInsufficientFunds       = errors.New("insufficient funds for gas * price + value")
	ErrIntrinsicGas            = errors.New("intrinsic gas too low")
	ErrFloorDataGas            = errors.New("insufficient gas for floor data gas cost")
	ErrGasLimitTooHigh         = errors.New("transaction gas limit exceeds block gas limit")
	ErrGasUintOverflow         = errors.New("gas uint64 overflow")
	ErrFeeCapTooLow            = errors.New("max fee per gas less than block base fee")
	ErrTipAboveFeeCap          = errors.New("max priority fee per gas higher than max fee per gas")
	ErrSenderNoEOA             = errors.New("sender not an eoa")
	ErrTxTypeNotSupported      = errors.New("transaction type not supported")
	ErrMaxInitCodeSizeExceeded = errors.New("max initcode size exceeded")
	ErrBlobTxCreate            = errors.New("blob transaction of type create")
	ErrMissingBlobHashes       = errors.New("blob transaction missing blob hashes")
	ErrTooManyBlobs            = errors.New("blob transaction has too many blobs")
	ErrInvalidBlobVersion      = errors.New("blob hash has invalid version")
	ErrBlobFeeCapTooLow        = errors.New("max fee per blob gas less than block blob gas fee")
	ErrSetCodeTxCreate         = errors.New("set code transaction of type create")
	ErrEmptyAuthList           = errors.New("set code transaction with empty auth list")
)

// List of halt reasons returned by execution.
var (
	ErrOutOfGas                 = errors.New("out of gas")
	ErrCodeStoreOutOfGas        = errors.New("contract creation code storage out of gas")
	ErrDepth                    = errors.New("max call depth exceeded")
	ErrInsufficientBalance      = errors.New("insufficient balance for transfer")
	ErrContractAddressCollision = errors.New("contract address collision")
	ErrExecutionReverted        = errors.New("execution reverted")
	ErrMaxCodeSizeExceeded      = errors.New("max code size exceeded")
	ErrInvalidCode              = errors.New("invalid code: must not begin with 0xef")
)

// InvalidTxError is returned when a transaction is invalid against the block
// or the state it executes on. Such a transaction cannot be included in the
// block; no state was modified.
type InvalidTxError struct {
	Err error
}

func (e *InvalidTxError) Error() string { return e.Err.Error() }
func (e *InvalidTxError) Unwrap() error { return e.Err }

// Reason returns a short, stable label for the rejection, suitable for
// metrics.
func (e *InvalidTxError) Reason() string {
	switch {
	case errors.Is(e.Err, ErrNonceTooLow):
		return "nonce_too_low"
	case errors.Is(e.Err, ErrNonceTooHigh), errors.Is(e.Err, ErrNonceMax):
		return "nonce"
	case errors.Is(e.Err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(e.Err, ErrIntrinsicGas), errors.Is(e.Err, ErrFloorDataGas), errors.Is(e.Err, ErrGasLimitTooHigh):
		return "gas"
	case errors.Is(e.Err, ErrFeeCapTooLow), errors.Is(e.Err, ErrTipAboveFeeCap), errors.Is(e.Err, ErrBlobFeeCapTooLow):
		return "fee"
	}
	return "invalid"
}

func invalidTx(err error, format string, args ...any) error {
	if format == "" {
		return &InvalidTxError{Err: err}
	}
	return &InvalidTxError{Err: fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))}
}

// IsInvalidTx reports whether err rejects a transaction rather than the
// block or the node.
func IsInvalidTx(err error) bool {
	var invalid *InvalidTxError
	return errors.As(err, &invalid)
}
