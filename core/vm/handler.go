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

package vm

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TxExecution is the per-transaction context shared by the handler steps.
type TxExecution struct {
	EVM     *EVM
	Msg     *Message
	Journal *Journal

	// GasPrice is the effective price per unit of gas.
	GasPrice *uint256.Int

	// GasSpent is the gas consumed before refunds, GasRefunded the refund
	// granted on top. Both are final once the frame has run.
	GasSpent    uint64
	GasRefunded uint64
}

// GasUsed is the gas the sender pays for.
func (tx *TxExecution) GasUsed() uint64 { return tx.GasSpent - tx.GasRefunded }

// BlobGas is the blob gas of the transaction.
func (tx *TxExecution) BlobGas() uint64 { return tx.Msg.BlobGas() }

// Handler is the replaceable part of the transaction pipeline wrapped around
// the interpreter.
type Handler interface {
	// ValidateAgainstState checks the sender against state and deducts the
	// maximum fee up front.
	ValidateAgainstState(tx *TxExecution) error

	// ReimburseCaller returns unused and refunded gas to the sender.
	ReimburseCaller(tx *TxExecution) error

	// RewardBeneficiary pays the priority fee to the block beneficiary.
	RewardBeneficiary(tx *TxExecution) error
}

// delegationPrefix is used by code to denote the account is delegating to
// another account.
var delegationPrefix = []byte{0xef, 0x01, 0x00}

// ParseDelegation tries to parse the address from a delegation slice.
func ParseDelegation(b []byte) (common.Address, bool) {
	if len(b) != 23 || !bytes.HasPrefix(b, delegationPrefix) {
		return common.Address{}, false
	}
	return common.BytesToAddress(b[len(delegationPrefix):]), true
}

// AddressToDelegation adds the delegation prefix to the specified address.
func AddressToDelegation(addr common.Address) []byte {
	return append(common.CopyBytes(delegationPrefix), addr.Bytes()...)
}

type standardHandler struct{}

// StandardHandler returns the Ethereum fee handling.
func StandardHandler() Handler { return standardHandler{} }

func (standardHandler) ValidateAgainstState(tx *TxExecution) error {
	var (
		msg     = tx.Msg
		rules   = tx.EVM.Rules()
		journal = tx.Journal
	)
	caller, err := journal.Account(msg.From)
	if err != nil {
		return err
	}
	// Make sure the sender is an EOA. Delegated accounts are still allowed.
	if caller.HasCode() {
		if _, delegated := ParseDelegation(caller.Code); !delegated || !rules.IsPrague() {
			return invalidTx(ErrSenderNoEOA, "address %v, codehash: %s", msg.From.Hex(), caller.CodeHash)
		}
	}
	if !msg.SkipNonceChecks {
		if stNonce := caller.Nonce; stNonce < msg.Nonce {
			return invalidTx(ErrNonceTooHigh, "address %v, tx: %d state: %d", msg.From.Hex(), msg.Nonce, stNonce)
		} else if stNonce > msg.Nonce {
			return invalidTx(ErrNonceTooLow, "address %v, tx: %d state: %d", msg.From.Hex(), msg.Nonce, stNonce)
		} else if stNonce+1 < stNonce {
			return invalidTx(ErrNonceMax, "address %v, nonce: %d", msg.From.Hex(), stNonce)
		}
	}
	// The balance must cover the worst case: gas limit at the fee cap, the
	// value and the blob gas at the blob fee cap.
	feeCap := msg.GasFeeCap
	if feeCap == nil {
		feeCap = msg.GasPrice
	}
	balanceCheck := new(uint256.Int).Mul(uint256.NewInt(msg.GasLimit), feeCap)
	balanceCheck.Add(balanceCheck, msg.Value)
	if blobGas := msg.BlobGas(); blobGas > 0 && msg.BlobGasFeeCap != nil {
		balanceCheck.Add(balanceCheck, new(uint256.Int).Mul(uint256.NewInt(blobGas), msg.BlobGasFeeCap))
	}
	if have := caller.Balance; have.Lt(balanceCheck) {
		return invalidTx(ErrInsufficientFunds, "address %v have %v want %v", msg.From.Hex(), have, balanceCheck)
	}
	// Deduct the gas and blob gas at the prices actually charged.
	fee := new(uint256.Int).Mul(uint256.NewInt(msg.GasLimit), tx.GasPrice)
	if blobGas := msg.BlobGas(); blobGas > 0 {
		fee.Add(fee, new(uint256.Int).Mul(uint256.NewInt(blobGas), tx.EVM.Context.BlobBaseFee))
	}
	if err := journal.SubBalance(msg.From, fee); err != nil {
		return fmt.Errorf("fee deduction: %w", err)
	}
	return journal.SetNonce(msg.From, caller.Nonce+1)
}

func (standardHandler) ReimburseCaller(tx *TxExecution) error {
	remaining := tx.Msg.GasLimit - tx.GasSpent + tx.GasRefunded
	refund := new(uint256.Int).Mul(uint256.NewInt(remaining), tx.GasPrice)
	return tx.Journal.AddBalance(tx.Msg.From, refund)
}

func (standardHandler) RewardBeneficiary(tx *TxExecution) error {
	tip := new(uint256.Int).Set(tx.GasPrice)
	if tx.EVM.Rules().IsLondon() {
		tip.Sub(tip, tx.EVM.Context.BaseFee)
	}
	reward := tip.Mul(tip, uint256.NewInt(tx.GasUsed()))
	return tx.Journal.AddBalance(tx.EVM.Context.Coinbase, reward)
}

// feeRedirectHandler mints the base fee into a collector instead of burning
// it, and from Prague on does the same for the blob fee.
type feeRedirectHandler struct {
	Handler
	collector common.Address
}

// FeeRedirectHandler wraps base so the fees it burns are credited to
// collector. Each hook runs once per transaction, after the wrapped step.
func FeeRedirectHandler(base Handler, collector common.Address) Handler {
	return &feeRedirectHandler{Handler: base, collector: collector}
}

func (h *feeRedirectHandler) ValidateAgainstState(tx *TxExecution) error {
	if err := h.Handler.ValidateAgainstState(tx); err != nil {
		return err
	}
	if !tx.EVM.Rules().IsPrague() {
		return nil
	}
	blobFee := new(uint256.Int).Mul(uint256.NewInt(tx.BlobGas()), tx.EVM.Context.BlobBaseFee)
	return tx.Journal.AddBalance(h.collector, blobFee)
}

func (h *feeRedirectHandler) RewardBeneficiary(tx *TxExecution) error {
	if err := h.Handler.RewardBeneficiary(tx); err != nil {
		return err
	}
	if !tx.EVM.Rules().IsLondon() {
		return nil
	}
	burned := new(uint256.Int).Mul(tx.EVM.Context.BaseFee, uint256.NewInt(tx.GasUsed()))
	return tx.Journal.AddBalance(h.collector, burned)
}
