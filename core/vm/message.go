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

	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/params"
)

// Message is a fully derived transaction and contains all the data needed to
// execute it.
type Message struct {
	Type          uint8
	From          common.Address
	To            *common.Address
	Nonce         uint64
	Value         *uint256.Int
	GasLimit      uint64
	GasPrice      *uint256.Int
	GasFeeCap     *uint256.Int
	GasTipCap     *uint256.Int
	Data          []byte
	AccessList    types.AccessList
	BlobGasFeeCap *uint256.Int
	BlobHashes    []common.Hash

	SetCodeAuthorizations []types.SetCodeAuthorization

	// When SkipNonceChecks is true, the message nonce is not checked against
	// the account nonce in state.
	SkipNonceChecks bool
}

// TransactionToMessage converts a transaction into a Message. The effective
// gas price is derived from the base fee when it is given.
func TransactionToMessage(tx *types.Transaction, sender common.Address, baseFee *uint256.Int) *Message {
	msg := &Message{
		Type:                  tx.Type(),
		From:                  sender,
		To:                    tx.To(),
		Nonce:                 tx.Nonce(),
		Value:                 uint256.MustFromBig(tx.Value()),
		GasLimit:              tx.Gas(),
		GasPrice:              uint256.MustFromBig(tx.GasPrice()),
		GasFeeCap:             uint256.MustFromBig(tx.GasFeeCap()),
		GasTipCap:             uint256.MustFromBig(tx.GasTipCap()),
		Data:                  tx.Data(),
		AccessList:            tx.AccessList(),
		BlobHashes:            tx.BlobHashes(),
		SetCodeAuthorizations: tx.SetCodeAuthorizations(),
	}
	if tx.Type() == types.BlobTxType {
		msg.BlobGasFeeCap = uint256.MustFromBig(tx.BlobGasFeeCap())
	}
	// If baseFee provided, set gasPrice to effectiveGasPrice.
	if baseFee != nil {
		msg.GasPrice = EffectiveGasPrice(msg.GasFeeCap, msg.GasTipCap, baseFee)
	}
	return msg
}

// EffectiveGasPrice returns min(feeCap, baseFee + tipCap).
func EffectiveGasPrice(feeCap, tipCap, baseFee *uint256.Int) *uint256.Int {
	price := new(uint256.Int).Add(tipCap, baseFee)
	if price.Gt(feeCap) {
		price.Set(feeCap)
	}
	return price
}

// BlobGas returns the blob gas the message consumes.
func (m *Message) BlobGas() uint64 {
	return uint64(len(m.BlobHashes)) * params.BlobTxBlobGasPerBlob
}

// IsCreate reports whether the message deploys a contract.
func (m *Message) IsCreate() bool { return m.To == nil }
