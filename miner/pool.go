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

package miner

//go:generate mockgen -source pool.go -destination mock_pool.go -package miner

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/core/types"
)

// PoolTransaction is a pooled transaction with its recovered sender.
type PoolTransaction struct {
	Tx     *types.Transaction
	Sender common.Address
}

// PendingFilter restricts the transactions handed to the builder to those
// able to pay the fees of the block being built. Nil fields do not filter.
type PendingFilter struct {
	BaseFee *uint256.Int
	BlobFee *uint256.Int
}

// BestTransactions yields pooled transactions in inclusion order. A
// transaction of a sender is only yielded after every lower nonce of that
// sender was yielded.
type BestTransactions interface {
	// Next returns the next transaction, or nil when the iterator is
	// exhausted.
	Next() *PoolTransaction

	// MarkInvalid drops tx and every later transaction of the same sender
	// from the rest of the iteration.
	MarkInvalid(tx *PoolTransaction, err error)

	// SkipBlobTransactions stops yielding blob transactions.
	SkipBlobTransactions()
}

// TxPool is the transaction source of the payload builder.
type TxPool interface {
	Pending(filter PendingFilter) BestTransactions
}
