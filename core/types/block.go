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

package types

import (
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// Body is a simple (mutable, non-safe) data container for storing and moving
// a block's data contents (transactions and withdrawals) together.
type Body struct {
	Transactions []*Transaction
	Withdrawals  []*Withdrawal `rlp:"optional"`
}

// Block represents a Gnosis block. Blocks carry no uncles after the merge
// and are treated as immutable once constructed.
type Block struct {
	header       *Header
	transactions Transactions
	withdrawals  Withdrawals
}

// NewBlock creates a new block from a header and body. The header is copied.
func NewBlock(header *Header, body *Body) *Block {
	b := &Block{header: header.Copy()}
	if body != nil {
		b.transactions = slices.Clone(body.Transactions)
		if body.Withdrawals != nil {
			b.withdrawals = slices.Clone(body.Withdrawals)
		}
	}
	return b
}

// NewBlockWithHeader creates a block with the given header data and an empty
// body.
func NewBlockWithHeader(header *Header) *Block {
	return &Block{header: header.Copy()}
}

func (b *Block) Header() *Header                { return b.header.Copy() }
func (b *Block) Transactions() Transactions     { return b.transactions }
func (b *Block) Withdrawals() Withdrawals       { return b.withdrawals }
func (b *Block) Body() *Body                    { return &Body{Transactions: b.transactions, Withdrawals: b.withdrawals} }
func (b *Block) Number() uint64                 { return b.header.Number }
func (b *Block) Time() uint64                   { return b.header.Time }
func (b *Block) GasLimit() uint64               { return b.header.GasLimit }
func (b *Block) GasUsed() uint64                { return b.header.GasUsed }
func (b *Block) Coinbase() common.Address       { return b.header.Coinbase }
func (b *Block) ParentHash() common.Hash        { return b.header.ParentHash }
func (b *Block) ParentBeaconRoot() *common.Hash { return b.header.ParentBeaconRoot }

// BaseFee returns a copy of the header base fee, or nil before London.
func (b *Block) BaseFee() *big.Int {
	if b.header.BaseFee == nil {
		return nil
	}
	return new(big.Int).Set(b.header.BaseFee)
}

// Hash returns the keccak256 hash of b's header.
func (b *Block) Hash() common.Hash {
	return b.header.Hash()
}

// LogsBloom folds the addresses and topics of logs into a bloom filter.
func LogsBloom(logs []*Log) Bloom {
	var bloom Bloom
	for _, l := range logs {
		bloom.Add(l.Address.Bytes())
		for _, topic := range l.Topics {
			bloom.Add(topic.Bytes())
		}
	}
	return bloom
}

// ReceiptsBloom merges the bloom filters of every receipt.
func ReceiptsBloom(receipts Receipts) Bloom {
	var bloom Bloom
	for _, r := range receipts {
		for i := range bloom {
			bloom[i] |= r.Bloom[i]
		}
	}
	return bloom
}
