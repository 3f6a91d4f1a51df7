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

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/params"
)

var (
	errFeeCapTooLow     = errors.New("max fee per gas less than block base fee")
	errBlobFeeCapTooLow = errors.New("max fee per blob gas less than block blob gas fee")
	errBlobsSkipped     = errors.New("blob transactions skipped")
)

// effectiveTip returns the tip tx pays per gas at baseFee, or an error if its
// fee cap does not cover baseFee. A nil baseFee yields the tip cap.
func effectiveTip(tx *types.Transaction, baseFee *uint256.Int) (*uint256.Int, error) {
	tipCap := uint256.MustFromBig(tx.GasTipCap())
	if baseFee == nil {
		return tipCap, nil
	}
	feeCap := uint256.MustFromBig(tx.GasFeeCap())
	if feeCap.Lt(baseFee) {
		return nil, errFeeCapTooLow
	}
	tip := new(uint256.Int).Sub(feeCap, baseFee)
	if tip.Gt(tipCap) {
		tip = tipCap
	}
	return tip, nil
}

// PendingPool is an in-memory transaction pool holding executable
// transactions per sender. It is the reference TxPool of the payload
// builder; admission rules beyond signature recovery are left to the caller.
type PendingPool struct {
	mu      sync.RWMutex
	signer  types.Signer
	senders map[common.Address]*sortedMap
}

// NewPendingPool creates an empty pool accepting transactions of spec's chain.
func NewPendingPool(spec *params.ChainSpec) *PendingPool {
	return &PendingPool{
		signer:  types.LatestSignerForChainID(spec.ChainID()),
		senders: make(map[common.Address]*sortedMap),
	}
}

// Add recovers the senders of txs and inserts them. A transaction replaces a
// pooled one with the same sender and nonce. The returned slice holds one
// error per transaction, nil for accepted ones.
func (p *PendingPool) Add(txs ...*types.Transaction) []error {
	errs := make([]error, len(txs))
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, tx := range txs {
		sender, err := types.Sender(p.signer, tx)
		if err != nil {
			errs[i] = fmt.Errorf("invalid sender: %w", err)
			continue
		}
		list := p.senders[sender]
		if list == nil {
			list = newSortedMap()
			p.senders[sender] = list
		}
		list.Put(&PoolTransaction{Tx: tx, Sender: sender})
	}
	return errs
}

// Forward drops the transactions of sender below nonce, typically after a
// block including them became canonical.
func (p *PendingPool) Forward(sender common.Address, nonce uint64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.senders[sender]
	if list == nil {
		return 0
	}
	removed := list.Forward(nonce)
	if list.Len() == 0 {
		delete(p.senders, sender)
	}
	return removed
}

// Remove deletes the transaction of sender with the given nonce.
func (p *PendingPool) Remove(sender common.Address, nonce uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.senders[sender]
	if list == nil || !list.Remove(nonce) {
		return false
	}
	if list.Len() == 0 {
		delete(p.senders, sender)
	}
	return true
}

// Len returns the number of pooled transactions.
func (p *PendingPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var n int
	for _, list := range p.senders {
		n += list.Len()
	}
	return n
}

// Pending returns an iterator over a snapshot of the pool. Per sender, the
// nonce-ordered run of transactions is cut at the first one not paying the
// filter's fees.
func (p *PendingPool) Pending(filter PendingFilter) BestTransactions {
	p.mu.RLock()
	defer p.mu.RUnlock()

	best := &bestTransactions{
		baseFee: filter.BaseFee,
		queues:  make(map[common.Address][]*PoolTransaction, len(p.senders)),
		invalid: make(map[common.Address]struct{}),
	}
	for sender, list := range p.senders {
		var run []*PoolTransaction
		for _, tx := range list.Flatten() {
			if err := checkFees(tx.Tx, filter); err != nil {
				log.Trace("Pending transaction below fee floor", "hash", tx.Tx.Hash(), "sender", sender, "err", err)
				break
			}
			run = append(run, tx)
		}
		if len(run) == 0 {
			continue
		}
		head, err := newTxWithMinerFee(run[0], filter.BaseFee)
		if err != nil {
			continue
		}
		best.heads = append(best.heads, head)
		best.queues[sender] = run[1:]
	}
	heap.Init(&best.heads)
	return best
}

func checkFees(tx *types.Transaction, filter PendingFilter) error {
	if _, err := effectiveTip(tx, filter.BaseFee); err != nil {
		return err
	}
	if tx.Type() == types.BlobTxType && filter.BlobFee != nil {
		if uint256.MustFromBig(tx.BlobGasFeeCap()).Lt(filter.BlobFee) {
			return errBlobFeeCapTooLow
		}
	}
	return nil
}

// txWithMinerFee wraps a transaction with its effective tip at the base fee
// of the block being built.
type txWithMinerFee struct {
	tx   *PoolTransaction
	fees *uint256.Int
}

func newTxWithMinerFee(tx *PoolTransaction, baseFee *uint256.Int) (*txWithMinerFee, error) {
	tip, err := effectiveTip(tx.Tx, baseFee)
	if err != nil {
		return nil, err
	}
	return &txWithMinerFee{tx: tx, fees: tip}, nil
}

// txByPriceAndTime implements both the sort and the heap interface, making it
// useful for all at once sorting as well as individually adding and removing
// elements.
type txByPriceAndTime []*txWithMinerFee

func (s txByPriceAndTime) Len() int { return len(s) }
func (s txByPriceAndTime) Less(i, j int) bool {
	// If the prices are equal, use the time the transaction was first seen for
	// deterministic sorting
	cmp := s[i].fees.Cmp(s[j].fees)
	if cmp == 0 {
		return s[i].tx.Tx.Time().Before(s[j].tx.Tx.Time())
	}
	return cmp > 0
}
func (s txByPriceAndTime) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s *txByPriceAndTime) Push(x any) {
	*s = append(*s, x.(*txWithMinerFee))
}

func (s *txByPriceAndTime) Pop() any {
	old := *s
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*s = old[0 : n-1]
	return x
}

// bestTransactions yields the transactions of a pool snapshot ordered by
// effective tip across senders and by nonce within a sender.
type bestTransactions struct {
	baseFee   *uint256.Int
	heads     txByPriceAndTime
	queues    map[common.Address][]*PoolTransaction
	invalid   map[common.Address]struct{}
	skipBlobs bool
}

func (b *bestTransactions) Next() *PoolTransaction {
	for b.heads.Len() > 0 {
		head := heap.Pop(&b.heads).(*txWithMinerFee)
		sender := head.tx.Sender
		if _, ok := b.invalid[sender]; ok {
			continue
		}
		if queue := b.queues[sender]; len(queue) > 0 {
			if next, err := newTxWithMinerFee(queue[0], b.baseFee); err == nil {
				heap.Push(&b.heads, next)
			}
			b.queues[sender] = queue[1:]
		}
		if b.skipBlobs && head.tx.Tx.Type() == types.BlobTxType {
			b.MarkInvalid(head.tx, errBlobsSkipped)
			continue
		}
		return head.tx
	}
	return nil
}

func (b *bestTransactions) MarkInvalid(tx *PoolTransaction, err error) {
	log.Trace("Dropping sender from payload", "sender", tx.Sender, "hash", tx.Tx.Hash(), "err", err)
	b.invalid[tx.Sender] = struct{}{}
	delete(b.queues, tx.Sender)
}

func (b *bestTransactions) SkipBlobTransactions() {
	b.skipBlobs = true
}
