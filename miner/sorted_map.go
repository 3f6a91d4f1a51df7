// Copyright 2016 The go-ethereum Authors
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
	"cmp"
	"container/heap"
	"slices"
	"sync"
)

// nonceHeap is a heap.Interface implementation over 64bit unsigned integers
// used to find the lowest pooled nonce of a sender.
type nonceHeap []uint64

func (h nonceHeap) Len() int           { return len(h) }
func (h nonceHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h nonceHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *nonceHeap) Push(x any) {
	*h = append(*h, x.(uint64))
}

func (h *nonceHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = 0
	*h = old[0 : n-1]
	return x
}

// sortedMap holds the pooled transactions of one sender keyed by nonce, with
// a heap based index to hand them out in nonce-incrementing order.
type sortedMap struct {
	items   map[uint64]*PoolTransaction // Hash map storing the transaction data
	index   *nonceHeap                  // Heap of nonces of all the stored transactions
	cache   []*PoolTransaction          // Cache of the transactions already sorted
	cacheMu sync.Mutex                  // Mutex covering the cache
}

func newSortedMap() *sortedMap {
	return &sortedMap{
		items: make(map[uint64]*PoolTransaction),
		index: new(nonceHeap),
	}
}

// Get retrieves the transaction with the given nonce.
func (m *sortedMap) Get(nonce uint64) *PoolTransaction {
	return m.items[nonce]
}

// Len returns the number of transactions in the map.
func (m *sortedMap) Len() int {
	return len(m.items)
}

// Put inserts a transaction, replacing any transaction with the same nonce.
func (m *sortedMap) Put(tx *PoolTransaction) {
	nonce := tx.Tx.Nonce()
	if m.items[nonce] == nil {
		heap.Push(m.index, nonce)
	}
	m.cacheMu.Lock()
	m.items[nonce], m.cache = tx, nil
	m.cacheMu.Unlock()
}

// Forward removes every transaction with a nonce lower than threshold and
// returns how many were dropped.
func (m *sortedMap) Forward(threshold uint64) int {
	var removed int
	for m.index.Len() > 0 && (*m.index)[0] < threshold {
		nonce := heap.Pop(m.index).(uint64)
		delete(m.items, nonce)
		removed++
	}
	m.cacheMu.Lock()
	if m.cache != nil {
		m.cache = m.cache[removed:]
	}
	m.cacheMu.Unlock()
	return removed
}

// Remove deletes the transaction with the given nonce, returning whether it
// was found.
func (m *sortedMap) Remove(nonce uint64) bool {
	if _, ok := m.items[nonce]; !ok {
		return false
	}
	for i := range m.index.Len() {
		if (*m.index)[i] == nonce {
			heap.Remove(m.index, i)
			break
		}
	}
	delete(m.items, nonce)
	m.cacheMu.Lock()
	m.cache = nil
	m.cacheMu.Unlock()
	return true
}

func (m *sortedMap) flatten() []*PoolTransaction {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	if m.cache == nil {
		m.cache = make([]*PoolTransaction, 0, len(m.items))
		for _, tx := range m.items {
			m.cache = append(m.cache, tx)
		}
		slices.SortFunc(m.cache, func(a, b *PoolTransaction) int {
			return cmp.Compare(a.Tx.Nonce(), b.Tx.Nonce())
		})
	}
	return m.cache
}

// Flatten returns a nonce-sorted copy of the transactions. The sorted order is
// cached until the contents change.
func (m *sortedMap) Flatten() []*PoolTransaction {
	return slices.Clone(m.flatten())
}
