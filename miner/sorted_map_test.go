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
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/gnosis-engine/core/types"
)

func nonceTx(nonce uint64) *PoolTransaction {
	return &PoolTransaction{
		Tx:     types.NewTx(&types.LegacyTx{Nonce: nonce}),
		Sender: common.Address{0x01},
	}
}

// Tests that transactions can be added to sorted maps in any order and come
// out nonce sorted.
func TestSortedMapAdd(t *testing.T) {
	txs := make([]*PoolTransaction, 1024)
	for i := range txs {
		txs[i] = nonceTx(uint64(i))
	}
	m := newSortedMap()
	for _, v := range rand.Perm(len(txs)) {
		m.Put(txs[v])
	}
	require.Equal(t, len(txs), m.Len())
	for i, tx := range txs {
		assert.Same(t, tx, m.Get(tx.Tx.Nonce()), "item %d", i)
	}
	assert.Equal(t, txs, m.Flatten())
}

func TestSortedMapForward(t *testing.T) {
	m := newSortedMap()
	for i := range 10 {
		m.Put(nonceTx(uint64(i)))
	}
	m.Flatten() // populate the cache

	assert.Equal(t, 4, m.Forward(4))
	assert.Equal(t, 0, m.Forward(4))
	flat := m.Flatten()
	require.Len(t, flat, 6)
	assert.Equal(t, uint64(4), flat[0].Tx.Nonce())
	assert.Nil(t, m.Get(3))
}

func TestSortedMapRemove(t *testing.T) {
	m := newSortedMap()
	for _, nonce := range []uint64{5, 1, 3} {
		m.Put(nonceTx(nonce))
	}
	assert.False(t, m.Remove(2))
	assert.True(t, m.Remove(3))

	var nonces []uint64
	for _, tx := range m.Flatten() {
		nonces = append(nonces, tx.Tx.Nonce())
	}
	assert.Equal(t, []uint64{1, 5}, nonces)

	// Removing the lowest nonce keeps the index consistent for Forward.
	assert.True(t, m.Remove(1))
	assert.Equal(t, 1, m.Forward(6))
	assert.Zero(t, m.Len())
}

func TestSortedMapFlattenIsCopy(t *testing.T) {
	m := newSortedMap()
	m.Put(nonceTx(0))
	m.Put(nonceTx(1))

	flat := m.Flatten()
	flat[0] = nil
	assert.NotNil(t, m.Flatten()[0])
}
