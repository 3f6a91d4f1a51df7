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
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/params"
)

func drain(best BestTransactions) []*PoolTransaction {
	var out []*PoolTransaction
	for tx := best.Next(); tx != nil; tx = best.Next() {
		out = append(out, tx)
	}
	return out
}

func signBlobTx(t *testing.T, key []byte, nonce uint64, blobFeeCap uint64) *types.Transaction {
	t.Helper()
	priv, err := crypto.ToECDSA(key)
	require.NoError(t, err)
	signer := types.LatestSignerForChainID(testChiadoSpec.ChainID())
	return types.MustSignNewTx(priv, signer, &types.BlobTx{
		ChainID:    uint256.MustFromBig(testChiadoSpec.ChainID()),
		Nonce:      nonce,
		GasTipCap:  uint256.NewInt(3),
		GasFeeCap:  uint256.NewInt(20),
		Gas:        params.TxGas,
		To:         testRecipient,
		Value:      new(uint256.Int),
		BlobFeeCap: uint256.NewInt(blobFeeCap),
		BlobHashes: []common.Hash{{0x01}},
	})
}

func TestPendingPoolOrdering(t *testing.T) {
	pool := NewPendingPool(testChiadoSpec)
	errs := pool.Add(
		signTransfer(t, bankKey(), 1, 9), // high tip, but behind nonce 0
		signTransfer(t, bankKey(), 0, 1),
		signTransfer(t, userKey(), 0, 5),
		signTransfer(t, userKey(), 1, 4),
	)
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 4, pool.Len())

	txs := drain(pool.Pending(PendingFilter{BaseFee: uint256.NewInt(10)}))
	require.Len(t, txs, 4)

	type entry struct {
		sender common.Address
		nonce  uint64
	}
	var got []entry
	for _, tx := range txs {
		got = append(got, entry{tx.Sender, tx.Tx.Nonce()})
	}
	assert.Equal(t, []entry{
		{testUserAddress, 0},
		{testUserAddress, 1},
		{testBankAddress, 0},
		{testBankAddress, 1},
	}, got)
}

func TestPendingPoolMarkInvalid(t *testing.T) {
	pool := NewPendingPool(testChiadoSpec)
	pool.Add(
		signTransfer(t, bankKey(), 0, 5),
		signTransfer(t, bankKey(), 1, 5),
		signTransfer(t, bankKey(), 2, 5),
		signTransfer(t, userKey(), 0, 1),
	)
	best := pool.Pending(PendingFilter{BaseFee: uint256.NewInt(10)})

	first := best.Next()
	require.Equal(t, testBankAddress, first.Sender)
	best.MarkInvalid(first, errBlockGasExhausted)

	rest := drain(best)
	require.Len(t, rest, 1)
	assert.Equal(t, testUserAddress, rest[0].Sender)

	// The pool itself is untouched.
	assert.Equal(t, 4, pool.Len())
}

func TestPendingPoolFeeFilter(t *testing.T) {
	pool := NewPendingPool(testChiadoSpec)
	cheap := types.MustSignNewTx(testBankKey, types.LatestSignerForChainID(testChiadoSpec.ChainID()), &types.DynamicFeeTx{
		ChainID:   testChiadoSpec.ChainID(),
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(5),
		Gas:       params.TxGas,
		To:        &testRecipient,
	})
	pool.Add(signTransfer(t, bankKey(), 0, 2), cheap, signTransfer(t, bankKey(), 2, 2))

	// The run of the sender stops at the transaction below the base fee.
	txs := drain(pool.Pending(PendingFilter{BaseFee: uint256.NewInt(10)}))
	require.Len(t, txs, 1)
	assert.Equal(t, uint64(0), txs[0].Tx.Nonce())

	// Without a base fee everything is yielded, ordered by tip cap.
	assert.Len(t, drain(pool.Pending(PendingFilter{})), 3)
}

func TestPendingPoolBlobTransactions(t *testing.T) {
	pool := NewPendingPool(testChiadoSpec)
	pool.Add(
		signBlobTx(t, bankKey(), 0, params.GWei),
		signTransfer(t, bankKey(), 1, 2),
		signBlobTx(t, userKey(), 0, params.GWei/2),
	)

	// The blob fee cap of the user is below the blob fee.
	txs := drain(pool.Pending(PendingFilter{BaseFee: uint256.NewInt(10), BlobFee: uint256.NewInt(params.GWei)}))
	require.Len(t, txs, 2)
	assert.Equal(t, testBankAddress, txs[0].Sender)
	assert.Equal(t, uint8(types.BlobTxType), txs[0].Tx.Type())

	// Skipping blob transactions drops the blob senders with their
	// descendants.
	best := pool.Pending(PendingFilter{BaseFee: uint256.NewInt(10)})
	best.SkipBlobTransactions()
	assert.Empty(t, drain(best))
}

func TestPendingPoolMaintenance(t *testing.T) {
	pool := NewPendingPool(testChiadoSpec)
	pool.Add(
		signTransfer(t, bankKey(), 0, 2),
		signTransfer(t, bankKey(), 1, 2),
		signTransfer(t, bankKey(), 2, 2),
	)

	// Same sender and nonce replaces.
	replacement := signTransfer(t, bankKey(), 2, 7)
	pool.Add(replacement)
	assert.Equal(t, 3, pool.Len())

	assert.Equal(t, 2, pool.Forward(testBankAddress, 2))
	assert.Equal(t, 0, pool.Forward(testUserAddress, 2))

	txs := drain(pool.Pending(PendingFilter{}))
	require.Len(t, txs, 1)
	assert.Equal(t, replacement.Hash(), txs[0].Tx.Hash())

	assert.False(t, pool.Remove(testBankAddress, 0))
	assert.True(t, pool.Remove(testBankAddress, 2))
	assert.Zero(t, pool.Len())
}

func TestPendingPoolRejectsUnsigned(t *testing.T) {
	pool := NewPendingPool(testChiadoSpec)
	unsigned := types.NewTx(&types.DynamicFeeTx{
		ChainID:   testChiadoSpec.ChainID(),
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(20),
		Gas:       params.TxGas,
		To:        &testRecipient,
	})
	errs := pool.Add(unsigned, signTransfer(t, bankKey(), 0, 2))
	require.Len(t, errs, 2)
	assert.Error(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Equal(t, 1, pool.Len())
}

func TestEffectiveTip(t *testing.T) {
	tx := signTransfer(t, bankKey(), 0, 2) // tip 2, fee cap 20

	tip, err := effectiveTip(tx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(2), tip)

	tip, err = effectiveTip(tx, uint256.NewInt(19))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1), tip)

	_, err = effectiveTip(tx, uint256.NewInt(21))
	assert.ErrorIs(t, err, errFeeCapTooLow)
}
