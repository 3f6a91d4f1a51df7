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

package types

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/gnosis-engine/params"
)

func u64ptr(v uint64) *uint64 { return &v }

func hashPtr(b byte) *common.Hash {
	h := common.Hash{b}
	return &h
}

func legacyHeader() *Header {
	return &Header{
		ParentHash:  common.Hash{1},
		UncleHash:   EmptyUncleHash,
		Coinbase:    common.Address{2},
		Root:        common.Hash{3},
		TxHash:      EmptyTxsHash,
		ReceiptHash: EmptyReceiptsHash,
		Difficulty:  big.NewInt(0),
		Number:      100,
		GasLimit:    17_000_000,
		GasUsed:     21_000,
		Time:        1_700_000_000,
		Extra:       []byte("gnosis"),
		MixDigest:   common.Hash{4},
		Nonce:       EncodeNonce(0),
	}
}

// withForks fills the optional fields up to and including the given level:
// 1 London, 2 Shanghai, 3 Cancun, 4 Prague.
func withForks(h *Header, level int) *Header {
	if level >= 1 {
		h.BaseFee = big.NewInt(7)
	}
	if level >= 2 {
		h.WithdrawalsHash = &EmptyWithdrawalsHash
	}
	if level >= 3 {
		h.BlobGasUsed = u64ptr(params.BlobTxBlobGasPerBlob)
		h.ExcessBlobGas = u64ptr(0)
		h.ParentBeaconRoot = hashPtr(5)
	}
	if level >= 4 {
		h.RequestsHash = &EmptyRequestsHash
	}
	return h
}

func TestHeaderRoundTrip(t *testing.T) {
	for level := 0; level <= 4; level++ {
		want := withForks(legacyHeader(), level)

		enc, err := rlp.EncodeToBytes(want)
		require.NoError(t, err)

		var got Header
		require.NoError(t, rlp.DecodeBytes(enc, &got), "level %d", level)
		assert.Equal(t, want, &got, "level %d", level)
		assert.Equal(t, want.Hash(), got.Hash())
	}
}

func TestHeaderHashIsKeccakOfEncoding(t *testing.T) {
	h := withForks(legacyHeader(), 4)
	enc, err := rlp.EncodeToBytes(h)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256Hash(enc), h.Hash())
}

func TestHeaderEncodingStopsAtFirstAbsentField(t *testing.T) {
	h := legacyHeader()
	h.BaseFee = big.NewInt(1)
	h.BlobGasUsed = u64ptr(1) // no withdrawals hash, so dropped
	h.RequestsHash = hashPtr(9)

	enc, err := rlp.EncodeToBytes(h)
	require.NoError(t, err)

	var got Header
	require.NoError(t, rlp.DecodeBytes(enc, &got))
	assert.Equal(t, big.NewInt(1), got.BaseFee)
	assert.Nil(t, got.WithdrawalsHash)
	assert.Nil(t, got.BlobGasUsed)
	assert.Nil(t, got.RequestsHash)
}

func TestAuRaHeaderRoundTrip(t *testing.T) {
	h := legacyHeader()
	h.Difficulty = big.NewInt(340282366920938463)
	h.AuRa = &AuRaSeal{
		Step:      uint256.NewInt(340_282_366),
		Signature: bytes.Repeat([]byte{0xab}, 65),
	}
	h.MixDigest = common.Hash{}
	h.Nonce = BlockNonce{}
	require.Len(t, h.AuRa.Signature, 65)

	enc, err := rlp.EncodeToBytes(h)
	require.NoError(t, err)

	var got Header
	require.NoError(t, rlp.DecodeBytes(enc, &got))
	require.NotNil(t, got.AuRa)
	assert.Equal(t, h.AuRa.Step, got.AuRa.Step)
	assert.Equal(t, h.AuRa.Signature, got.AuRa.Signature)
	assert.Equal(t, h.Hash(), got.Hash())

	// The AuRa seal replaces mix digest and nonce in the encoding.
	plain := legacyHeader()
	plain.Difficulty = h.Difficulty
	assert.NotEqual(t, plain.Hash(), h.Hash())
}

func TestAuRaHeaderZeroStep(t *testing.T) {
	h := legacyHeader()
	h.AuRa = &AuRaSeal{Step: new(uint256.Int), Signature: make([]byte, 65)}

	enc, err := rlp.EncodeToBytes(h)
	require.NoError(t, err)

	var got Header
	require.NoError(t, rlp.DecodeBytes(enc, &got))
	require.NotNil(t, got.AuRa)
	assert.True(t, got.AuRa.Step.IsZero())
}

func TestHeaderRejectsTrailingData(t *testing.T) {
	h := withForks(legacyHeader(), 4)
	enc, err := rlp.EncodeToBytes(h)
	require.NoError(t, err)

	// Re-wrap the list with one extra item appended.
	content, _, err := rlp.SplitList(enc)
	require.NoError(t, err)
	extra, err := rlp.EncodeToBytes(common.Hash{0xff})
	require.NoError(t, err)

	payload := append(append([]byte{}, content...), extra...)
	var got Header
	assert.Error(t, rlp.DecodeBytes(append(rlpListHeader(len(payload)), payload...), &got))
}

func rlpListHeader(size int) []byte {
	if size < 56 {
		return []byte{0xc0 + byte(size)}
	}
	var lenBytes []byte
	for s := size; s > 0; s >>= 8 {
		lenBytes = append([]byte{byte(s)}, lenBytes...)
	}
	return append([]byte{0xf7 + byte(len(lenBytes))}, lenBytes...)
}

func TestHeaderRejectsShortOptionalHash(t *testing.T) {
	h := withForks(legacyHeader(), 1)
	enc, err := rlp.EncodeToBytes(h)
	require.NoError(t, err)

	content, _, err := rlp.SplitList(enc)
	require.NoError(t, err)
	short, err := rlp.EncodeToBytes([]byte{1, 2, 3})
	require.NoError(t, err)
	payload := append(append([]byte{}, content...), short...)

	var got Header
	assert.Error(t, rlp.DecodeBytes(append(rlpListHeader(len(payload)), payload...), &got))
}

func TestVerifyForkFields(t *testing.T) {
	spec := params.ChiadoChainSpec()

	// Prague is active at this time on Chiado.
	h := withForks(legacyHeader(), 4)
	h.Time = 1741254220
	require.NoError(t, h.VerifyForkFields(spec))

	missing := h.Copy()
	missing.RequestsHash = nil
	assert.ErrorContains(t, missing.VerifyForkFields(spec), "requestsHash")

	early := withForks(legacyHeader(), 4)
	early.Time = 1700000000 // Shanghai only
	assert.ErrorContains(t, early.VerifyForkFields(spec), "blobGasUsed")

	sealed := withForks(legacyHeader(), 2)
	sealed.Time = 1690000000
	sealed.AuRa = &AuRaSeal{Step: uint256.NewInt(1)}
	assert.Error(t, sealed.VerifyForkFields(spec))
}

func TestHeaderCopyIsDeep(t *testing.T) {
	h := withForks(legacyHeader(), 4)
	cpy := h.Copy()
	cpy.BaseFee.SetInt64(99)
	*cpy.BlobGasUsed = 99
	cpy.Extra[0] = 'x'

	assert.Equal(t, int64(7), h.BaseFee.Int64())
	assert.Equal(t, uint64(params.BlobTxBlobGasPerBlob), *h.BlobGasUsed)
	assert.Equal(t, byte('g'), h.Extra[0])
}

func TestHeaderRejectsOversizedValues(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 256)

	for _, tt := range []struct {
		name   string
		modify func(*Header)
	}{
		{"difficulty", func(h *Header) { h.Difficulty = new(big.Int).Set(huge) }},
		{"baseFee", func(h *Header) { h.BaseFee = new(big.Int).Set(huge) }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			h := withForks(legacyHeader(), 1)
			tt.modify(h)

			enc, err := rlp.EncodeToBytes(h)
			require.NoError(t, err)
			var got Header
			assert.ErrorIs(t, rlp.DecodeBytes(enc, &got), errValueTooLarge)
			assert.ErrorIs(t, h.VerifyForkFields(params.ChiadoChainSpec()), errValueTooLarge)
		})
	}
}
