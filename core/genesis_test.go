// Copyright 2017 The go-ethereum Authors
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

package core

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/gnosis-engine/core/rawdb"
	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/params"
)

var (
	genesisFunded   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	genesisContract = common.HexToAddress("0x2000000000000000000000000000000000000002")
	genesisCode     = []byte{0x60, 0x00, 0x60, 0x00}
)

func testGenesis() *Genesis {
	cfg := params.ChiadoChainConfig()
	cfg.ChainID = big.NewInt(10203)
	return &Genesis{
		Config:    cfg,
		Timestamp: 1750000000,
		ExtraData: []byte("genesis"),
		GasLimit:  30_000_000,
		Alloc: types.GenesisAlloc{
			genesisFunded: {Balance: big.NewInt(1_000_000), Nonce: 3},
			genesisContract: {
				Balance: new(big.Int),
				Code:    genesisCode,
				Storage: map[common.Hash]common.Hash{{0x01}: {0x02}},
			},
		},
		StateRoot: common.Hash{0xaa},
	}
}

func newGenesisDB(t *testing.T) *rawdb.Database {
	t.Helper()
	db, err := rawdb.Open(rawdb.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGenesisToHeader(t *testing.T) {
	genesis := testGenesis()
	head, err := genesis.ToHeader()
	require.NoError(t, err)

	assert.Equal(t, uint64(0), head.Number)
	assert.Equal(t, common.Hash{0xaa}, head.Root)
	assert.Equal(t, uint64(30_000_000), head.GasLimit)
	assert.Equal(t, big.NewInt(params.InitialBaseFee), head.BaseFee)
	assert.Equal(t, common.Hash{}, *head.ParentBeaconRoot)
	assert.Equal(t, types.EmptyRequestsHash, *head.RequestsHash)

	spec, err := params.NewChainSpec(genesis.Config, params.GenesisInfo{Timestamp: genesis.Timestamp})
	require.NoError(t, err)
	assert.NoError(t, head.VerifyForkFields(spec))

	// Before Shanghai only the London field is present.
	genesis.Timestamp = 1600000000
	genesis.StateRoot = common.Hash{}
	genesis.GasLimit = 0
	head, err = genesis.ToHeader()
	require.NoError(t, err)
	assert.Equal(t, types.EmptyRootHash, head.Root)
	assert.Equal(t, params.GenesisGasLimit, head.GasLimit)
	assert.NotNil(t, head.BaseFee)
	assert.Nil(t, head.WithdrawalsHash)
	assert.Nil(t, head.ParentBeaconRoot)
	assert.Nil(t, head.RequestsHash)
}

func TestSetupGenesisBlock(t *testing.T) {
	db := newGenesisDB(t)
	genesis := testGenesis()

	spec, hash, err := SetupGenesisBlock(db, genesis)
	require.NoError(t, err)
	assert.Equal(t, hash, spec.ForkHashSeed())
	assert.Equal(t, hash, rawdb.ReadHeadBlockHash(db))
	assert.Equal(t, hash, rawdb.ReadCanonicalHash(db, 0))

	stored := rawdb.ReadHeader(db, hash)
	require.NotNil(t, stored)
	assert.Equal(t, []byte("genesis"), stored.Extra)

	acct, err := db.Account(genesisFunded)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), acct.Nonce)
	assert.Equal(t, uint256.NewInt(1_000_000), acct.Balance)
	assert.Equal(t, types.EmptyCodeHash, acct.CodeHash)

	contract, err := db.Account(genesisContract)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256Hash(genesisCode), contract.CodeHash)
	code, err := db.Code(contract.CodeHash)
	require.NoError(t, err)
	assert.Equal(t, genesisCode, code)
	slot, err := db.Storage(genesisContract, common.Hash{0x01})
	require.NoError(t, err)
	assert.Equal(t, common.Hash{0x02}, slot)

	// Setting up the same genesis again is a no-op.
	_, again, err := SetupGenesisBlock(db, testGenesis())
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	// A different genesis is rejected.
	other := testGenesis()
	other.ExtraData = []byte("other")
	_, _, err = SetupGenesisBlock(db, other)
	var mismatch *GenesisMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, hash, mismatch.Stored)
}

func TestSetupGenesisBlockErrors(t *testing.T) {
	db := newGenesisDB(t)

	_, _, err := SetupGenesisBlock(db, nil)
	assert.ErrorIs(t, err, errGenesisNoConfig)
	_, _, err = SetupGenesisBlock(db, &Genesis{})
	assert.ErrorIs(t, err, errGenesisNoConfig)

	genesis := testGenesis()
	genesis.Alloc[genesisFunded] = types.Account{Balance: big.NewInt(-1)}
	_, _, err = SetupGenesisBlock(db, genesis)
	assert.ErrorContains(t, err, "invalid genesis balance")
	assert.Equal(t, common.Hash{}, rawdb.ReadCanonicalHash(db, 0))
}
