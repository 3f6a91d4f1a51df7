// Copyright 2020 The go-ethereum Authors
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
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/gnosis-engine/core"
	"github.com/gnosischain/gnosis-engine/core/rawdb"
	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/core/vm/vmtest"
	"github.com/gnosischain/gnosis-engine/params"
)

const testParentTime = 1750000000 // Chiado, after Prague

var (
	testBankKey, _   = crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	testBankAddress  = crypto.PubkeyToAddress(testBankKey.PublicKey)
	testUserKey, _   = crypto.GenerateKey()
	testUserAddress  = crypto.PubkeyToAddress(testUserKey.PublicKey)
	testRecipient    = common.HexToAddress("0xdeadbeef")
	testBeaconRoot   = common.Hash{0xbe}
	testStateRoot    = common.Hash{0xaa}
	testBankBalance  = uint256.NewInt(1_000_000_000_000_000_000)
	testChiadoSpec   = params.ChiadoChainSpec()
	testSystemCode   = []byte{0x60, 0x00}
	testDefaultExtra = "gnosis"
)

// testRooter returns a fixed state root and remembers the changes it saw.
type testRooter struct {
	mu      sync.Mutex
	changes []*state.Changes
}

func (r *testRooter) StateRoot(parent *types.Header, changes *state.Changes) (common.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, changes)
	return testStateRoot, nil
}

// testEnv is a Chiado chain with a single Prague head block whose flat state
// holds the funded bank accounts and the request system contracts.
type testEnv struct {
	db      *rawdb.Database
	parent  *types.Header
	backend *DatabaseBackend
	interp  *vmtest.Interpreter
	rooter  *testRooter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := rawdb.Open(rawdb.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, addr := range []common.Address{testBankAddress, testUserAddress} {
		acct := types.NewEmptyStateAccount()
		acct.Balance = new(uint256.Int).Set(testBankBalance)
		require.NoError(t, rawdb.WriteAccount(db, addr, acct))
	}
	codeHash := crypto.Keccak256Hash(testSystemCode)
	require.NoError(t, rawdb.WriteCode(db, codeHash, testSystemCode))
	for _, addr := range []common.Address{params.WithdrawalQueueAddress, params.ConsolidationQueueAddress} {
		require.NoError(t, rawdb.WriteAccount(db, addr, &types.StateAccount{Nonce: 1, Balance: new(uint256.Int), CodeHash: codeHash}))
	}

	var zero uint64
	withdrawalsHash, requestsHash, beacon := types.EmptyWithdrawalsHash, types.EmptyRequestsHash, common.Hash{0x01}
	parent := &types.Header{
		ParentHash:       common.Hash{0x0f},
		UncleHash:        types.EmptyUncleHash,
		Root:             common.Hash{0x0e},
		TxHash:           types.EmptyTxsHash,
		ReceiptHash:      types.EmptyReceiptsHash,
		Difficulty:       new(big.Int),
		Number:           100,
		GasLimit:         30_000_000,
		GasUsed:          15_000_000,
		Time:             testParentTime,
		BaseFee:          big.NewInt(10),
		WithdrawalsHash:  &withdrawalsHash,
		BlobGasUsed:      &zero,
		ExcessBlobGas:    &zero,
		ParentBeaconRoot: &beacon,
		RequestsHash:     &requestsHash,
	}
	rawdb.WriteHeader(db, parent)
	rawdb.WriteHeadBlockHash(db, parent.Hash())

	return &testEnv{
		db:      db,
		parent:  parent,
		backend: NewDatabaseBackend(db),
		interp:  vmtest.New(nil),
		rooter:  &testRooter{},
	}
}

func testConfig() *Config {
	cfg := DefaultConfig
	cfg.GasCeil = 30_000_000
	cfg.ExtraData = testDefaultExtra
	cfg.Recommit = 10 * time.Millisecond
	return &cfg
}

func (e *testEnv) newMiner(t *testing.T, pool TxPool, filter *core.TxFilter) *Miner {
	t.Helper()
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	m := New(testChiadoSpec, testConfig(), e.backend, pool, e.interp, e.rooter, filter, metrics)
	t.Cleanup(m.Close)
	return m
}

func (e *testEnv) args() *BuildPayloadArgs {
	beacon := testBeaconRoot
	return &BuildPayloadArgs{
		Parent:       e.parent.Hash(),
		Timestamp:    e.parent.Time + 5,
		FeeRecipient: testRecipient,
		Random:       common.Hash{0x5e},
		Withdrawals:  types.Withdrawals{},
		BeaconRoot:   &beacon,
		Version:      3,
	}
}

func signTransfer(t *testing.T, key []byte, nonce uint64, tip int64) *types.Transaction {
	t.Helper()
	priv, err := crypto.ToECDSA(key)
	require.NoError(t, err)
	signer := types.LatestSignerForChainID(testChiadoSpec.ChainID())
	return types.MustSignNewTx(priv, signer, &types.DynamicFeeTx{
		ChainID:   testChiadoSpec.ChainID(),
		Nonce:     nonce,
		GasTipCap: big.NewInt(tip),
		GasFeeCap: big.NewInt(20),
		Gas:       params.TxGas,
		To:        &testRecipient,
		Value:     big.NewInt(1000),
	})
}

func bankKey() []byte { return crypto.FromECDSA(testBankKey) }
func userKey() []byte { return crypto.FromECDSA(testUserKey) }

func TestStartPayload(t *testing.T) {
	env := newTestEnv(t)
	pool := NewPendingPool(testChiadoSpec)
	for _, err := range pool.Add(signTransfer(t, bankKey(), 0, 2), signTransfer(t, bankKey(), 1, 2)) {
		require.NoError(t, err)
	}
	miner := env.newMiner(t, pool, nil)

	args := env.args()
	payload, err := miner.StartPayload(args)
	require.NoError(t, err)
	assert.Equal(t, args.Id(), payload.ID())

	empty := payload.ResolveEmpty()
	require.NotNil(t, empty)
	assert.Empty(t, empty.Block.Transactions())
	assert.True(t, empty.Fees.IsZero())

	require.Eventually(t, func() bool { return payload.best() != nil }, 5*time.Second, 5*time.Millisecond)

	full := payload.Resolve()
	require.Len(t, full.Block.Transactions(), 2)
	assert.Equal(t, uint256.NewInt(2*2*params.TxGas), full.Fees)
	assert.Equal(t, args.Id(), full.ID)

	// Resolving again returns the same payload.
	assert.Same(t, full, payload.Resolve())
	assert.Same(t, empty, payload.ResolveEmpty())
}

func TestStartPayloadWithoutPool(t *testing.T) {
	env := newTestEnv(t)
	miner := env.newMiner(t, nil, nil)

	payload, err := miner.StartPayload(env.args())
	require.NoError(t, err)
	assert.Same(t, payload.ResolveEmpty(), payload.Resolve())
}

func TestStartPayloadInvalidArgs(t *testing.T) {
	env := newTestEnv(t)
	miner := env.newMiner(t, NewPendingPool(testChiadoSpec), nil)

	args := env.args()
	args.Timestamp = env.parent.Time
	_, err := miner.StartPayload(args)
	require.ErrorIs(t, err, errInvalidTimestamp)
}

func TestSetExtra(t *testing.T) {
	env := newTestEnv(t)
	miner := env.newMiner(t, nil, nil)

	require.Error(t, miner.SetExtra(make([]byte, params.MaximumExtraDataSize+1)))
	require.NoError(t, miner.SetExtra([]byte("other")))
	miner.SetGasCeil(20_000_000)

	outcome, err := miner.BuildPayload(t.Context(), env.args(), nil, nil)
	require.NoError(t, err)
	header := outcome.Payload.Block.Header()
	assert.Equal(t, []byte("other"), header.Extra)
	assert.Equal(t, calcGasLimit(env.parent.GasLimit, 20_000_000), header.GasLimit)
}
