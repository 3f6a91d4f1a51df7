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

package core

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/core/vm"
	"github.com/gnosischain/gnosis-engine/core/vm/vmtest"
	"github.com/gnosischain/gnosis-engine/params"
)

const (
	testPragueTime = 1750000000 // after Chiado Prague
	testCancunTime = 1710000000 // between Chiado Cancun and Prague
)

var (
	testKey, _   = crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	testAddr     = crypto.PubkeyToAddress(testKey.PublicKey)
	testCoinbase = common.HexToAddress("0xc0ffee")
	testRecip    = common.HexToAddress("0x2ec1")
	testBeacon   = common.Hash{0x02}
)

// testChain is a Chiado state with every system contract deployed. Contracts
// without a registered behaviour succeed without output.
type testChain struct {
	spec   *params.ChainSpec
	reader *state.MemoryReader
	db     *state.StateDB
	interp *vmtest.Interpreter
}

func newTestChain(t *testing.T, spec *params.ChainSpec) *testChain {
	t.Helper()
	reader := state.NewMemoryReader()
	reader.SetAccount(testAddr, uint256.NewInt(1_000_000_000_000_000_000), 0, nil)

	code := []byte{0x60, 0x00}
	contracts := []common.Address{
		params.BeaconRootsAddress,
		params.HistoryStorageAddress,
		params.WithdrawalQueueAddress,
		params.ConsolidationQueueAddress,
		spec.RewardContract(),
	}
	if deposit, ok := spec.DepositContract(); ok {
		contracts = append(contracts, deposit)
	}
	for _, addr := range contracts {
		reader.SetAccount(addr, nil, 1, code)
	}
	interp := vmtest.New(nil)
	interp.Register(spec.RewardContract(), vmtest.Return(packRewards(t, nil, nil), 0))
	return &testChain{spec: spec, reader: reader, db: state.New(reader), interp: interp}
}

func packRewards(t *testing.T, receivers []common.Address, amounts []*big.Int) []byte {
	t.Helper()
	if receivers == nil {
		receivers = []common.Address{}
	}
	if amounts == nil {
		amounts = []*big.Int{}
	}
	out, err := rewardABI.Methods["reward"].Outputs.Pack(receivers, amounts)
	require.NoError(t, err)
	return out
}

func testHeader(time uint64) *types.Header {
	var zero uint64
	header := &types.Header{
		ParentHash: common.Hash{0x01},
		Coinbase:   testCoinbase,
		Difficulty: new(big.Int),
		Number:     100,
		GasLimit:   30_000_000,
		Time:       time,
		BaseFee:    big.NewInt(10),
	}
	withdrawalsHash := types.EmptyWithdrawalsHash
	header.WithdrawalsHash = &withdrawalsHash
	header.BlobGasUsed, header.ExcessBlobGas = &zero, &zero
	beacon := testBeacon
	header.ParentBeaconRoot = &beacon
	return header
}

func testContext(header *types.Header) ExecutionContext {
	return ExecutionContext{
		ParentHash:       header.ParentHash,
		ParentBeaconRoot: header.ParentBeaconRoot,
		ParentTimestamp:  header.Time - 5,
		Withdrawals:      types.Withdrawals{},
	}
}

func (c *testChain) executor(header *types.Header, ctx ExecutionContext) *BlockExecutor {
	return NewBlockExecutor(c.spec, c.db, header, ctx, c.interp)
}

func (c *testChain) transfer(t *testing.T, nonce uint64, to common.Address, value int64) *types.Transaction {
	t.Helper()
	signer := types.LatestSignerForChainID(c.spec.ChainID())
	return types.MustSignNewTx(testKey, signer, &types.DynamicFeeTx{
		ChainID:   c.spec.ChainID(),
		Nonce:     nonce,
		GasTipCap: big.NewInt(2),
		GasFeeCap: big.NewInt(20),
		Gas:       params.TxGas,
		To:        &to,
		Value:     big.NewInt(value),
	})
}

func (c *testChain) setCode(t *testing.T, nonce uint64, delegate common.Address) *types.Transaction {
	t.Helper()
	auth, err := types.SignSetCode(testKey, types.SetCodeAuthorization{
		ChainID: *uint256.MustFromBig(c.spec.ChainID()),
		Address: delegate,
		Nonce:   nonce + 1,
	})
	require.NoError(t, err)
	signer := types.LatestSignerForChainID(c.spec.ChainID())
	return types.MustSignNewTx(testKey, signer, &types.SetCodeTx{
		ChainID:   uint256.MustFromBig(c.spec.ChainID()),
		Nonce:     nonce,
		GasTipCap: uint256.NewInt(2),
		GasFeeCap: uint256.NewInt(20),
		Gas:       100_000,
		To:        testAddr,
		Value:     new(uint256.Int),
		AuthList:  []types.SetCodeAuthorization{auth},
	})
}

func TestBlockExecutorTransfers(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	header := testHeader(testPragueTime)
	exec := chain.executor(header, testContext(header))

	require.NoError(t, exec.ApplyPreExecutionChanges())
	for i := uint64(0); i < 2; i++ {
		receipt, err := exec.ExecuteTransaction(chain.transfer(t, i, testRecip, 1000), testAddr)
		require.NoError(t, err)
		assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
		assert.Equal(t, (i+1)*params.TxGas, receipt.CumulativeGasUsed)
		assert.Equal(t, uint(i), receipt.TransactionIndex)
	}
	result, err := exec.Finish()
	require.NoError(t, err)

	assert.Equal(t, 2*params.TxGas, result.GasUsed)
	assert.Zero(t, result.BlobGasUsed)
	assert.Len(t, result.Receipts, 2)
	require.NotNil(t, result.Requests)
	assert.Empty(t, result.Requests)

	assert.Equal(t, uint256.NewInt(2000), chain.db.GetBalance(testRecip))
	assert.Equal(t, uint256.NewInt(2*2*params.TxGas), chain.db.GetBalance(testCoinbase))
	assert.Equal(t, uint256.NewInt(10*2*params.TxGas), chain.db.GetBalance(chain.spec.FeeCollector()))
	assert.Equal(t, uint64(2), chain.db.GetNonce(testAddr))
}

func TestBlockExecutorGasLimit(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	header := testHeader(testPragueTime)
	header.GasLimit = 30_000
	exec := chain.executor(header, testContext(header))

	_, err := exec.ExecuteTransaction(chain.transfer(t, 0, testRecip, 0), testAddr)
	require.NoError(t, err)

	_, err = exec.ExecuteTransaction(chain.transfer(t, 1, testRecip, 0), testAddr)
	var gasErr *GasLimitError
	require.True(t, errors.As(err, &gasErr))
	assert.Equal(t, params.TxGas, gasErr.TxGas)
	assert.Equal(t, uint64(9000), gasErr.Available)
	assert.Equal(t, params.TxGas, exec.GasUsed())
}

func TestBlockExecutorInvalidTransaction(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	header := testHeader(testPragueTime)
	exec := chain.executor(header, testContext(header))

	_, err := exec.ExecuteTransaction(chain.transfer(t, 7, testRecip, 0), testAddr)
	require.Error(t, err)
	assert.True(t, vm.IsInvalidTx(err))
	assert.ErrorIs(t, err, vm.ErrNonceTooHigh)
	assert.Zero(t, exec.GasUsed())
	assert.Empty(t, exec.Receipts())
	assert.Zero(t, chain.db.GetNonce(testAddr))
}

func TestBlockExecutorFinished(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	header := testHeader(testPragueTime)
	exec := chain.executor(header, testContext(header))

	_, err := exec.Finish()
	require.NoError(t, err)

	_, err = exec.Finish()
	assert.ErrorIs(t, err, ErrExecutorFinished)
	_, err = exec.ExecuteTransaction(chain.transfer(t, 0, testRecip, 0), testAddr)
	assert.ErrorIs(t, err, ErrExecutorFinished)
	assert.ErrorIs(t, exec.ApplyPreExecutionChanges(), ErrExecutorFinished)
}

func TestBlockExecutorMissingDepositContract(t *testing.T) {
	cfg := params.ChiadoChainConfig()
	cfg.DepositContractAddress = nil
	chain := newTestChain(t, params.MustChainSpec(cfg, params.ChiadoGenesis))
	header := testHeader(testPragueTime)
	exec := chain.executor(header, testContext(header))

	_, err := exec.Finish()
	assert.ErrorIs(t, err, ErrMissingDepositContract)
}

func TestBlockExecutorRewards(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	beef := common.HexToAddress("0xbeef")
	chain.interp.Register(chain.spec.RewardContract(), vmtest.Return(packRewards(t, []common.Address{beef}, []*big.Int{big.NewInt(100)}), 0))

	header := testHeader(testPragueTime)
	exec := chain.executor(header, testContext(header))
	require.NoError(t, exec.ApplyPreExecutionChanges())
	_, err := exec.Finish()
	require.NoError(t, err)

	assert.Equal(t, uint256.NewInt(100), chain.db.GetBalance(beef))

	// The reward call leaves a fresh, empty system account behind.
	require.True(t, chain.db.Exist(params.SystemAddress))
	assert.Zero(t, chain.db.GetNonce(params.SystemAddress))
	assert.True(t, chain.db.GetBalance(params.SystemAddress).IsZero())

	// The coinbase is not credited by system calls.
	assert.False(t, chain.db.Exist(testCoinbase))

	var rewardCalls int
	for _, frame := range chain.interp.Calls() {
		if frame.Address == chain.spec.RewardContract() {
			rewardCalls++
			assert.Equal(t, params.SystemAddress, frame.Caller)
			want, err := EncodeRewardCall(testCoinbase)
			require.NoError(t, err)
			assert.Equal(t, want, frame.Input)
		}
	}
	assert.Equal(t, 1, rewardCalls)
}

func TestBlockExecutorRewardsExistingSystemAccount(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	chain.reader.SetAccount(params.SystemAddress, uint256.NewInt(5), 0, nil)

	header := testHeader(testPragueTime)
	_, err := chain.executor(header, testContext(header)).Finish()
	require.NoError(t, err)

	assert.Equal(t, uint256.NewInt(5), chain.db.GetBalance(params.SystemAddress))
	assert.Zero(t, chain.db.GetNonce(params.SystemAddress))
}

func TestBlockExecutorNoRewardContract(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	chain.reader.SetAccount(chain.spec.RewardContract(), nil, 0, nil)

	header := testHeader(testPragueTime)
	_, err := chain.executor(header, testContext(header)).Finish()
	require.NoError(t, err)

	// Nothing is committed when there is no rewards contract.
	assert.False(t, chain.db.Exist(params.SystemAddress))
}

func TestBlockExecutorRewardsRevert(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	chain.interp.Register(chain.spec.RewardContract(), vmtest.Revert([]byte{0xde, 0xad}, 0))

	header := testHeader(testPragueTime)
	_, err := chain.executor(header, testContext(header)).Finish()

	var callErr *SystemCallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, vm.StatusRevert, callErr.Status)
	assert.Equal(t, []byte{0xde, 0xad}, callErr.Output)
}

func TestBlockExecutorWithdrawals(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	deposit, _ := chain.spec.DepositContract()

	withdrawals := types.Withdrawals{
		{Index: 1, Validator: 7, Address: common.HexToAddress("0xaa"), Amount: 32_000_000_000},
		{Index: 2, Validator: 8, Address: common.HexToAddress("0xbb"), Amount: 1},
	}
	header := testHeader(testPragueTime)
	ctx := testContext(header)
	ctx.Withdrawals = withdrawals
	_, err := chain.executor(header, ctx).Finish()
	require.NoError(t, err)

	want, err := EncodeWithdrawalsCall(withdrawals)
	require.NoError(t, err)
	var found bool
	for _, frame := range chain.interp.Calls() {
		if frame.Address == deposit {
			found = true
			assert.Equal(t, params.SystemAddress, frame.Caller)
			assert.Equal(t, want, frame.Input)
		}
	}
	assert.True(t, found, "withdrawals call not executed")

	// Withdrawals are paid by the contract, never minted.
	assert.False(t, chain.db.Exist(common.HexToAddress("0xaa")))
}

func TestBlockExecutorMissingWithdrawals(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	header := testHeader(testPragueTime)
	ctx := testContext(header)
	ctx.Withdrawals = nil

	_, err := chain.executor(header, ctx).Finish()
	assert.ErrorIs(t, err, ErrMissingWithdrawals)
}

func TestBlockExecutorWithdrawalsRevert(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	deposit, _ := chain.spec.DepositContract()
	chain.interp.Register(deposit, vmtest.Revert(nil, 0))

	header := testHeader(testPragueTime)
	_, err := chain.executor(header, testContext(header)).Finish()
	assert.ErrorIs(t, err, vm.ErrExecutionReverted)
}

func TestBlockExecutorRequests(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	chain.interp.Register(params.WithdrawalQueueAddress, vmtest.Return([]byte{0xaa, 0xbb}, 0))

	header := testHeader(testPragueTime)
	result, err := chain.executor(header, testContext(header)).Finish()
	require.NoError(t, err)
	assert.Equal(t, types.Requests{{types.WithdrawalRequestType, 0xaa, 0xbb}}, result.Requests)
}

func TestBlockExecutorRequestsBeforePrague(t *testing.T) {
	chain := newTestChain(t, params.ChiadoChainSpec())
	header := testHeader(testCancunTime)
	result, err := chain.executor(header, testContext(header)).Finish()
	require.NoError(t, err)
	assert.Nil(t, result.Requests)

	for _, frame := range chain.interp.Calls() {
		assert.NotEqual(t, params.WithdrawalQueueAddress, frame.Address)
		assert.NotEqual(t, params.ConsolidationQueueAddress, frame.Address)
	}
}

func TestBlockExecutorRequestsContractFailure(t *testing.T) {
	t.Run("revert", func(t *testing.T) {
		chain := newTestChain(t, params.ChiadoChainSpec())
		chain.interp.Register(params.ConsolidationQueueAddress, vmtest.Revert([]byte{0x01}, 0))

		header := testHeader(testPragueTime)
		_, err := chain.executor(header, testContext(header)).Finish()
		var callErr *SystemCallError
		require.True(t, errors.As(err, &callErr))
		assert.Equal(t, params.ConsolidationQueueAddress, callErr.Contract)
		assert.Equal(t, vm.StatusRevert, callErr.Status)
	})
	t.Run("not deployed", func(t *testing.T) {
		chain := newTestChain(t, params.ChiadoChainSpec())
		chain.reader.SetAccount(params.WithdrawalQueueAddress, nil, 0, nil)

		header := testHeader(testPragueTime)
		_, err := chain.executor(header, testContext(header)).Finish()
		assert.ErrorIs(t, err, ErrSystemContractNotDeployed)
	})
}

func TestBlockExecutorHotPatch(t *testing.T) {
	patched := common.HexToAddress("0x5a1e")
	activation := uint64(testPragueTime)
	cfg := params.ChiadoChainConfig()
	cfg.HotPatchTime = &activation
	cfg.HotPatchConfig = map[common.Address]string{patched: "0x6001"}
	spec := params.MustChainSpec(cfg, params.ChiadoGenesis)

	t.Run("transition", func(t *testing.T) {
		chain := newTestChain(t, spec)
		chain.reader.SetAccount(patched, uint256.NewInt(9), 3, []byte{0xfe})
		header := testHeader(activation)
		require.NoError(t, chain.executor(header, testContext(header)).ApplyPreExecutionChanges())

		assert.Equal(t, []byte{0x60, 0x01}, chain.db.GetCode(patched))
		assert.Equal(t, uint256.NewInt(9), chain.db.GetBalance(patched))
		assert.Equal(t, uint64(3), chain.db.GetNonce(patched))
	})
	t.Run("after transition", func(t *testing.T) {
		chain := newTestChain(t, spec)
		chain.reader.SetAccount(patched, nil, 0, []byte{0xfe})
		header := testHeader(activation + 5)
		ctx := testContext(header)
		ctx.ParentTimestamp = activation
		require.NoError(t, chain.executor(header, ctx).ApplyPreExecutionChanges())

		assert.Equal(t, []byte{0xfe}, chain.db.GetCode(patched))
	})
}
