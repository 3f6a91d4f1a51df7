package core

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/core/vm"
	"github.com/gnosischain/gnosis-engine/params"
)

const (
	withdrawalsABIJSON = `[{"name":"executeSystemWithdrawals","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"maxFailedWithdrawalsToProcess","type":"uint256"},
		{"name":"_amounts","type":"uint64[]"},
		{"name":"_addresses","type":"address[]"}],"outputs":[]}]`

	rewardABIJSON = `[{"name":"reward","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"benefactors","type":"address[]"},
		{"name":"kind","type":"uint16[]"}],"outputs":[
		{"name":"receiversNative","type":"address[]"},
		{"name":"rewardsNative","type":"uint256[]"}]}]`
)

var (
	withdrawalsABI = mustParseABI(withdrawalsABIJSON)
	rewardABI      = mustParseABI(rewardABIJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// EncodeWithdrawalsCall packs the executeSystemWithdrawals call for the
// given withdrawals. Amounts are in gwei.
func EncodeWithdrawalsCall(withdrawals types.Withdrawals) ([]byte, error) {
	amounts := make([]uint64, len(withdrawals))
	addresses := make([]common.Address, len(withdrawals))
	for i, w := range withdrawals {
		amounts[i] = w.Amount
		addresses[i] = w.Address
	}
	return withdrawalsABI.Pack("executeSystemWithdrawals", big.NewInt(params.MaxFailedWithdrawalsToProcess), amounts, addresses)
}

// EncodeRewardCall packs the reward call crediting the block author.
func EncodeRewardCall(coinbase common.Address) ([]byte, error) {
	// kind 0 is RewardAuthor
	return rewardABI.Pack("reward", []common.Address{coinbase}, []uint16{0})
}

// DecodeRewardResult unpacks the reward call's return data into a balance
// increment map. Amounts for repeated receivers are summed.
func DecodeRewardResult(output []byte) (map[common.Address]*uint256.Int, error) {
	values, err := rewardABI.Unpack("reward", output)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected number of return values %d", len(values))
	}
	receivers, ok := values[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected receivers type %T", values[0])
	}
	amounts, ok := values[1].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected amounts type %T", values[1])
	}
	increments := make(map[common.Address]*uint256.Int, len(receivers))
	for i := 0; i < len(receivers) && i < len(amounts); i++ {
		amount, overflow := uint256.FromBig(amounts[i])
		if overflow {
			return nil, fmt.Errorf("reward for %v overflows", receivers[i])
		}
		if prev, ok := increments[receivers[i]]; ok {
			amount.Add(amount, prev)
		}
		increments[receivers[i]] = amount
	}
	return increments, nil
}

// ApplyWithdrawalsCall executes the Gnosis withdrawals on the deposit
// contract. Withdrawals are not minted; the contract transfers GNO instead.
func (c *SystemCaller) ApplyWithdrawalsCall(evm *vm.EVM, contract common.Address, withdrawals types.Withdrawals) ([]byte, error) {
	data, err := EncodeWithdrawalsCall(withdrawals)
	if err != nil {
		return nil, err
	}
	res, err := c.Call(evm, contract, data)
	if err != nil {
		return nil, fmt.Errorf("withdrawal contract system call revert: %w", err)
	}
	if res.Result.Failed() {
		callErr := &SystemCallError{
			Name:     "withdrawal contract",
			Contract: contract,
			Status:   res.Result.Status,
			Output:   res.Result.Output,
			Err:      res.Result.HaltReason,
		}
		if res.Result.Status == vm.StatusRevert {
			callErr.Err = vm.ErrExecutionReverted
		}
		return nil, callErr
	}
	c.db.Commit(res.State)
	return res.Result.Output, nil
}

// ApplyBlockRewardsCall asks the block rewards contract which balances to
// mint for this block. A chain without a deployed rewards contract mints
// nothing.
func (c *SystemCaller) ApplyBlockRewardsCall(evm *vm.EVM, contract, coinbase common.Address) (map[common.Address]*uint256.Int, error) {
	data, err := EncodeRewardCall(coinbase)
	if err != nil {
		return nil, err
	}
	res, err := c.transact(evm, contract, data)
	if err != nil {
		return nil, &SystemCallError{Name: "block rewards contract", Contract: contract, Err: err}
	}
	if acct, ok := res.State[contract]; !ok || acct.CodeHash == types.EmptyCodeHash {
		return map[common.Address]*uint256.Int{}, nil
	}
	if res.Result.Failed() {
		return nil, &SystemCallError{
			Name:     "block rewards contract",
			Contract: contract,
			Status:   res.Result.Status,
			Output:   res.Result.Output,
			Err:      res.Result.HaltReason,
		}
	}
	increments, err := DecodeRewardResult(res.Result.Output)
	if err != nil {
		return nil, fmt.Errorf("error parsing block rewards contract system call return %q: %w", common.Bytes2Hex(res.Result.Output), err)
	}

	// The system account stays in the state after the rewards call even when
	// empty, as it did under AuRa.
	if sys, ok := res.State[params.SystemAddress]; !ok || sys.Status == state.Touched|state.LoadedAsNotExisting {
		created := state.NewEmptyAccount()
		created.Status = state.Touched | state.Created
		res.State[params.SystemAddress] = created
	} else {
		delete(res.State, params.SystemAddress)
	}
	delete(res.State, evm.Context.Coinbase)
	c.db.Commit(res.State)

	return increments, nil
}

// ApplyPostBlockCalls runs the Gnosis finishing calls: withdrawals once
// Shanghai is active, then block rewards. It returns the balances to mint.
func (c *SystemCaller) ApplyPostBlockCalls(evm *vm.EVM, withdrawals types.Withdrawals, hasWithdrawals bool) (map[common.Address]*uint256.Int, error) {
	deposit, ok := c.spec.DepositContract()
	if !ok {
		return nil, ErrMissingDepositContract
	}
	if c.spec.IsShanghai(evm.Context.Time) {
		if !hasWithdrawals {
			return nil, ErrMissingWithdrawals
		}
		if _, err := c.ApplyWithdrawalsCall(evm, deposit, withdrawals); err != nil {
			return nil, err
		}
	}
	return c.ApplyBlockRewardsCall(evm, c.spec.RewardContract(), evm.Context.Coinbase)
}
