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

package vm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/params"
)

// blobHashVersion is the only accepted versioned-hash version byte.
const blobHashVersion = 0x01

// ExecutionResult includes all output after executing given evm
// message no matter the execution itself is successful or not.
type ExecutionResult struct {
	Status      Status
	GasUsed     uint64 // Total used gas, refunded gas is deducted
	GasRefunded uint64
	Output      []byte // Returned data from evm (function result or data supplied with revert opcode)
	Logs        []*types.Log
	HaltReason  error

	// ContractAddress is set for successful contract creations.
	ContractAddress *common.Address
}

// Failed returns the indicator whether the execution is successful or not
func (result *ExecutionResult) Failed() bool { return result.Status != StatusSuccess }

// Err returns the error of a failed execution: ErrExecutionReverted for a
// revert, the halt reason for a halt.
func (result *ExecutionResult) Err() error {
	switch result.Status {
	case StatusRevert:
		return ErrExecutionReverted
	case StatusHalt:
		return result.HaltReason
	}
	return nil
}

// ResultAndState is the outcome of one transaction: its result and the state
// diff it produced. The diff is not applied to any state yet.
type ResultAndState struct {
	Result *ExecutionResult
	State  state.Diff
}

// EVM drives the execution of messages on top of a state view. It runs the
// handler pipeline around an external Interpreter.
//
// The EVM should never be reused and is not thread safe.
type EVM struct {
	// Context provides auxiliary blockchain related information
	Context BlockContext

	spec        *params.ChainSpec
	rules       params.Rules
	db          StateReader
	interpreter Interpreter
	handler     Handler

	// journal of the transaction in flight, nil in between
	journal *Journal
}

// NewEVM constructs an EVM instance with the supplied block context, state
// and handler.
func NewEVM(spec *params.ChainSpec, blockCtx BlockContext, db StateReader, interpreter Interpreter, handler Handler) *EVM {
	if blockCtx.BaseFee == nil {
		blockCtx.BaseFee = new(uint256.Int)
	}
	if blockCtx.BlobBaseFee == nil {
		blockCtx.BlobBaseFee = new(uint256.Int)
	}
	return &EVM{
		Context:     blockCtx,
		spec:        spec,
		rules:       spec.Rules(blockCtx.Number, blockCtx.Time),
		db:          db,
		interpreter: interpreter,
		handler:     handler,
	}
}

// ChainSpec returns the chain specification of the environment.
func (evm *EVM) ChainSpec() *params.ChainSpec { return evm.spec }

// Rules returns the fork rules of the block being executed.
func (evm *EVM) Rules() params.Rules { return evm.rules }

// Journal returns the state of the transaction in flight.
func (evm *EVM) Journal() *Journal { return evm.journal }

// Handler returns the fee handler.
func (evm *EVM) Handler() Handler { return evm.handler }

// SetDB replaces the state the next transactions execute on.
func (evm *EVM) SetDB(db StateReader) { evm.db = db }

// Transact executes msg and returns its result together with the state diff.
// An *InvalidTxError means the message cannot be included; any other error
// is fatal. Neither leaves state changes behind.
func (evm *EVM) Transact(msg *Message) (*ResultAndState, error) {
	if msg.Value == nil {
		msg.Value = new(uint256.Int)
	}
	if msg.GasPrice == nil {
		msg.GasPrice = new(uint256.Int)
	}
	gasPrice, err := evm.validateEnv(msg)
	if err != nil {
		return nil, err
	}
	intrinsic, floor, err := evm.initialGas(msg)
	if err != nil {
		return nil, err
	}
	evm.journal = newJournal(evm.db, evm.rules.IsCancun())
	defer func() { evm.journal = nil }()

	tx := &TxExecution{EVM: evm, Msg: msg, Journal: evm.journal, GasPrice: gasPrice}
	callerNonce, err := evm.callerNonce(msg)
	if err != nil {
		return nil, err
	}
	if err := evm.handler.ValidateAgainstState(tx); err != nil {
		return nil, err
	}
	evm.warmAccessList(msg)

	var authRefund uint64
	if msg.Type == types.SetCodeTxType {
		if authRefund, err = evm.applyAuthorizations(msg); err != nil {
			return nil, err
		}
	}
	result, contract, err := evm.execute(msg, callerNonce, msg.GasLimit-intrinsic)
	if err != nil {
		return nil, err
	}

	tx.GasSpent = msg.GasLimit - result.GasLeft

	// Authorizations stay applied when the frame fails, and so does their
	// refund. Storage refunds only count on success.
	refund := authRefund
	if result.Status == StatusSuccess && result.GasRefund > 0 {
		refund += uint64(result.GasRefund)
	}
	quotient := params.RefundQuotient
	if evm.rules.IsLondon() {
		quotient = params.RefundQuotientEIP3529
	}
	tx.GasRefunded = min(refund, tx.GasSpent/quotient)
	if evm.rules.IsPrague() && tx.GasUsed() < floor {
		tx.GasSpent, tx.GasRefunded = floor, 0
	}
	if err := evm.handler.ReimburseCaller(tx); err != nil {
		return nil, err
	}
	if err := evm.handler.RewardBeneficiary(tx); err != nil {
		return nil, err
	}

	diff, logs := evm.journal.finalize()
	res := &ExecutionResult{
		Status:      result.Status,
		GasUsed:     tx.GasUsed(),
		GasRefunded: tx.GasRefunded,
		Output:      result.Output,
		HaltReason:  result.HaltReason,
	}
	if result.Status == StatusSuccess {
		res.Logs = logs
		res.ContractAddress = contract
	}
	return &ResultAndState{Result: res, State: diff}, nil
}

// validateEnv checks the message against the block and returns the effective
// gas price.
func (evm *EVM) validateEnv(msg *Message) (*uint256.Int, error) {
	rules := evm.rules
	switch msg.Type {
	case types.LegacyTxType:
	case types.AccessListTxType:
		if !rules.IsBerlin() {
			return nil, invalidTx(ErrTxTypeNotSupported, "type %d", msg.Type)
		}
	case types.DynamicFeeTxType:
		if !rules.IsLondon() {
			return nil, invalidTx(ErrTxTypeNotSupported, "type %d", msg.Type)
		}
	case types.BlobTxType:
		if !rules.IsCancun() {
			return nil, invalidTx(ErrTxTypeNotSupported, "type %d", msg.Type)
		}
	case types.SetCodeTxType:
		if !rules.IsPrague() {
			return nil, invalidTx(ErrTxTypeNotSupported, "type %d", msg.Type)
		}
	default:
		return nil, invalidTx(ErrTxTypeNotSupported, "type %d", msg.Type)
	}
	if msg.GasLimit > evm.Context.GasLimit {
		return nil, invalidTx(ErrGasLimitTooHigh, "tx %d, block %d", msg.GasLimit, evm.Context.GasLimit)
	}

	gasPrice := msg.GasPrice
	if rules.IsLondon() {
		feeCap, tipCap := msg.GasFeeCap, msg.GasTipCap
		if feeCap == nil {
			feeCap = msg.GasPrice
		}
		if tipCap == nil {
			tipCap = msg.GasPrice
		}
		if tipCap.Gt(feeCap) {
			return nil, invalidTx(ErrTipAboveFeeCap, "address %v, maxPriorityFeePerGas: %s, maxFeePerGas: %s", msg.From.Hex(), tipCap, feeCap)
		}
		if feeCap.Lt(evm.Context.BaseFee) {
			return nil, invalidTx(ErrFeeCapTooLow, "address %v, maxFeePerGas: %s, baseFee: %s", msg.From.Hex(), feeCap, evm.Context.BaseFee)
		}
		gasPrice = EffectiveGasPrice(feeCap, tipCap, evm.Context.BaseFee)
	}

	if msg.Type == types.BlobTxType {
		if msg.To == nil {
			return nil, invalidTx(ErrBlobTxCreate, "")
		}
		if len(msg.BlobHashes) == 0 {
			return nil, invalidTx(ErrMissingBlobHashes, "")
		}
		if blob := evm.spec.BlobParamsAt(evm.Context.Time); blob != nil && uint64(len(msg.BlobHashes)) > blob.MaxBlobsPerTx {
			return nil, invalidTx(ErrTooManyBlobs, "have %d, max %d", len(msg.BlobHashes), blob.MaxBlobsPerTx)
		}
		for i, hash := range msg.BlobHashes {
			if hash[0] != blobHashVersion {
				return nil, invalidTx(ErrInvalidBlobVersion, "blob %d version %d", i, hash[0])
			}
		}
		if msg.BlobGasFeeCap == nil || msg.BlobGasFeeCap.Lt(evm.Context.BlobBaseFee) {
			return nil, invalidTx(ErrBlobFeeCapTooLow, "address %v, blobBaseFee: %s", msg.From.Hex(), evm.Context.BlobBaseFee)
		}
	}
	if msg.Type == types.SetCodeTxType {
		if msg.To == nil {
			return nil, invalidTx(ErrSetCodeTxCreate, "sender %v", msg.From)
		}
		if len(msg.SetCodeAuthorizations) == 0 {
			return nil, invalidTx(ErrEmptyAuthList, "sender %v", msg.From)
		}
	}
	if msg.IsCreate() && rules.IsShanghai() && len(msg.Data) > params.MaxInitCodeSize {
		return nil, invalidTx(ErrMaxInitCodeSizeExceeded, "code size %v limit %v", len(msg.Data), params.MaxInitCodeSize)
	}
	return gasPrice, nil
}

// initialGas returns the intrinsic gas and the EIP-7623 floor of msg.
func (evm *EVM) initialGas(msg *Message) (uint64, uint64, error) {
	intrinsic, err := IntrinsicGas(msg.Data, msg.AccessList, uint64(len(msg.SetCodeAuthorizations)), msg.IsCreate(), evm.rules)
	if err != nil {
		return 0, 0, invalidTx(err, "")
	}
	if msg.GasLimit < intrinsic {
		return 0, 0, invalidTx(ErrIntrinsicGas, "have %d, want %d", msg.GasLimit, intrinsic)
	}
	var floor uint64
	if evm.rules.IsPrague() {
		if floor, err = FloorDataGas(msg.Data); err != nil {
			return 0, 0, invalidTx(err, "")
		}
		if msg.GasLimit < floor {
			return 0, 0, invalidTx(ErrFloorDataGas, "have %d, want %d", msg.GasLimit, floor)
		}
	}
	return intrinsic, floor, nil
}

func (evm *EVM) callerNonce(msg *Message) (uint64, error) {
	caller, err := evm.journal.Account(msg.From)
	if err != nil {
		return 0, err
	}
	return caller.Nonce, nil
}

// warmAccessList pre-warms the sender, the destination, the coinbase, the
// precompiles and the access list.
func (evm *EVM) warmAccessList(msg *Message) {
	j := evm.journal
	j.AccessAddress(msg.From)
	if msg.To != nil {
		j.AccessAddress(*msg.To)
	}
	if evm.rules.IsShanghai() {
		j.AccessAddress(evm.Context.Coinbase)
	}
	for i := 1; i <= 0x11; i++ {
		j.AccessAddress(common.BytesToAddress([]byte{byte(i)}))
	}
	for _, tuple := range msg.AccessList {
		j.AccessAddress(tuple.Address)
		for _, key := range tuple.StorageKeys {
			j.AccessSlot(tuple.Address, key)
		}
	}
}

// applyAuthorizations installs the EIP-7702 delegations of msg and returns
// the gas refund for authorities that already existed. Invalid tuples are
// skipped.
func (evm *EVM) applyAuthorizations(msg *Message) (uint64, error) {
	var refund uint64
	chainID := uint256.MustFromBig(evm.spec.ChainID())
	for _, auth := range msg.SetCodeAuthorizations {
		if !auth.ChainID.IsZero() && !auth.ChainID.Eq(chainID) {
			continue
		}
		if auth.Nonce+1 < auth.Nonce {
			continue
		}
		authority, err := auth.Authority()
		if err != nil {
			continue
		}
		acct, err := evm.journal.Account(authority)
		if err != nil {
			return 0, err
		}
		evm.journal.AccessAddress(authority)
		if _, delegated := ParseDelegation(acct.Code); acct.HasCode() && !delegated {
			continue
		}
		if acct.Nonce != auth.Nonce {
			continue
		}
		if !acct.Status.Has(state.LoadedAsNotExisting) {
			refund += params.CallNewAccountGas - params.TxAuthTupleGas
		}
		if auth.Address == (common.Address{}) {
			err = evm.journal.SetCode(authority, nil)
		} else {
			err = evm.journal.SetCode(authority, AddressToDelegation(auth.Address))
		}
		if err != nil {
			return 0, err
		}
		if err := evm.journal.SetNonce(authority, auth.Nonce+1); err != nil {
			return 0, err
		}
	}
	return refund, nil
}

// execute runs the top-level frame. The returned address is the deployed
// contract for successful creations.
func (evm *EVM) execute(msg *Message, callerNonce uint64, gas uint64) (FrameResult, *common.Address, error) {
	j := evm.journal
	checkpoint := j.Checkpoint()

	fail := func(res FrameResult) (FrameResult, *common.Address, error) {
		j.RevertTo(checkpoint)
		if res.Status == StatusHalt {
			res.GasLeft = 0
		}
		return res, nil, nil
	}
	halt := func(reason error) (FrameResult, *common.Address, error) {
		return fail(FrameResult{Status: StatusHalt, HaltReason: reason})
	}

	if !msg.IsCreate() {
		to := *msg.To
		if err := j.Transfer(msg.From, to, msg.Value); err != nil {
			if err == ErrInsufficientBalance {
				return halt(err)
			}
			return FrameResult{}, nil, err
		}
		target, err := j.Account(to)
		if err != nil {
			return FrameResult{}, nil, err
		}
		code := target.Code
		if delegate, ok := ParseDelegation(code); ok && evm.rules.IsPrague() {
			j.AccessAddress(delegate)
			acct, err := j.Account(delegate)
			if err != nil {
				return FrameResult{}, nil, err
			}
			code = acct.Code
		}
		if len(code) == 0 {
			return FrameResult{Status: StatusSuccess, GasLeft: gas}, nil, nil
		}
		res, err := evm.interpreter.Run(evm, &Frame{
			Caller:  msg.From,
			Address: to,
			Code:    code,
			Input:   msg.Data,
			Value:   msg.Value,
			Gas:     gas,
		})
		if err != nil {
			return FrameResult{}, nil, err
		}
		if res.Status != StatusSuccess {
			return fail(res)
		}
		return res, nil, nil
	}

	contract := crypto.CreateAddress(msg.From, callerNonce)
	j.AccessAddress(contract)
	existing, err := j.Account(contract)
	if err != nil {
		return FrameResult{}, nil, err
	}
	if existing.Nonce != 0 || existing.HasCode() {
		return halt(ErrContractAddressCollision)
	}
	var nonce uint64
	if evm.rules.IsSpuriousDragon() {
		nonce = 1
	}
	if err := j.CreateAccount(contract, nonce); err != nil {
		return FrameResult{}, nil, err
	}
	if err := j.Transfer(msg.From, contract, msg.Value); err != nil {
		if err == ErrInsufficientBalance {
			return halt(err)
		}
		return FrameResult{}, nil, err
	}
	res, err := evm.interpreter.Run(evm, &Frame{
		Caller:   msg.From,
		Address:  contract,
		Code:     msg.Data,
		Value:    msg.Value,
		Gas:      gas,
		IsCreate: true,
	})
	if err != nil {
		return FrameResult{}, nil, err
	}
	if res.Status != StatusSuccess {
		return fail(res)
	}
	code := res.Output
	if len(code) > 0 && code[0] == 0xef && evm.rules.IsLondon() {
		return halt(ErrInvalidCode)
	}
	if len(code) > params.MaxCodeSize && evm.rules.IsSpuriousDragon() {
		return halt(ErrMaxCodeSizeExceeded)
	}
	deposit := uint64(len(code)) * params.CreateDataGas
	if res.GasLeft < deposit {
		if evm.rules.IsHomestead() {
			return halt(ErrCodeStoreOutOfGas)
		}
		// Frontier leaves an empty contract behind.
		code = nil
		deposit = 0
	}
	res.GasLeft -= deposit
	if err := j.SetCode(contract, code); err != nil {
		return FrameResult{}, nil, err
	}
	res.Output = nil
	return res, &contract, nil
}

func (evm *EVM) String() string {
	return fmt.Sprintf("EVM{number: %d, time: %d}", evm.Context.Number, evm.Context.Time)
}
