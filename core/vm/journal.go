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

package vm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
)

// StateReader is the committed state a transaction executes on top of.
type StateReader interface {
	Basic(addr common.Address) (*state.Account, error)
	Storage(addr common.Address, slot common.Hash) (common.Hash, error)
}

// journalEntry is a revertible change.
type journalEntry interface {
	revert(j *Journal)
}

// Journal is the transaction-scoped state of the EVM. Every account the
// transaction reads is loaded into it and every write is recorded so that
// failed frames can be rolled back.
type Journal struct {
	db       StateReader
	accounts map[common.Address]*state.Account
	entries  []journalEntry
	logs     []*types.Log

	warmAddresses map[common.Address]struct{}
	warmSlots     map[common.Address]map[common.Hash]struct{}
	transient     map[common.Address]map[common.Hash]common.Hash

	cancun bool // EIP-6780 selfdestruct rules
}

func newJournal(db StateReader, cancun bool) *Journal {
	return &Journal{
		db:            db,
		accounts:      make(map[common.Address]*state.Account),
		warmAddresses: make(map[common.Address]struct{}),
		warmSlots:     make(map[common.Address]map[common.Hash]struct{}),
		transient:     make(map[common.Address]map[common.Hash]common.Hash),
		cancun:        cancun,
	}
}

// Account loads the account at addr. Missing accounts are returned as empty
// accounts flagged LoadedAsNotExisting. The returned value is live; it must
// only be modified through the journal.
func (j *Journal) Account(addr common.Address) (*state.Account, error) {
	if acct, ok := j.accounts[addr]; ok {
		return acct, nil
	}
	acct, err := j.db.Basic(addr)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		acct = state.NewEmptyAccount()
		acct.Status = state.LoadedAsNotExisting
	} else {
		acct.Status = state.Loaded
	}
	j.accounts[addr] = acct
	return acct, nil
}

// Touch marks the account as touched so it is considered on commit.
func (j *Journal) Touch(addr common.Address) error {
	acct, err := j.Account(addr)
	if err != nil {
		return err
	}
	j.touch(addr, acct)
	return nil
}

func (j *Journal) touch(addr common.Address, acct *state.Account) {
	if !acct.IsTouched() {
		j.entries = append(j.entries, touchChange{addr: addr})
		acct.MarkTouched()
	}
}

// Balance returns the balance of addr.
func (j *Journal) Balance(addr common.Address) (*uint256.Int, error) {
	acct, err := j.Account(addr)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(acct.Balance), nil
}

// AddBalance credits amount to addr and touches it.
func (j *Journal) AddBalance(addr common.Address, amount *uint256.Int) error {
	acct, err := j.Account(addr)
	if err != nil {
		return err
	}
	j.touch(addr, acct)
	j.entries = append(j.entries, balanceChange{addr: addr, prev: acct.Balance})
	acct.Balance = new(uint256.Int).Add(acct.Balance, amount)
	return nil
}

// SubBalance debits amount from addr and touches it. It fails with
// ErrInsufficientBalance without modifying anything if the balance is short.
func (j *Journal) SubBalance(addr common.Address, amount *uint256.Int) error {
	acct, err := j.Account(addr)
	if err != nil {
		return err
	}
	if acct.Balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	j.touch(addr, acct)
	j.entries = append(j.entries, balanceChange{addr: addr, prev: acct.Balance})
	acct.Balance = new(uint256.Int).Sub(acct.Balance, amount)
	return nil
}

// Transfer moves value from one account to another, touching both.
func (j *Journal) Transfer(from, to common.Address, value *uint256.Int) error {
	if err := j.SubBalance(from, value); err != nil {
		return err
	}
	return j.AddBalance(to, value)
}

// SetNonce sets the nonce of addr.
func (j *Journal) SetNonce(addr common.Address, nonce uint64) error {
	acct, err := j.Account(addr)
	if err != nil {
		return err
	}
	j.touch(addr, acct)
	j.entries = append(j.entries, nonceChange{addr: addr, prev: acct.Nonce})
	acct.Nonce = nonce
	return nil
}

// SetCode replaces the code of addr.
func (j *Journal) SetCode(addr common.Address, code []byte) error {
	acct, err := j.Account(addr)
	if err != nil {
		return err
	}
	j.touch(addr, acct)
	j.entries = append(j.entries, codeChange{addr: addr, prevCode: acct.Code, prevHash: acct.CodeHash})
	if len(code) == 0 {
		acct.Code, acct.CodeHash = nil, types.EmptyCodeHash
	} else {
		acct.Code, acct.CodeHash = common.CopyBytes(code), crypto.Keccak256Hash(code)
	}
	return nil
}

// SLoad returns a storage slot with its value at the start of the
// transaction.
func (j *Journal) SLoad(addr common.Address, slot common.Hash) (state.StorageSlot, error) {
	acct, err := j.Account(addr)
	if err != nil {
		return state.StorageSlot{}, err
	}
	if value, ok := acct.Storage[slot]; ok {
		return value, nil
	}
	var value common.Hash
	// Created accounts start from empty storage.
	if acct.Status&(state.Created|state.LoadedAsNotExisting) == 0 {
		if value, err = j.db.Storage(addr, slot); err != nil {
			return state.StorageSlot{}, err
		}
	}
	loaded := state.StorageSlot{Original: value, Present: value}
	acct.Storage[slot] = loaded
	return loaded, nil
}

// SStore writes a storage slot.
func (j *Journal) SStore(addr common.Address, slot, value common.Hash) error {
	current, err := j.SLoad(addr, slot)
	if err != nil {
		return err
	}
	acct := j.accounts[addr]
	j.touch(addr, acct)
	j.entries = append(j.entries, storageChange{addr: addr, slot: slot, prev: current.Present})
	current.Present = value
	acct.Storage[slot] = current
	return nil
}

// TLoad returns an EIP-1153 transient storage value.
func (j *Journal) TLoad(addr common.Address, key common.Hash) common.Hash {
	return j.transient[addr][key]
}

// TStore writes an EIP-1153 transient storage value.
func (j *Journal) TStore(addr common.Address, key, value common.Hash) {
	j.entries = append(j.entries, transientChange{addr: addr, key: key, prev: j.TLoad(addr, key)})
	j.setTransient(addr, key, value)
}

func (j *Journal) setTransient(addr common.Address, key, value common.Hash) {
	if _, ok := j.transient[addr]; !ok {
		j.transient[addr] = make(map[common.Hash]common.Hash)
	}
	j.transient[addr][key] = value
}

// AddLog records a log emitted by the transaction.
func (j *Journal) AddLog(log *types.Log) {
	j.entries = append(j.entries, addLogChange{})
	j.logs = append(j.logs, log)
}

// CreateAccount marks addr as created in this transaction, resetting its
// storage and setting its nonce. Any balance is kept.
func (j *Journal) CreateAccount(addr common.Address, nonce uint64) error {
	acct, err := j.Account(addr)
	if err != nil {
		return err
	}
	j.entries = append(j.entries, resetChange{addr: addr, prev: acct.Copy()})
	acct.Storage = make(map[common.Hash]state.StorageSlot)
	acct.Nonce = nonce
	acct.Status |= state.Created | state.Touched
	return nil
}

// SelfDestruct moves the balance of addr to beneficiary and destroys the
// account. From Cancun on, only accounts created in the same transaction are
// destroyed; others just have their balance moved.
func (j *Journal) SelfDestruct(addr, beneficiary common.Address) error {
	acct, err := j.Account(addr)
	if err != nil {
		return err
	}
	balance := new(uint256.Int).Set(acct.Balance)
	if addr != beneficiary {
		if err := j.Transfer(addr, beneficiary, balance); err != nil {
			return err
		}
	}
	if j.cancun && acct.Status&state.Created == 0 {
		return j.Touch(addr)
	}
	j.entries = append(j.entries, resetChange{addr: addr, prev: acct.Copy()})
	acct.Balance = new(uint256.Int)
	acct.Status |= state.SelfDestructed | state.Touched
	return nil
}

// AccessAddress adds addr to the EIP-2929 access list and reports whether it
// was cold.
func (j *Journal) AccessAddress(addr common.Address) bool {
	if _, ok := j.warmAddresses[addr]; ok {
		return false
	}
	j.entries = append(j.entries, accessListAddAccountChange{addr: addr})
	j.warmAddresses[addr] = struct{}{}
	return true
}

// AccessSlot adds a storage slot to the EIP-2929 access list and reports
// whether it was cold.
func (j *Journal) AccessSlot(addr common.Address, slot common.Hash) bool {
	slots, ok := j.warmSlots[addr]
	if !ok {
		slots = make(map[common.Hash]struct{})
		j.warmSlots[addr] = slots
	}
	if _, ok := slots[slot]; ok {
		return false
	}
	j.entries = append(j.entries, accessListAddSlotChange{addr: addr, slot: slot})
	slots[slot] = struct{}{}
	return true
}

// Checkpoint returns an identifier of the current journal position.
func (j *Journal) Checkpoint() int { return len(j.entries) }

// RevertTo undoes every change recorded after the checkpoint.
func (j *Journal) RevertTo(checkpoint int) {
	for i := len(j.entries) - 1; i >= checkpoint; i-- {
		j.entries[i].revert(j)
	}
	j.entries = j.entries[:checkpoint]
}

// Logs returns the logs emitted so far.
func (j *Journal) Logs() []*types.Log { return j.logs }

// finalize hands out the accumulated state and logs. The journal must not
// be used afterwards.
func (j *Journal) finalize() (state.Diff, []*types.Log) {
	diff := state.Diff(j.accounts)
	logs := j.logs
	j.accounts, j.logs, j.entries = nil, nil, nil
	return diff, logs
}

type (
	touchChange struct {
		addr common.Address
	}
	balanceChange struct {
		addr common.Address
		prev *uint256.Int
	}
	nonceChange struct {
		addr common.Address
		prev uint64
	}
	codeChange struct {
		addr     common.Address
		prevCode []byte
		prevHash common.Hash
	}
	storageChange struct {
		addr common.Address
		slot common.Hash
		prev common.Hash
	}
	transientChange struct {
		addr common.Address
		key  common.Hash
		prev common.Hash
	}
	resetChange struct {
		addr common.Address
		prev *state.Account
	}
	accessListAddAccountChange struct {
		addr common.Address
	}
	accessListAddSlotChange struct {
		addr common.Address
		slot common.Hash
	}
)

type addLogChange struct{}

func (ch touchChange) revert(j *Journal) {
	j.accounts[ch.addr].Status &^= state.Touched
}

func (ch balanceChange) revert(j *Journal) {
	j.accounts[ch.addr].Balance = ch.prev
}

func (ch nonceChange) revert(j *Journal) {
	j.accounts[ch.addr].Nonce = ch.prev
}

func (ch codeChange) revert(j *Journal) {
	acct := j.accounts[ch.addr]
	acct.Code, acct.CodeHash = ch.prevCode, ch.prevHash
}

func (ch storageChange) revert(j *Journal) {
	acct := j.accounts[ch.addr]
	slot := acct.Storage[ch.slot]
	slot.Present = ch.prev
	acct.Storage[ch.slot] = slot
}

func (ch transientChange) revert(j *Journal) {
	j.setTransient(ch.addr, ch.key, ch.prev)
}

func (ch resetChange) revert(j *Journal) {
	*j.accounts[ch.addr] = *ch.prev
}

func (ch addLogChange) revert(j *Journal) {
	j.logs = j.logs[:len(j.logs)-1]
}

func (ch accessListAddAccountChange) revert(j *Journal) {
	delete(j.warmAddresses, ch.addr)
}

func (ch accessListAddSlotChange) revert(j *Journal) {
	delete(j.warmSlots[ch.addr], ch.slot)
}
