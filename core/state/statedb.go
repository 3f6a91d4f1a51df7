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

// Package state provides the copy-on-write state view a block is executed
// against.
package state

import (
	"bytes"
	"maps"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/core/types"
)

// stateObject is a committed modification layered over the reader.
type stateObject struct {
	account types.StateAccount
	code    []byte
	storage map[common.Hash]common.Hash

	deleted bool // account no longer exists
	wiped   bool // storage below this layer must not be read
}

func (o *stateObject) copy() *stateObject {
	cpy := &stateObject{
		account: *o.account.Copy(),
		code:    o.code,
		storage: maps.Clone(o.storage),
		deleted: o.deleted,
		wiped:   o.wiped,
	}
	if cpy.storage == nil {
		cpy.storage = make(map[common.Hash]common.Hash)
	}
	return cpy
}

// StateDB is a copy-on-write view over a Reader. Execution results are merged
// into it with Commit and IncrementBalances; the underlying Reader is never
// written to.
//
// A StateDB is exclusively owned by one block attempt and is not safe for
// concurrent use.
type StateDB struct {
	reader  Reader
	objects map[common.Address]*stateObject

	// stateClear enables EIP-161 removal of empty touched accounts on commit.
	stateClear bool

	// DB error.
	// State objects are used by the consensus core and VM which are
	// unable to deal with database-level errors. Any error that occurs
	// during a database read is memoized here and will eventually be
	// returned by StateDB.Error.
	dbErr error
}

// New creates a state view over reader.
func New(reader Reader) *StateDB {
	return &StateDB{
		reader:  reader,
		objects: make(map[common.Address]*stateObject),
	}
}

// setError remembers the first non-nil error it is called with.
func (s *StateDB) setError(err error) {
	if s.dbErr == nil {
		s.dbErr = err
	}
}

// Error returns the memorized database failure occurred earlier.
func (s *StateDB) Error() error {
	return s.dbErr
}

// SetStateClearFlag toggles removal of empty touched accounts on commit.
func (s *StateDB) SetStateClearFlag(enabled bool) { s.stateClear = enabled }

// StateClearFlag reports whether empty touched accounts are removed on commit.
func (s *StateDB) StateClearFlag() bool { return s.stateClear }

// Reader returns the reader the view is layered on.
func (s *StateDB) Reader() Reader { return s.reader }

// Basic returns the current account at addr including its code, or nil if
// the account does not exist. The result is a copy the caller may modify.
func (s *StateDB) Basic(addr common.Address) (*Account, error) {
	if obj, ok := s.objects[addr]; ok {
		if obj.deleted {
			return nil, nil
		}
		acct := newAccountFromState(&obj.account)
		acct.Code = obj.code
		return acct, nil
	}
	stored, err := s.reader.Account(addr)
	if err != nil || stored == nil {
		return nil, err
	}
	acct := newAccountFromState(stored)
	if acct.HasCode() {
		if acct.Code, err = s.reader.Code(acct.CodeHash); err != nil {
			return nil, err
		}
	}
	return acct, nil
}

// Storage returns the current value of a storage slot.
func (s *StateDB) Storage(addr common.Address, slot common.Hash) (common.Hash, error) {
	if obj, ok := s.objects[addr]; ok {
		if value, ok := obj.storage[slot]; ok {
			return value, nil
		}
		if obj.wiped || obj.deleted {
			return common.Hash{}, nil
		}
	}
	return s.reader.Storage(addr, slot)
}

// CodeByHash returns the bytecode with the given hash.
func (s *StateDB) CodeByHash(codeHash common.Hash) ([]byte, error) {
	if codeHash == types.EmptyCodeHash || codeHash == (common.Hash{}) {
		return nil, nil
	}
	for _, obj := range s.objects {
		if obj.account.CodeHash == codeHash && len(obj.code) > 0 {
			return obj.code, nil
		}
	}
	return s.reader.Code(codeHash)
}

// Exist reports whether the account at addr exists.
func (s *StateDB) Exist(addr common.Address) bool {
	acct, err := s.Basic(addr)
	if err != nil {
		s.setError(err)
		return false
	}
	return acct != nil
}

// GetBalance returns the balance of addr, zero if it does not exist.
func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	acct, err := s.Basic(addr)
	if err != nil {
		s.setError(err)
	}
	if acct == nil {
		return new(uint256.Int)
	}
	return acct.Balance
}

// GetNonce returns the nonce of addr, zero if it does not exist.
func (s *StateDB) GetNonce(addr common.Address) uint64 {
	acct, err := s.Basic(addr)
	if err != nil {
		s.setError(err)
	}
	if acct == nil {
		return 0
	}
	return acct.Nonce
}

// GetCode returns the code of addr.
func (s *StateDB) GetCode(addr common.Address) []byte {
	acct, err := s.Basic(addr)
	if err != nil {
		s.setError(err)
	}
	if acct == nil {
		return nil
	}
	return acct.Code
}

// GetCodeHash returns the code hash of addr. Missing accounts report the
// empty code hash.
func (s *StateDB) GetCodeHash(addr common.Address) common.Hash {
	acct, err := s.Basic(addr)
	if err != nil {
		s.setError(err)
	}
	if acct == nil || acct.CodeHash == (common.Hash{}) {
		return types.EmptyCodeHash
	}
	return acct.CodeHash
}

// GetState returns the value of a storage slot.
func (s *StateDB) GetState(addr common.Address, slot common.Hash) common.Hash {
	value, err := s.Storage(addr, slot)
	if err != nil {
		s.setError(err)
	}
	return value
}

// object returns the writable layer object of addr, creating it from the
// reader if needed. Missing accounts are created empty.
func (s *StateDB) object(addr common.Address) *stateObject {
	if obj, ok := s.objects[addr]; ok {
		if obj.deleted {
			obj.deleted = false
			obj.account = *types.NewEmptyStateAccount()
			obj.code = nil
			obj.storage = make(map[common.Hash]common.Hash)
		}
		return obj
	}
	obj := &stateObject{account: *types.NewEmptyStateAccount(), storage: make(map[common.Hash]common.Hash)}
	acct, err := s.Basic(addr)
	if err != nil {
		s.setError(err)
	}
	if acct != nil {
		obj.account = *acct.StateAccount()
		obj.code = acct.Code
	}
	s.objects[addr] = obj
	return obj
}

// SetCode replaces the code of addr keeping its balance and nonce. An empty
// code clears it.
func (s *StateDB) SetCode(addr common.Address, code []byte) {
	obj := s.object(addr)
	if len(code) == 0 {
		obj.code = nil
		obj.account.CodeHash = types.EmptyCodeHash
		return
	}
	obj.code = common.CopyBytes(code)
	obj.account.CodeHash = crypto.Keccak256Hash(code)
}

// Commit merges an execution diff into the view.
//
// Untouched accounts are ignored. Self-destructed accounts are removed with
// their storage. Created accounts are stored as given, replacing any previous
// storage, even when they are empty. Empty touched accounts are removed when
// the state-clear flag is set. All other touched accounts are updated and
// their changed storage slots merged.
func (s *StateDB) Commit(diff Diff) {
	for addr, acct := range diff {
		if !acct.IsTouched() {
			continue
		}
		switch {
		case acct.Status&SelfDestructed != 0:
			s.objects[addr] = &stateObject{deleted: true, wiped: true, storage: make(map[common.Hash]common.Hash)}

		case acct.Status&Created != 0:
			obj := &stateObject{account: *acct.StateAccount(), code: acct.Code, wiped: true, storage: make(map[common.Hash]common.Hash)}
			for slot, value := range acct.Storage {
				obj.storage[slot] = value.Present
			}
			s.objects[addr] = obj

		case s.stateClear && acct.IsEmpty():
			s.objects[addr] = &stateObject{deleted: true, wiped: true, storage: make(map[common.Hash]common.Hash)}

		default:
			obj := s.object(addr)
			obj.account = *acct.StateAccount()
			obj.code = acct.Code
			for slot, value := range acct.Storage {
				if value.IsChanged() {
					obj.storage[slot] = value.Present
				}
			}
		}
	}
}

// IncrementBalances credits every address with its amount, creating missing
// accounts. Zero amounts are skipped.
func (s *StateDB) IncrementBalances(increments map[common.Address]*uint256.Int) error {
	for addr, amount := range increments {
		if amount == nil || amount.IsZero() {
			continue
		}
		obj := s.object(addr)
		obj.account.Balance = new(uint256.Int).Add(obj.account.Balance, amount)
	}
	return s.dbErr
}

// Copy returns an independent copy of the view sharing the same reader.
func (s *StateDB) Copy() *StateDB {
	cpy := &StateDB{
		reader:     s.reader,
		objects:    make(map[common.Address]*stateObject, len(s.objects)),
		stateClear: s.stateClear,
		dbErr:      s.dbErr,
	}
	for addr, obj := range s.objects {
		cpy.objects[addr] = obj.copy()
	}
	return cpy
}

// Changes is the flattened set of modifications held by a StateDB, in the
// form a persistent store applies them.
type Changes struct {
	// Accounts maps each modified address to its new value. A nil value
	// deletes the account.
	Accounts map[common.Address]*types.StateAccount

	// Wiped lists accounts whose stored slots must be cleared before Storage
	// is applied.
	Wiped []common.Address

	// Storage holds the slot values to write.
	Storage map[common.Address]map[common.Hash]common.Hash

	// Code holds new bytecode keyed by hash.
	Code map[common.Hash][]byte
}

// Changes returns every modification layered over the reader.
func (s *StateDB) Changes() *Changes {
	changes := &Changes{
		Accounts: make(map[common.Address]*types.StateAccount, len(s.objects)),
		Storage:  make(map[common.Address]map[common.Hash]common.Hash),
		Code:     make(map[common.Hash][]byte),
	}
	for addr, obj := range s.objects {
		if obj.wiped {
			changes.Wiped = append(changes.Wiped, addr)
		}
		if obj.deleted {
			changes.Accounts[addr] = nil
			continue
		}
		changes.Accounts[addr] = obj.account.Copy()
		if len(obj.storage) > 0 {
			changes.Storage[addr] = maps.Clone(obj.storage)
		}
		if len(obj.code) > 0 {
			changes.Code[obj.account.CodeHash] = obj.code
		}
	}
	slices.SortFunc(changes.Wiped, func(a, b common.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	return changes
}
