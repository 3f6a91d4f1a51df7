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

package state

import (
	"maps"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/core/types"
)

// AccountStatus records how an account was reached during execution.
type AccountStatus uint8

const (
	// Loaded is set on accounts that existed when first read.
	Loaded AccountStatus = 1 << iota
	// Created marks accounts created in the current transaction.
	Created
	// SelfDestructed marks accounts destroyed in the current transaction.
	SelfDestructed
	// Touched marks accounts that must be considered on commit.
	Touched
	// LoadedAsNotExisting marks accounts that were absent when first read.
	LoadedAsNotExisting
)

// Has reports whether all of the given flags are set.
func (s AccountStatus) Has(flags AccountStatus) bool { return s&flags == flags }

func (s AccountStatus) String() string {
	if s == 0 {
		return "none"
	}
	var names []string
	for _, f := range []struct {
		flag AccountStatus
		name string
	}{
		{Loaded, "loaded"},
		{Created, "created"},
		{SelfDestructed, "selfdestructed"},
		{Touched, "touched"},
		{LoadedAsNotExisting, "notexisting"},
	} {
		if s&f.flag != 0 {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, "|")
}

// StorageSlot holds the value of a storage slot at the start of the
// transaction and its present value.
type StorageSlot struct {
	Original common.Hash
	Present  common.Hash
}

// IsChanged reports whether the slot was modified.
func (s StorageSlot) IsChanged() bool { return s.Original != s.Present }

// Account is the execution-time view of an account together with the storage
// slots accessed so far.
type Account struct {
	Nonce    uint64
	Balance  *uint256.Int
	CodeHash common.Hash
	Code     []byte
	Storage  map[common.Hash]StorageSlot
	Status   AccountStatus
}

// NewEmptyAccount returns an account with zero nonce and balance and no code.
func NewEmptyAccount() *Account {
	return &Account{
		Balance:  new(uint256.Int),
		CodeHash: types.EmptyCodeHash,
		Storage:  make(map[common.Hash]StorageSlot),
	}
}

// newAccountFromState wraps a stored account.
func newAccountFromState(acct *types.StateAccount) *Account {
	return &Account{
		Nonce:    acct.Nonce,
		Balance:  new(uint256.Int).Set(acct.Balance),
		CodeHash: acct.CodeHash,
		Storage:  make(map[common.Hash]StorageSlot),
	}
}

// IsEmpty reports whether the account is empty as defined by EIP-161.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && a.Balance.IsZero() && (a.CodeHash == types.EmptyCodeHash || a.CodeHash == common.Hash{})
}

// HasCode reports whether the account has non-empty code.
func (a *Account) HasCode() bool {
	return a.CodeHash != types.EmptyCodeHash && a.CodeHash != common.Hash{}
}

// MarkTouched flags the account for consideration on commit.
func (a *Account) MarkTouched() { a.Status |= Touched }

// IsTouched reports whether the account is flagged for commit.
func (a *Account) IsTouched() bool { return a.Status&Touched != 0 }

// MarkCreated flags the account as created in the current transaction.
func (a *Account) MarkCreated() { a.Status |= Created }

// Copy returns a deep copy of the account.
func (a *Account) Copy() *Account {
	cpy := *a
	cpy.Balance = new(uint256.Int).Set(a.Balance)
	cpy.Code = common.CopyBytes(a.Code)
	cpy.Storage = maps.Clone(a.Storage)
	if cpy.Storage == nil {
		cpy.Storage = make(map[common.Hash]StorageSlot)
	}
	return &cpy
}

// StateAccount returns the persisted form of the account.
func (a *Account) StateAccount() *types.StateAccount {
	return &types.StateAccount{
		Nonce:    a.Nonce,
		Balance:  new(uint256.Int).Set(a.Balance),
		CodeHash: a.CodeHash,
	}
}

// Diff is the set of accounts loaded or modified by one execution, ready to be
// committed to a StateDB.
type Diff map[common.Address]*Account
