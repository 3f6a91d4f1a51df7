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
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/core/types"
)

// Reader provides read access to committed state. Implementations must be safe
// for concurrent use.
type Reader interface {
	// Account returns the account at addr, or nil if it does not exist.
	Account(addr common.Address) (*types.StateAccount, error)

	// Storage returns the value of a storage slot. Missing slots read as zero.
	Storage(addr common.Address, slot common.Hash) (common.Hash, error)

	// Code returns the bytecode with the given hash.
	Code(codeHash common.Hash) ([]byte, error)
}

// MemoryReader is an in-memory Reader, mostly used for genesis allocations and
// tests.
type MemoryReader struct {
	mu       sync.RWMutex
	accounts map[common.Address]*types.StateAccount
	storage  map[common.Address]map[common.Hash]common.Hash
	code     map[common.Hash][]byte
}

// NewMemoryReader creates an empty in-memory state.
func NewMemoryReader() *MemoryReader {
	return &MemoryReader{
		accounts: make(map[common.Address]*types.StateAccount),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		code:     make(map[common.Hash][]byte),
	}
}

// SetAccount installs an account with the given balance, nonce and code.
func (m *MemoryReader) SetAccount(addr common.Address, balance *uint256.Int, nonce uint64, code []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct := types.NewEmptyStateAccount()
	acct.Nonce = nonce
	if balance != nil {
		acct.Balance.Set(balance)
	}
	if len(code) > 0 {
		acct.CodeHash = crypto.Keccak256Hash(code)
		m.code[acct.CodeHash] = common.CopyBytes(code)
	}
	m.accounts[addr] = acct
}

// SetStorage sets a storage slot of addr.
func (m *MemoryReader) SetStorage(addr common.Address, slot, value common.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.storage[addr] == nil {
		m.storage[addr] = make(map[common.Hash]common.Hash)
	}
	m.storage[addr][slot] = value
}

func (m *MemoryReader) Account(addr common.Address) (*types.StateAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if acct, ok := m.accounts[addr]; ok {
		return acct.Copy(), nil
	}
	return nil, nil
}

func (m *MemoryReader) Storage(addr common.Address, slot common.Hash) (common.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.storage[addr][slot], nil
}

func (m *MemoryReader) Code(codeHash common.Hash) ([]byte, error) {
	if codeHash == types.EmptyCodeHash {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	return common.CopyBytes(m.code[codeHash]), nil
}
