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

	"github.com/gnosischain/gnosis-engine/core/types"
)

type cachedAccount struct {
	info    *types.StateAccount // nil if the account does not exist
	storage map[common.Hash]common.Hash
}

// CachedReads memoizes reads from an underlying Reader. A payload job keeps
// one instance across rebuilds on the same parent so later attempts do not go
// back to disk for state the first attempt already loaded.
type CachedReads struct {
	mu       sync.Mutex
	accounts map[common.Address]*cachedAccount
	code     map[common.Hash][]byte
}

// NewCachedReads returns an empty read cache.
func NewCachedReads() *CachedReads {
	return &CachedReads{
		accounts: make(map[common.Address]*cachedAccount),
		code:     make(map[common.Hash][]byte),
	}
}

// InsertAccount seeds the cache with an account and some of its storage.
func (c *CachedReads) InsertAccount(addr common.Address, info *types.StateAccount, storage map[common.Hash]common.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cachedAccount{storage: make(map[common.Hash]common.Hash, len(storage))}
	if info != nil {
		entry.info = info.Copy()
	}
	for k, v := range storage {
		entry.storage[k] = v
	}
	c.accounts[addr] = entry
}

// Len returns the number of cached accounts.
func (c *CachedReads) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.accounts)
}

// Reader returns a Reader serving from the cache and filling it from inner on
// a miss.
func (c *CachedReads) Reader(inner Reader) Reader {
	return &cachedReader{cache: c, inner: inner}
}

type cachedReader struct {
	cache *CachedReads
	inner Reader
}

func (r *cachedReader) account(addr common.Address) (*cachedAccount, error) {
	c := r.cache
	c.mu.Lock()
	entry, ok := c.accounts[addr]
	c.mu.Unlock()
	if ok {
		return entry, nil
	}
	info, err := r.inner.Account(addr)
	if err != nil {
		return nil, err
	}
	entry = &cachedAccount{info: info, storage: make(map[common.Hash]common.Hash)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.accounts[addr]; ok {
		return existing, nil
	}
	c.accounts[addr] = entry
	return entry, nil
}

func (r *cachedReader) Account(addr common.Address) (*types.StateAccount, error) {
	entry, err := r.account(addr)
	if err != nil || entry.info == nil {
		return nil, err
	}
	return entry.info.Copy(), nil
}

func (r *cachedReader) Storage(addr common.Address, slot common.Hash) (common.Hash, error) {
	entry, err := r.account(addr)
	if err != nil {
		return common.Hash{}, err
	}
	c := r.cache
	c.mu.Lock()
	value, ok := entry.storage[slot]
	c.mu.Unlock()
	if ok {
		return value, nil
	}
	if value, err = r.inner.Storage(addr, slot); err != nil {
		return common.Hash{}, err
	}
	c.mu.Lock()
	entry.storage[slot] = value
	c.mu.Unlock()
	return value, nil
}

func (r *cachedReader) Code(codeHash common.Hash) ([]byte, error) {
	c := r.cache
	c.mu.Lock()
	code, ok := c.code[codeHash]
	c.mu.Unlock()
	if ok {
		return code, nil
	}
	code, err := r.inner.Code(codeHash)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.code[codeHash] = code
	c.mu.Unlock()
	return code, nil
}
