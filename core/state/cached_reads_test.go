package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/gnosis-engine/core/types"
)

type countingReader struct {
	Reader
	accounts, slots, code int
}

func (r *countingReader) Account(addr common.Address) (*types.StateAccount, error) {
	r.accounts++
	return r.Reader.Account(addr)
}

func (r *countingReader) Storage(addr common.Address, slot common.Hash) (common.Hash, error) {
	r.slots++
	return r.Reader.Storage(addr, slot)
}

func (r *countingReader) Code(hash common.Hash) ([]byte, error) {
	r.code++
	return r.Reader.Code(hash)
}

func TestCachedReadsServeRepeatedReads(t *testing.T) {
	mem := NewMemoryReader()
	mem.SetAccount(bob, uint256.NewInt(9), 2, []byte{0x00})
	mem.SetStorage(bob, common.Hash{1}, common.Hash{2})
	inner := &countingReader{Reader: mem}

	cache := NewCachedReads()
	for range 2 {
		db := New(cache.Reader(inner))
		assert.Equal(t, uint64(9), db.GetBalance(bob).Uint64())
		assert.Equal(t, []byte{0x00}, db.GetCode(bob))
		assert.Equal(t, common.Hash{2}, db.GetState(bob, common.Hash{1}))
		assert.False(t, db.Exist(carol))
		require.NoError(t, db.Error())
	}
	assert.Equal(t, 2, inner.accounts) // bob and carol, once each
	assert.Equal(t, 1, inner.slots)
	assert.Equal(t, 1, inner.code)
	assert.Equal(t, 2, cache.Len())
}

func TestCachedReadsInsertAccount(t *testing.T) {
	cache := NewCachedReads()
	acct := types.NewEmptyStateAccount()
	acct.Balance.SetUint64(42)
	cache.InsertAccount(alice, acct, map[common.Hash]common.Hash{{1}: {7}})

	db := New(cache.Reader(NewMemoryReader()))
	assert.Equal(t, uint64(42), db.GetBalance(alice).Uint64())
	assert.Equal(t, common.Hash{7}, db.GetState(alice, common.Hash{1}))

	// Mutating the inserted value does not leak into the cache.
	acct.Balance.SetUint64(1)
	assert.Equal(t, uint64(42), db.GetBalance(alice).Uint64())
}
