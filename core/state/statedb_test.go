package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/gnosis-engine/core/types"
)

var (
	alice = common.HexToAddress("0xa11ce")
	bob   = common.HexToAddress("0xb0b")
	carol = common.HexToAddress("0xca201")
)

func newTestState(t *testing.T) (*StateDB, *MemoryReader) {
	t.Helper()
	reader := NewMemoryReader()
	reader.SetAccount(alice, uint256.NewInt(1000), 1, nil)
	reader.SetAccount(bob, uint256.NewInt(5), 0, []byte{0x60, 0x00})
	reader.SetStorage(bob, common.Hash{1}, common.Hash{0xaa})
	return New(reader), reader
}

func loaded(t *testing.T, db *StateDB, addr common.Address) *Account {
	t.Helper()
	acct, err := db.Basic(addr)
	require.NoError(t, err)
	if acct == nil {
		acct = NewEmptyAccount()
		acct.Status = LoadedAsNotExisting
		return acct
	}
	acct.Status |= Loaded
	return acct
}

func TestCommitIgnoresUntouched(t *testing.T) {
	db, _ := newTestState(t)
	acct := loaded(t, db, alice)
	acct.Balance = uint256.NewInt(1)

	db.Commit(Diff{alice: acct})
	assert.Equal(t, uint64(1000), db.GetBalance(alice).Uint64())
}

func TestCommitUpdatesTouched(t *testing.T) {
	db, reader := newTestState(t)
	acct := loaded(t, db, bob)
	acct.Balance = uint256.NewInt(7)
	acct.Nonce = 3
	acct.Storage[common.Hash{1}] = StorageSlot{Original: common.Hash{0xaa}, Present: common.Hash{0xbb}}
	acct.Storage[common.Hash{2}] = StorageSlot{}
	acct.MarkTouched()

	db.Commit(Diff{bob: acct})
	assert.Equal(t, uint64(7), db.GetBalance(bob).Uint64())
	assert.Equal(t, uint64(3), db.GetNonce(bob))
	assert.Equal(t, common.Hash{0xbb}, db.GetState(bob, common.Hash{1}))
	assert.Equal(t, []byte{0x60, 0x00}, db.GetCode(bob))

	// The reader is never written to.
	stored, err := reader.Account(bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), stored.Balance.Uint64())
	require.NoError(t, db.Error())
}

func TestCommitSelfDestruct(t *testing.T) {
	db, _ := newTestState(t)
	acct := loaded(t, db, bob)
	acct.Status |= SelfDestructed | Touched

	db.Commit(Diff{bob: acct})
	assert.False(t, db.Exist(bob))
	assert.Equal(t, common.Hash{}, db.GetState(bob, common.Hash{1}))
	assert.Equal(t, types.EmptyCodeHash, db.GetCodeHash(bob))
}

func TestCommitCreatedKeepsEmptyAccount(t *testing.T) {
	db, _ := newTestState(t)
	db.SetStateClearFlag(true)

	acct := NewEmptyAccount()
	acct.Status = Touched | Created
	db.Commit(Diff{carol: acct})

	assert.True(t, db.Exist(carol))
	assert.True(t, db.GetBalance(carol).IsZero())
}

func TestCommitCreatedResetsStorage(t *testing.T) {
	db, _ := newTestState(t)
	acct := loaded(t, db, bob)
	acct.Status |= Touched | Created
	acct.Storage[common.Hash{3}] = StorageSlot{Present: common.Hash{0x03}}

	db.Commit(Diff{bob: acct})
	assert.Equal(t, common.Hash{}, db.GetState(bob, common.Hash{1}))
	assert.Equal(t, common.Hash{0x03}, db.GetState(bob, common.Hash{3}))
}

func TestCommitStateClear(t *testing.T) {
	for _, clear := range []bool{false, true} {
		db, _ := newTestState(t)
		db.SetStateClearFlag(clear)

		acct := loaded(t, db, carol)
		acct.MarkTouched()
		db.Commit(Diff{carol: acct})

		assert.Equal(t, !clear, db.Exist(carol), "state clear %v", clear)
	}
}

func TestIncrementBalances(t *testing.T) {
	db, _ := newTestState(t)
	err := db.IncrementBalances(map[common.Address]*uint256.Int{
		alice: uint256.NewInt(10),
		carol: uint256.NewInt(100),
		bob:   new(uint256.Int),
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(1010), db.GetBalance(alice).Uint64())
	assert.Equal(t, uint64(1), db.GetNonce(alice))
	assert.Equal(t, uint64(100), db.GetBalance(carol).Uint64())
	assert.Equal(t, types.EmptyCodeHash, db.GetCodeHash(carol))

	_, touched := db.objects[bob]
	assert.False(t, touched, "zero increment must not load the account")
}

func TestSetCodeKeepsBalanceAndNonce(t *testing.T) {
	db, _ := newTestState(t)
	code := []byte{0x60, 0x01, 0x60, 0x02}

	db.SetCode(alice, code)
	assert.Equal(t, crypto.Keccak256Hash(code), db.GetCodeHash(alice))
	assert.Equal(t, uint64(1000), db.GetBalance(alice).Uint64())
	assert.Equal(t, uint64(1), db.GetNonce(alice))

	db.SetCode(bob, nil)
	assert.Equal(t, types.EmptyCodeHash, db.GetCodeHash(bob))
	assert.Empty(t, db.GetCode(bob))
	assert.Equal(t, types.EmptyCodeHash, db.GetCodeHash(carol))
}

func TestCopyIsIndependent(t *testing.T) {
	db, _ := newTestState(t)
	require.NoError(t, db.IncrementBalances(map[common.Address]*uint256.Int{alice: uint256.NewInt(1)}))

	cpy := db.Copy()
	require.NoError(t, cpy.IncrementBalances(map[common.Address]*uint256.Int{alice: uint256.NewInt(1)}))

	assert.Equal(t, uint64(1001), db.GetBalance(alice).Uint64())
	assert.Equal(t, uint64(1002), cpy.GetBalance(alice).Uint64())
}

func TestChanges(t *testing.T) {
	db, _ := newTestState(t)
	db.SetCode(carol, []byte{0xfe})

	acct := loaded(t, db, bob)
	acct.Status |= SelfDestructed | Touched
	db.Commit(Diff{bob: acct})

	changes := db.Changes()
	require.Contains(t, changes.Accounts, bob)
	assert.Nil(t, changes.Accounts[bob])
	assert.Equal(t, []common.Address{bob}, changes.Wiped)
	assert.Equal(t, crypto.Keccak256Hash([]byte{0xfe}), changes.Accounts[carol].CodeHash)
	assert.Equal(t, []byte{0xfe}, changes.Code[crypto.Keccak256Hash([]byte{0xfe})])
}

func TestAccountStatus(t *testing.T) {
	status := Touched | LoadedAsNotExisting
	assert.True(t, status.Has(Touched))
	assert.False(t, status.Has(Touched|Created))
	assert.Equal(t, "touched|notexisting", status.String())
	assert.Equal(t, "none", AccountStatus(0).String())
}
