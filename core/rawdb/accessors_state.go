package rawdb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/gnosischain/gnosis-engine/core/types"
)

// ReadAccountRLP retrieves the encoded account of addr, nil if missing.
func ReadAccountRLP(db ethdb.KeyValueReader, addr common.Address) ([]byte, error) {
	data, err := db.Get(accountKey(addr))
	if isNotFoundErr(err) {
		return nil, nil
	}
	return data, err
}

// ReadAccount retrieves the account of addr, nil if missing.
func ReadAccount(db ethdb.KeyValueReader, addr common.Address) (*types.StateAccount, error) {
	data, err := ReadAccountRLP(db, addr)
	if err != nil || len(data) == 0 {
		return nil, err
	}
	return decodeAccount(data)
}

func decodeAccount(data []byte) (*types.StateAccount, error) {
	acct := new(types.StateAccount)
	if err := rlp.DecodeBytes(data, acct); err != nil {
		return nil, fmt.Errorf("invalid account RLP: %w", err)
	}
	return acct, nil
}

// WriteAccount stores an account.
func WriteAccount(db ethdb.KeyValueWriter, addr common.Address, acct *types.StateAccount) error {
	data, err := rlp.EncodeToBytes(acct)
	if err != nil {
		return err
	}
	return db.Put(accountKey(addr), data)
}

// DeleteAccount removes an account. Its storage is left untouched.
func DeleteAccount(db ethdb.KeyValueWriter, addr common.Address) error {
	return db.Delete(accountKey(addr))
}

// ReadStorage retrieves a storage slot; missing slots read as zero.
func ReadStorage(db ethdb.KeyValueReader, addr common.Address, slot common.Hash) (common.Hash, error) {
	data, err := db.Get(storageKey(addr, slot))
	if isNotFoundErr(err) {
		return common.Hash{}, nil
	}
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(data), nil
}

// WriteStorage stores a storage slot with its leading zeroes trimmed. Zero
// values delete the slot.
func WriteStorage(db ethdb.KeyValueWriter, addr common.Address, slot, value common.Hash) error {
	if value == (common.Hash{}) {
		return db.Delete(storageKey(addr, slot))
	}
	return db.Put(storageKey(addr, slot), common.TrimLeftZeroes(value[:]))
}

// ReadCode retrieves contract code by hash.
func ReadCode(db ethdb.KeyValueReader, hash common.Hash) ([]byte, error) {
	if hash == types.EmptyCodeHash {
		return nil, nil
	}
	data, err := db.Get(codeKey(hash))
	if isNotFoundErr(err) {
		return nil, nil
	}
	return data, err
}

// WriteCode stores contract code by hash.
func WriteCode(db ethdb.KeyValueWriter, hash common.Hash, code []byte) error {
	return db.Put(codeKey(hash), code)
}
