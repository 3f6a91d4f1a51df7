package rawdb

import (
	"bytes"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/gnosischain/gnosis-engine/core/types"
)

// WriteHeader stores a block header and marks it canonical for its number.
func WriteHeader(db ethdb.KeyValueWriter, header *types.Header) {
	if header == nil {
		return
	}
	hash := header.Hash()

	data, err := rlp.EncodeToBytes(header)
	if err != nil {
		log.Crit("Failed to RLP encode header", "err", err)
	}
	if err := db.Put(headerKey(hash), data); err != nil {
		log.Crit("Failed to store header", "err", err)
	}
	if err := db.Put(canonicalHashKey(header.Number), hash.Bytes()); err != nil {
		log.Crit("Failed to store number to hash mapping", "err", err)
	}
}

// ReadHeader retrieves the block header corresponding to the hash.
func ReadHeader(db ethdb.KeyValueReader, hash common.Hash) *types.Header {
	data := ReadHeaderRLP(db, hash)
	if len(data) == 0 {
		return nil
	}
	header := new(types.Header)
	if err := rlp.Decode(bytes.NewReader(data), header); err != nil {
		log.Error("Invalid block header RLP", "hash", hash, "err", err)
		return nil
	}
	return header
}

// ReadHeaderRLP retrieves a block header in its raw RLP database encoding.
func ReadHeaderRLP(db ethdb.KeyValueReader, hash common.Hash) rlp.RawValue {
	data, err := db.Get(headerKey(hash))
	if err != nil && isNotFoundErr(err) {
		return nil
	}
	if err != nil {
		log.Crit("Failed to load header", "hash", hash, "err", err)
	}
	return data
}

// ReadCanonicalHash retrieves the hash assigned to a canonical block number.
func ReadCanonicalHash(db ethdb.KeyValueReader, number uint64) common.Hash {
	data, _ := db.Get(canonicalHashKey(number))
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// ReadHeadBlockHash retrieves the hash of the current canonical head block.
func ReadHeadBlockHash(db ethdb.KeyValueReader) common.Hash {
	data, _ := db.Get(headBlockKey)
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteHeadBlockHash stores the head block's hash.
func WriteHeadBlockHash(db ethdb.KeyValueWriter, hash common.Hash) {
	if err := db.Put(headBlockKey, hash.Bytes()); err != nil {
		log.Crit("Failed to store last block's hash", "err", err)
	}
}

// decodeBlockNumber is the inverse of encodeBlockNumber.
func decodeBlockNumber(enc []byte) (uint64, bool) {
	if len(enc) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(enc), true
}
