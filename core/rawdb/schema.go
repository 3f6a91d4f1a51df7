package rawdb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// The fields below define the low level database schema prefixing.
var (
	headerPrefix         = []byte("h") // headerPrefix + hash -> header
	headerNumberPrefix   = []byte("H") // headerNumberPrefix + num (uint64 big endian) -> canonical hash
	accountPrefix        = []byte("a") // accountPrefix + address -> account
	storagePrefix        = []byte("s") // storagePrefix + address + slot -> slot value
	codePrefix           = []byte("c") // codePrefix + code hash -> code
	headBlockKey         = []byte("LastBlock")
	databaseVersionKey   = []byte("DatabaseVersion")
	currentSchemaVersion = uint64(1)
)

// encodeBlockNumber encodes a block number as big endian uint64
func encodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

func headerKey(hash common.Hash) []byte {
	return append(append([]byte{}, headerPrefix...), hash.Bytes()...)
}

func canonicalHashKey(number uint64) []byte {
	return append(append([]byte{}, headerNumberPrefix...), encodeBlockNumber(number)...)
}

func accountKey(addr common.Address) []byte {
	return append(append([]byte{}, accountPrefix...), addr.Bytes()...)
}

// storageKey = storagePrefix + address + slot
func storageKey(addr common.Address, slot common.Hash) []byte {
	key := make([]byte, 0, len(storagePrefix)+common.AddressLength+common.HashLength)
	key = append(key, storagePrefix...)
	key = append(key, addr.Bytes()...)
	return append(key, slot.Bytes()...)
}

// storagePrefixKey returns the key range start covering every slot of addr.
func storagePrefixKey(addr common.Address) []byte {
	return append(append([]byte{}, storagePrefix...), addr.Bytes()...)
}

func codeKey(hash common.Hash) []byte {
	return append(append([]byte{}, codePrefix...), hash.Bytes()...)
}

// upperBound returns the smallest key greater than every key with the given
// prefix, or nil if there is none.
func upperBound(prefix []byte) []byte {
	limit := common.CopyBytes(prefix)
	for i := len(limit) - 1; i >= 0; i-- {
		if limit[i] < 0xff {
			limit[i]++
			return limit[:i+1]
		}
	}
	return nil
}
