package miner

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gnosischain/gnosis-engine/core"
	"github.com/gnosischain/gnosis-engine/core/rawdb"
	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/core/vm"
)

// ErrStateUnavailable is returned when the state of a parent block cannot be
// served.
var ErrStateUnavailable = errors.New("parent state not available")

// Backend gives the builder access to the chain it builds on.
type Backend interface {
	// HeaderByHash returns the header with the given hash, or nil.
	HeaderByHash(hash common.Hash) *types.Header

	// StateAt returns a reader over the post-state of header.
	StateAt(header *types.Header) (state.Reader, error)

	// GetHashFn resolves historical hashes for a block built on top of
	// parent.
	GetHashFn(parent *types.Header) vm.GetHashFunc
}

// DatabaseBackend serves headers and the flat head state from the state
// database. Only the head block's state is available.
type DatabaseBackend struct {
	db *rawdb.Database
}

// NewDatabaseBackend creates a backend over db.
func NewDatabaseBackend(db *rawdb.Database) *DatabaseBackend {
	return &DatabaseBackend{db: db}
}

func (b *DatabaseBackend) HeaderByHash(hash common.Hash) *types.Header {
	return rawdb.ReadHeader(b.db, hash)
}

func (b *DatabaseBackend) StateAt(header *types.Header) (state.Reader, error) {
	head := rawdb.ReadHeadBlockHash(b.db)
	if hash := header.Hash(); hash != head {
		return nil, fmt.Errorf("%w: block %d [%x], head %x", ErrStateUnavailable, header.Number, hash, head)
	}
	return b.db, nil
}

func (b *DatabaseBackend) GetHashFn(parent *types.Header) vm.GetHashFunc {
	// The reference header is the block being built, whose parent hash is
	// all GetHashFn needs.
	ref := &types.Header{Number: parent.Number + 1, ParentHash: parent.Hash()}
	return core.GetHashFn(ref, b.db)
}
