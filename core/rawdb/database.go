package rawdb

import (
	"errors"
	"fmt"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
)

const (
	minCache      = 16 // Minimum megabytes of pebble block cache
	minCleanCache = 32 // Minimum megabytes of the clean account and code cache
)

// ErrSchemaMismatch is returned when opening a database written by an
// incompatible version.
var ErrSchemaMismatch = errors.New("database schema version mismatch")

// Config configures the flat state database.
type Config struct {
	Path       string // Directory of the database, ignored when InMemory is set
	InMemory   bool   // Keep everything in memory, used by tests and dry runs
	Cache      int    // Megabytes of pebble block cache
	CleanCache int    // Megabytes of clean account and code cache
	ReadOnly   bool
}

// Database is the flat state store: accounts, storage slots and code keyed
// directly by address, with a clean cache in front of account and code reads.
// It is safe for concurrent use.
type Database struct {
	db     *pebble.DB
	cleans *fastcache.Cache
	log    log.Logger
}

// Open opens or creates the database described by cfg.
func Open(cfg Config) (*Database, error) {
	cache := max(cfg.Cache, minCache)
	clean := max(cfg.CleanCache, minCleanCache)

	opts := &pebble.Options{
		MaxOpenFiles: 1024,
		MemTableSize: uint64(cache * 1024 * 1024 / 4),
		ReadOnly:     cfg.ReadOnly,
	}
	blockCache := pebble.NewCache(int64(cache * 1024 * 1024))
	defer blockCache.Unref()
	opts.Cache = blockCache

	path := cfg.Path
	if cfg.InMemory {
		opts.FS = vfs.NewMem()
		path = ""
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	logger := log.New("database", path)
	logger.Info("Opened state database", "cache", common.StorageSize(cache*1024*1024), "clean", common.StorageSize(clean*1024*1024), "memory", cfg.InMemory)

	d := &Database{
		db:     db,
		cleans: fastcache.New(clean * 1024 * 1024),
		log:    logger,
	}
	if err := d.checkVersion(cfg.ReadOnly); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) checkVersion(readonly bool) error {
	enc, err := d.Get(databaseVersionKey)
	switch {
	case isNotFoundErr(err):
		if readonly {
			return nil
		}
		return d.Put(databaseVersionKey, encodeBlockNumber(currentSchemaVersion))
	case err != nil:
		return err
	}
	if version, ok := decodeBlockNumber(enc); !ok || version != currentSchemaVersion {
		return fmt.Errorf("%w: have %x, want %d", ErrSchemaMismatch, enc, currentSchemaVersion)
	}
	return nil
}

// Close flushes pending writes and closes the database.
func (d *Database) Close() error {
	d.cleans.Reset()
	return d.db.Close()
}

// Has retrieves if a key is present in the key-value store.
func (d *Database) Has(key []byte) (bool, error) {
	_, closer, err := d.db.Get(key)
	if isNotFoundErr(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	closer.Close()
	return true, nil
}

// Get retrieves the given key if it's present in the key-value store.
func (d *Database) Get(key []byte) ([]byte, error) {
	dat, closer, err := d.db.Get(key)
	if err != nil {
		return nil, err
	}
	ret := make([]byte, len(dat))
	copy(ret, dat)
	closer.Close()
	return ret, nil
}

// Put inserts the given value into the key-value store.
func (d *Database) Put(key []byte, value []byte) error {
	return d.db.Set(key, value, pebble.NoSync)
}

// Delete removes the key from the key-value store.
func (d *Database) Delete(key []byte) error {
	return d.db.Delete(key, nil)
}

// NewBatch creates a write-only batch that buffers changes until Write.
func (d *Database) NewBatch() *Batch {
	return &Batch{b: d.db.NewBatch()}
}

// Batch is a write-only batch that commits atomically.
type Batch struct {
	b    *pebble.Batch
	size int
}

var _ ethdb.KeyValueWriter = (*Batch)(nil)

// Put inserts the given value into the batch for later committing.
func (b *Batch) Put(key, value []byte) error {
	b.size += len(key) + len(value)
	return b.b.Set(key, value, nil)
}

// Delete inserts a key removal into the batch for later committing.
func (b *Batch) Delete(key []byte) error {
	b.size += len(key)
	return b.b.Delete(key, nil)
}

// DeleteRange removes every key in [start, end).
func (b *Batch) DeleteRange(start, end []byte) error {
	b.size += len(start) + len(end)
	return b.b.DeleteRange(start, end, nil)
}

// ValueSize retrieves the amount of data queued up for writing.
func (b *Batch) ValueSize() int {
	return b.size
}

// Write flushes any accumulated data to disk.
func (b *Batch) Write() error {
	return b.b.Commit(pebble.Sync)
}

func isNotFoundErr(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}
