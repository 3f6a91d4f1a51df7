package rawdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
)

var (
	cleanHitMeter   = metrics.NewRegisteredMeter("rawdb/clean/hit", nil)
	cleanMissMeter  = metrics.NewRegisteredMeter("rawdb/clean/miss", nil)
	cleanWriteMeter = metrics.NewRegisteredMeter("rawdb/clean/write", nil)
)

var _ state.Reader = (*Database)(nil)

// Account implements state.Reader. Missing accounts are remembered in the
// clean cache as an empty entry.
func (d *Database) Account(addr common.Address) (*types.StateAccount, error) {
	key := accountKey(addr)
	if enc, ok := d.cleans.HasGet(nil, key); ok {
		cleanHitMeter.Mark(1)
		if len(enc) == 0 {
			return nil, nil
		}
		return decodeAccount(enc)
	}
	cleanMissMeter.Mark(1)

	enc, err := ReadAccountRLP(d, addr)
	if err != nil {
		return nil, err
	}
	d.cleans.Set(key, enc)
	cleanWriteMeter.Mark(int64(len(enc)))
	if len(enc) == 0 {
		return nil, nil
	}
	return decodeAccount(enc)
}

// Storage implements state.Reader.
func (d *Database) Storage(addr common.Address, slot common.Hash) (common.Hash, error) {
	return ReadStorage(d, addr, slot)
}

// Code implements state.Reader.
func (d *Database) Code(codeHash common.Hash) ([]byte, error) {
	if codeHash == types.EmptyCodeHash || codeHash == (common.Hash{}) {
		return nil, nil
	}
	key := codeKey(codeHash)
	if code, ok := d.cleans.HasGet(nil, key); ok && len(code) > 0 {
		cleanHitMeter.Mark(1)
		return code, nil
	}
	cleanMissMeter.Mark(1)

	code, err := ReadCode(d, codeHash)
	if err != nil {
		return nil, err
	}
	if len(code) > 0 {
		d.cleans.Set(key, code)
		cleanWriteMeter.Mark(int64(len(code)))
	}
	return code, nil
}

// WriteChanges persists the modifications of a state view atomically and
// updates the clean cache.
func (d *Database) WriteChanges(changes *state.Changes) error {
	batch := d.NewBatch()
	for _, addr := range changes.Wiped {
		prefix := storagePrefixKey(addr)
		if err := batch.DeleteRange(prefix, upperBound(prefix)); err != nil {
			return err
		}
	}
	for addr, acct := range changes.Accounts {
		var err error
		if acct == nil {
			err = DeleteAccount(batch, addr)
		} else {
			err = WriteAccount(batch, addr, acct)
		}
		if err != nil {
			return err
		}
	}
	for addr, slots := range changes.Storage {
		for slot, value := range slots {
			if err := WriteStorage(batch, addr, slot, value); err != nil {
				return err
			}
		}
	}
	for hash, code := range changes.Code {
		if err := WriteCode(batch, hash, code); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	for addr := range changes.Accounts {
		d.cleans.Del(accountKey(addr))
	}
	d.log.Debug("Persisted state changes", "accounts", len(changes.Accounts), "wiped", len(changes.Wiped), "size", batch.ValueSize())
	return nil
}
