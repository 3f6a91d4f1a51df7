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

package params

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidHotPatchCode = errors.New("invalid hot-patch bytecode")

// emptyCodeHash is the known hash of empty EVM bytecode.
var emptyCodeHash = crypto.Keccak256Hash(nil)

// HotPatchEntry is a single forced bytecode replacement. A nil Code clears the
// account's code.
type HotPatchEntry struct {
	Address  common.Address
	Code     []byte
	CodeHash common.Hash
}

// HotPatchTable lists the accounts whose code is replaced when the chain
// crosses ActivationTime.
type HotPatchTable struct {
	ActivationTime uint64
	Entries        []HotPatchEntry
}

// ParseHotPatchConfig builds a hot-patch table from the genesis side channel
// values. It returns nil if either value is missing.
func ParseHotPatchConfig(activation *uint64, mapping map[common.Address]string) (*HotPatchTable, error) {
	if activation == nil || mapping == nil {
		return nil, nil
	}
	table := &HotPatchTable{
		ActivationTime: *activation,
		Entries:        make([]HotPatchEntry, 0, len(mapping)),
	}
	for addr, code := range mapping {
		entry := HotPatchEntry{Address: addr, CodeHash: emptyCodeHash}
		if code != "" {
			raw, err := hex.DecodeString(strings.TrimPrefix(code, "0x"))
			if err != nil {
				return nil, fmt.Errorf("%w for %s: %v", ErrInvalidHotPatchCode, addr.Hex(), err)
			}
			entry.Code = raw
			entry.CodeHash = crypto.Keccak256Hash(raw)
		}
		table.Entries = append(table.Entries, entry)
	}
	slices.SortFunc(table.Entries, func(a, b HotPatchEntry) int {
		return bytes.Compare(a.Address[:], b.Address[:])
	})
	return table, nil
}

// IsActive reports whether the patch applies to blocks at the given time.
func (t *HotPatchTable) IsActive(time uint64) bool {
	return t != nil && time >= t.ActivationTime
}

// IsTransition reports whether a block at time with a parent at parentTime is
// the block crossing the activation boundary.
func (t *HotPatchTable) IsTransition(parentTime, time uint64) bool {
	return t != nil && parentTime < t.ActivationTime && t.ActivationTime <= time
}
