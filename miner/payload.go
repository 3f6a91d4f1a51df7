// Copyright 2022 The go-ethereum Authors
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

package miner

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
)

// BuildPayloadArgs contains the provided parameters for building payload.
// Check engine-api specification for more details.
// https://github.com/ethereum/execution-apis/blob/main/src/engine/cancun.md#payloadattributesv3
type BuildPayloadArgs struct {
	Parent       common.Hash           // The parent block to build payload on top
	Timestamp    uint64                // The provided timestamp of generated payload
	FeeRecipient common.Address        // The provided recipient address for collecting transaction fee
	Random       common.Hash           // The provided randomness value
	Withdrawals  types.Withdrawals     // The provided withdrawals
	BeaconRoot   *common.Hash          // The provided beaconRoot (Cancun)
	Version      engine.PayloadVersion // Versioning byte for payload id calculation.
}

// Id computes an 8-byte identifier by hashing the components of the payload
// arguments. The first byte is the payload version.
func (args *BuildPayloadArgs) Id() engine.PayloadID {
	hasher := sha256.New()
	hasher.Write(args.Parent[:])
	binary.Write(hasher, binary.BigEndian, args.Timestamp)
	hasher.Write(args.Random[:])
	hasher.Write(args.FeeRecipient[:])
	rlp.Encode(hasher, args.Withdrawals)
	if args.BeaconRoot != nil {
		hasher.Write(args.BeaconRoot[:])
	}
	var out engine.PayloadID
	copy(out[:], hasher.Sum(nil)[:8])
	out[0] = byte(args.Version)
	return out
}

// BuiltPayload is a sealed block together with everything the consensus
// layer needs to propose it.
type BuiltPayload struct {
	ID       engine.PayloadID
	Block    *types.Block
	Fees     *uint256.Int // Tips paid to the fee recipient
	Receipts types.Receipts
	Requests types.Requests // nil before Prague
	Sidecars []*types.BlobTxSidecar
}

// OutcomeKind tells how a build attempt ended.
type OutcomeKind int

const (
	// OutcomeSuccess means a payload better than the previous best was built.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeAborted means the attempt did not beat the previous best and
	// was not sealed.
	OutcomeAborted

	// OutcomeCancelled means the attempt was interrupted.
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeAborted:
		return "aborted"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// BuildOutcome is the result of one build attempt. CachedReads holds the
// parent state reads of the attempt and can be handed to the next one.
type BuildOutcome struct {
	Kind        OutcomeKind
	Payload     *BuiltPayload // Set on OutcomeSuccess
	Fees        *uint256.Int  // Fees collected by the attempt, unset when cancelled
	CachedReads *state.CachedReads
}

// StateRooter computes the state root of a block from its parent and the
// changes the block made.
type StateRooter interface {
	StateRoot(parent *types.Header, changes *state.Changes) (common.Hash, error)
}

// Payload wraps the built payload(block waiting for sealing). According to the
// engine-api specification, EL should build the initial version of the payload
// which has an empty transaction set and then keep updating it in order to
// maximize the revenue.
type Payload struct {
	id    engine.PayloadID
	empty *BuiltPayload

	lock sync.Mutex
	full *BuiltPayload

	cancel context.CancelFunc
	task   pond.Task
}

func newPayload(id engine.PayloadID, empty *BuiltPayload, cancel context.CancelFunc) *Payload {
	return &Payload{id: id, empty: empty, cancel: cancel}
}

// ID returns the identifier of the payload.
func (p *Payload) ID() engine.PayloadID {
	return p.id
}

// update records a better payload.
func (p *Payload) update(full *BuiltPayload) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.full = full
}

func (p *Payload) best() *BuiltPayload {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.full
}

// Resolve stops the payload job and returns the best payload built so far,
// falling back to the empty one. It can be called multiple times.
func (p *Payload) Resolve() *BuiltPayload {
	p.cancel()
	if p.task != nil {
		p.task.Wait()
	}
	if full := p.best(); full != nil {
		return full
	}
	return p.empty
}

// ResolveEmpty returns the payload without transactions. The job keeps
// running.
func (p *Payload) ResolveEmpty() *BuiltPayload {
	return p.empty
}

// emptyTransactions is the iterator of the empty payload.
type emptyTransactions struct{}

func (emptyTransactions) Next() *PoolTransaction              { return nil }
func (emptyTransactions) MarkInvalid(*PoolTransaction, error) {}
func (emptyTransactions) SkipBlobTransactions()               {}
