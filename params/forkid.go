// Copyright 2019 The go-ethereum Authors
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
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrRemoteStale is returned by ValidateForkID if a remote fork checksum
	// is a subset of our already applied forks, but the announced next fork
	// block is not on our already passed chain.
	ErrRemoteStale = errors.New("remote needs update")

	// ErrLocalIncompatibleOrStale is returned by ValidateForkID if a remote
	// fork checksum does not match any local checksum variation, signalling
	// that the two chains have diverged in the past at some point (possibly
	// at genesis).
	ErrLocalIncompatibleOrStale = errors.New("local incompatible or needs update")
)

// timestampThreshold is the Ethereum mainnet genesis timestamp. A fork point
// above it is interpreted as a timestamp rather than a block number.
const timestampThreshold = 1438269973

// ForkHash is the CRC32 checksum of the genesis seed and the passed fork
// activation points.
type ForkHash [4]byte

func (h ForkHash) String() string { return fmt.Sprintf("%#x", h[:]) }

// ForkID is a fork identifier as defined by EIP-2124.
type ForkID struct {
	Hash ForkHash // CRC32 checksum of the genesis seed and passed fork block numbers and timestamps
	Next uint64   // Block number or timestamp of the next upcoming fork, or 0 if no forks are known
}

// Head is the chain position a fork identifier is computed for.
type Head struct {
	Number    uint64
	Timestamp uint64
}

// forkPoint is a single entry of the fork-id chain.
type forkPoint struct {
	value  uint64
	isTime bool
}

func (p forkPoint) passed(head Head) bool {
	if p.isTime {
		return head.Timestamp >= p.value
	}
	return head.Number >= p.value
}

// forkPoints returns the activation points that contribute to the fork-id.
// Block forks come first, in table order, followed by timestamp forks after
// genesis. A point equal to the previously recorded one is collapsed.
func (s *ChainSpec) forkPoints() []forkPoint {
	var (
		points []forkPoint
		last   uint64
	)
	for _, f := range s.forks {
		block, ok := f.Condition.forkBlock()
		if !ok || block == last {
			continue
		}
		points = append(points, forkPoint{value: block})
		last = block
	}
	for _, f := range s.forks {
		if f.Condition.Kind != ConditionTimestamp || f.Condition.Time <= s.genesisTimestamp {
			continue
		}
		if f.Condition.Time == last {
			continue
		}
		points = append(points, forkPoint{value: f.Condition.Time, isTime: true})
		last = f.Condition.Time
	}
	return points
}

// ForkID computes the fork identifier of the chain at head.
func (s *ChainSpec) ForkID(head Head) ForkID {
	hash := crc32.ChecksumIEEE(s.forkHashSeed[:])
	for _, p := range s.forkPoints() {
		if !p.passed(head) {
			return ForkID{Hash: checksumToBytes(hash), Next: p.value}
		}
		hash = checksumUpdate(hash, p.value)
	}
	return ForkID{Hash: checksumToBytes(hash), Next: 0}
}

// LatestForkID returns the fork identifier with every known fork applied.
func (s *ChainSpec) LatestForkID() ForkID {
	return s.ForkID(Head{Number: math.MaxUint64, Timestamp: math.MaxUint64})
}

// ForkHashSeed returns the hash the fork-id chain is seeded with.
func (s *ChainSpec) ForkHashSeed() common.Hash { return s.forkHashSeed }

// ValidateForkID checks a remote fork identifier against the local chain at
// head, following the EIP-2124 acceptance rules.
func (s *ChainSpec) ValidateForkID(head Head, remote ForkID) error {
	points := s.forkPoints()
	sums := make([]ForkHash, len(points)+1)
	hash := crc32.ChecksumIEEE(s.forkHashSeed[:])
	sums[0] = checksumToBytes(hash)
	for i, p := range points {
		hash = checksumUpdate(hash, p.value)
		sums[i+1] = checksumToBytes(hash)
	}
	// Locate the local fork position: the number of points already passed.
	current := 0
	for current < len(points) && points[current].passed(head) {
		current++
	}
	// Remote and local agree on the current fork. Reject if the remote
	// announces a fork we already passed without applying it.
	if sums[current] == remote.Hash {
		if remote.Next > 0 && (head.Number >= remote.Next || (remote.Next > timestampThreshold && head.Timestamp >= remote.Next)) {
			return ErrLocalIncompatibleOrStale
		}
		return nil
	}
	// Remote is on a past fork of ours: its next fork must be our next one.
	for j := 0; j < current; j++ {
		if sums[j] == remote.Hash {
			if points[j].value != remote.Next {
				return ErrRemoteStale
			}
			return nil
		}
	}
	// Remote is ahead of us; we may simply not have synced far enough.
	for j := current + 1; j < len(sums); j++ {
		if sums[j] == remote.Hash {
			return nil
		}
	}
	return ErrLocalIncompatibleOrStale
}

// checksumUpdate calculates the next IEEE CRC32 checksum based on the previous
// one and a fork block number or timestamp.
func checksumUpdate(hash uint32, fork uint64) uint32 {
	var blob [8]byte
	binary.BigEndian.PutUint64(blob[:], fork)
	return crc32.Update(hash, crc32.IEEETable, blob[:])
}

// checksumToBytes converts a uint32 checksum into a [4]byte array.
func checksumToBytes(hash uint32) ForkHash {
	var blob ForkHash
	binary.BigEndian.PutUint32(blob[:], hash)
	return blob
}
