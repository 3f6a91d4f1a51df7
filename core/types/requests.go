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

package types

import (
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/common"
)

// EIP-7685 request types.
const (
	DepositRequestType       = 0x00
	WithdrawalRequestType    = 0x01
	ConsolidationRequestType = 0x02
)

// Requests is an ordered list of EIP-7685 requests. Every item starts with
// its request type byte followed by the opaque request data.
type Requests [][]byte

// NewRequest prefixes data with the request type.
func NewRequest(typ byte, data []byte) []byte {
	out := make([]byte, 0, len(data)+1)
	out = append(out, typ)
	return append(out, data...)
}

// Hash computes the EIP-7685 commitment: sha256 over the sha256 of every
// request carrying data.
func (r Requests) Hash() common.Hash {
	return CalcRequestsHash(r)
}

// CalcRequestsHash computes the EIP-7685 requests commitment.
func CalcRequestsHash(requests [][]byte) common.Hash {
	outer := sha256.New()
	for _, item := range requests {
		if len(item) > 1 { // type byte only carries no request
			inner := sha256.Sum256(item)
			outer.Write(inner[:])
		}
	}
	var h common.Hash
	outer.Sum(h[:0])
	return h
}
