// Copyright 2014 The go-ethereum Authors
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

package vm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// GetHashFunc returns the hash of the canonical block with the given number.
type GetHashFunc func(uint64) common.Hash

// BlockContext provides the EVM with auxiliary information about the block
// being executed. Once provided it shouldn't be modified, except by system
// calls which temporarily lift the gas limit and base fee.
type BlockContext struct {
	// GetHash returns the hash corresponding to n
	GetHash GetHashFunc

	Coinbase    common.Address // Provides information for COINBASE
	GasLimit    uint64         // Provides information for GASLIMIT
	Number      uint64         // Provides information for NUMBER
	Time        uint64         // Provides information for TIME
	Difficulty  *uint256.Int   // Provides information for DIFFICULTY
	BaseFee     *uint256.Int   // Provides information for BASEFEE (0 before London)
	BlobBaseFee *uint256.Int   // Provides information for BLOBBASEFEE (0 before Cancun)
	Random      *common.Hash   // Provides information for PREVRANDAO
}
