// Copyright 2015 The go-ethereum Authors
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

package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/consensus/misc"
	"github.com/gnosischain/gnosis-engine/core/rawdb"
	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/core/vm"
	"github.com/gnosischain/gnosis-engine/params"
)

// NewEVMBlockContext creates a new context for use in the EVM.
func NewEVMBlockContext(header *types.Header, spec *params.ChainSpec, getHash vm.GetHashFunc) vm.BlockContext {
	var (
		baseFee     = new(uint256.Int)
		blobBaseFee = new(uint256.Int)
		random      *common.Hash
		difficulty  = new(uint256.Int)
	)
	if header.BaseFee != nil {
		baseFee = uint256.MustFromBig(header.BaseFee)
	}
	if header.ExcessBlobGas != nil {
		if blob := spec.BlobParamsAt(header.Time); blob != nil {
			blobBaseFee = misc.CalcBlobFee(*header.ExcessBlobGas, blob)
		}
	}
	if header.Difficulty != nil {
		difficulty = uint256.MustFromBig(header.Difficulty)
	}
	if difficulty.IsZero() {
		random = &header.MixDigest
	}
	return vm.BlockContext{
		GetHash:     getHash,
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		Number:      header.Number,
		Time:        header.Time,
		Difficulty:  difficulty,
		BaseFee:     baseFee,
		BlobBaseFee: blobBaseFee,
		Random:      random,
	}
}

// GetHashFn returns a GetHashFunc which resolves canonical hashes from db.
// The parent of the block being executed may not be canonical yet, so its
// hash is served from the header directly.
func GetHashFn(ref *types.Header, db ethdb.KeyValueReader) vm.GetHashFunc {
	return func(n uint64) common.Hash {
		if ref.Number == 0 || n >= ref.Number {
			return common.Hash{}
		}
		if n == ref.Number-1 {
			return ref.ParentHash
		}
		return rawdb.ReadCanonicalHash(db, n)
	}
}

// NewEVM creates an EVM for a Gnosis block. Burned base fees and, from
// Prague on, blob fees are credited to the chain's fee collector.
func NewEVM(spec *params.ChainSpec, blockCtx vm.BlockContext, db vm.StateReader, interpreter vm.Interpreter) *vm.EVM {
	handler := vm.FeeRedirectHandler(vm.StandardHandler(), spec.FeeCollector())
	return vm.NewEVM(spec, blockCtx, db, interpreter, handler)
}
