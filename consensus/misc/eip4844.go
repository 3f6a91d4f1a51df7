// Copyright 2023 The go-ethereum Authors
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

package misc

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"math/bits"

	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/params"
)

// VerifyEIP4844Header verifies the blob gas fields of a header against its
// parent.
func VerifyEIP4844Header(spec *params.ChainSpec, parent, header *types.Header) error {
	if header.ExcessBlobGas == nil {
		return errors.New("header is missing excessBlobGas")
	}
	if header.BlobGasUsed == nil {
		return errors.New("header is missing blobGasUsed")
	}
	blob := spec.BlobParamsAt(header.Time)
	if blob == nil {
		return fmt.Errorf("no blob schedule at time %d", header.Time)
	}
	if *header.BlobGasUsed > blob.MaxBlobGas() {
		return fmt.Errorf("blob gas used %d exceeds maximum allowance %d", *header.BlobGasUsed, blob.MaxBlobGas())
	}
	if *header.BlobGasUsed%params.BlobTxBlobGasPerBlob != 0 {
		return fmt.Errorf("blob gas used %d not a multiple of blob gas per blob %d", *header.BlobGasUsed, params.BlobTxBlobGasPerBlob)
	}
	if expected := NextExcessBlobGas(parent, blob); *header.ExcessBlobGas != expected {
		return fmt.Errorf("invalid excessBlobGas: have %d, want %d", *header.ExcessBlobGas, expected)
	}
	return nil
}

// CalcExcessBlobGas calculates the excess blob gas of a block from its
// parent's excess and usage. The sum of the two saturates at the maximum
// uint64.
func CalcExcessBlobGas(parentExcessBlobGas, parentBlobGasUsed uint64, blob *params.BlobParams) uint64 {
	sum, carry := bits.Add64(parentExcessBlobGas, parentBlobGasUsed, 0)
	if carry != 0 {
		sum = math.MaxUint64
	}
	target := blob.TargetBlobGas()
	if sum < target {
		return 0
	}
	return sum - target
}

// NextExcessBlobGas returns the excess blob gas of the block following
// parent. Parents from before Cancun count as zero excess and zero usage.
func NextExcessBlobGas(parent *types.Header, blob *params.BlobParams) uint64 {
	var excess, used uint64
	if parent.ExcessBlobGas != nil {
		excess = *parent.ExcessBlobGas
	}
	if parent.BlobGasUsed != nil {
		used = *parent.BlobGasUsed
	}
	return CalcExcessBlobGas(excess, used, blob)
}

// CalcBlobFee calculates the blob gas price from the block's excess blob gas.
func CalcBlobFee(excessBlobGas uint64, blob *params.BlobParams) *uint256.Int {
	return FakeExponential(
		uint256.NewInt(blob.MinBlobFee),
		uint256.NewInt(excessBlobGas),
		uint256.NewInt(blob.UpdateFraction),
	)
}

// FakeExponential approximates factor * e ** (numerator / denominator) using
// Taylor expansion. The product of factor and denominator must fit in 128
// bits and denominator must be non-zero; the function panics otherwise.
// Results that do not fit in 256 bits saturate at the maximum value.
func FakeExponential(factor, numerator, denominator *uint256.Int) *uint256.Int {
	if denominator.IsZero() {
		panic("fake exponential: zero denominator")
	}
	accum, overflow := new(uint256.Int).MulOverflow(factor, denominator)
	if overflow || accum.BitLen() > 128 {
		panic("fake exponential: factor * denominator overflows 128 bits")
	}
	var (
		output = new(uint256.Int)
		div    = new(uint256.Int)
	)
	for i := uint64(1); !accum.IsZero(); i++ {
		if _, overflow := output.AddOverflow(output, accum); overflow {
			return fakeExponentialBig(factor, numerator, denominator)
		}
		// accum = accum * numerator / (denominator * i)
		if _, overflow := accum.MulOverflow(accum, numerator); overflow {
			return fakeExponentialBig(factor, numerator, denominator)
		}
		div.Mul(denominator, uint256.NewInt(i))
		accum.Div(accum, div)
	}
	return output.Div(output, denominator)
}

// fakeExponentialBig is the arbitrary precision variant of FakeExponential
// for intermediates beyond 256 bits. It stops as soon as the result is known
// to exceed 256 bits.
func fakeExponentialBig(factor, numerator, denominator *uint256.Int) *uint256.Int {
	var (
		d      = denominator.ToBig()
		n      = numerator.ToBig()
		limit  = new(big.Int).Lsh(d, 256)
		output = new(big.Int)
		accum  = new(big.Int).Mul(factor.ToBig(), d)
		div    = new(big.Int)
	)
	for i := int64(1); accum.Sign() > 0; i++ {
		output.Add(output, accum)
		if output.Cmp(limit) >= 0 {
			return new(uint256.Int).SetAllOne()
		}
		accum.Mul(accum, n)
		div.Mul(d, big.NewInt(i))
		accum.Div(accum, div)
	}
	result, _ := uint256.FromBig(output.Div(output, d))
	return result
}
