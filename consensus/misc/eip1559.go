// Copyright 2021 The go-ethereum Authors
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
	"math/big"

	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/params"
)

// VerifyEIP1559Header verifies the base fee of a header against its parent.
func VerifyEIP1559Header(spec *params.ChainSpec, parent, header *types.Header) error {
	if header.BaseFee == nil {
		return errors.New("header is missing baseFee")
	}
	expected := CalcBaseFee(spec, parent)
	if header.BaseFee.Cmp(expected) != 0 {
		return fmt.Errorf("invalid baseFee: have %s, want %s, parentBaseFee %v, parentGasUsed %d",
			header.BaseFee, expected, parent.BaseFee, parent.GasUsed)
	}
	return nil
}

// CalcBaseFee calculates the base fee of the header following parent.
func CalcBaseFee(spec *params.ChainSpec, parent *types.Header) *big.Int {
	// If the current block is the first EIP-1559 block, return the InitialBaseFee.
	if !spec.IsLondon(parent.Number) {
		return new(big.Int).SetUint64(params.InitialBaseFee)
	}
	var (
		feeParams       = spec.BaseFeeParams()
		parentGasTarget = parent.GasLimit / feeParams.Elasticity
		num             = new(big.Int)
		denom           = new(big.Int)
	)
	// If the parent gasUsed is the same as the target, the baseFee remains unchanged.
	if parent.GasUsed == parentGasTarget {
		return new(big.Int).Set(parent.BaseFee)
	}
	if parent.GasUsed > parentGasTarget {
		// If the parent block used more gas than its target, the baseFee should increase.
		// max(1, parentBaseFee * gasUsedDelta / parentGasTarget / baseFeeChangeDenominator)
		num.SetUint64(parent.GasUsed - parentGasTarget)
		num.Mul(num, parent.BaseFee)
		num.Div(num, denom.SetUint64(parentGasTarget))
		num.Div(num, denom.SetUint64(feeParams.ChangeDenominator))
		if num.Cmp(big1) < 0 {
			return num.Add(parent.BaseFee, big1)
		}
		return num.Add(parent.BaseFee, num)
	}
	// Otherwise if the parent block used less gas than its target, the baseFee should decrease.
	// max(0, parentBaseFee * gasUsedDelta / parentGasTarget / baseFeeChangeDenominator)
	num.SetUint64(parentGasTarget - parent.GasUsed)
	num.Mul(num, parent.BaseFee)
	num.Div(num, denom.SetUint64(parentGasTarget))
	num.Div(num, denom.SetUint64(feeParams.ChangeDenominator))

	baseFee := num.Sub(parent.BaseFee, num)
	if baseFee.Sign() < 0 {
		baseFee.SetInt64(0)
	}
	return baseFee
}

var big1 = big.NewInt(1)
