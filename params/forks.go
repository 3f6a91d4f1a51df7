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
	"fmt"
	"math/big"
)

// Fork is a hardfork known to the execution engine.
type Fork uint8

const (
	Frontier Fork = iota
	Homestead
	DAO
	Tangerine
	SpuriousDragon
	Byzantium
	Constantinople
	Petersburg
	Istanbul
	MuirGlacier
	Berlin
	London
	ArrowGlacier
	GrayGlacier
	Paris
	Shanghai
	Cancun
	Prague
	Osaka

	// Gnosis specific forks. They are not part of the mainnet ordering and
	// therefore always end up behind every canonical fork in the table.
	ConstantinopleFix
	POSDAOActivation

	forkCount
)

var forkNames = [forkCount]string{
	Frontier:          "Frontier",
	Homestead:         "Homestead",
	DAO:               "DAO",
	Tangerine:         "Tangerine",
	SpuriousDragon:    "SpuriousDragon",
	Byzantium:         "Byzantium",
	Constantinople:    "Constantinople",
	Petersburg:        "Petersburg",
	Istanbul:          "Istanbul",
	MuirGlacier:       "MuirGlacier",
	Berlin:            "Berlin",
	London:            "London",
	ArrowGlacier:      "ArrowGlacier",
	GrayGlacier:       "GrayGlacier",
	Paris:             "Paris",
	Shanghai:          "Shanghai",
	Cancun:            "Cancun",
	Prague:            "Prague",
	Osaka:             "Osaka",
	ConstantinopleFix: "ConstantinopleFix",
	POSDAOActivation:  "POSDAOActivation",
}

func (f Fork) String() string {
	if f >= forkCount {
		return fmt.Sprintf("Fork(%d)", uint8(f))
	}
	return forkNames[f]
}

// mainnetOrder is the canonical Ethereum fork precedence. Hardfork tables are
// sorted by this order; forks missing from it keep their relative position
// and are appended at the end.
var mainnetOrder = []Fork{
	Frontier,
	Homestead,
	DAO,
	Tangerine,
	SpuriousDragon,
	Byzantium,
	Constantinople,
	Petersburg,
	Istanbul,
	MuirGlacier,
	Berlin,
	London,
	ArrowGlacier,
	GrayGlacier,
	Paris,
	Shanghai,
	Cancun,
	Prague,
	Osaka,
}

// ConditionKind tells how a fork gets activated.
type ConditionKind uint8

const (
	ConditionNever ConditionKind = iota
	ConditionBlock
	ConditionTTD
	ConditionTimestamp
)

// ForkCondition describes when a fork becomes active.
type ForkCondition struct {
	Kind ConditionKind

	// Block is the activation block for ConditionBlock and the activation
	// block number of a ConditionTTD fork.
	Block uint64

	// Time is the activation timestamp for ConditionTimestamp.
	Time uint64

	// TotalDifficulty and ForkBlock are only meaningful for ConditionTTD.
	// ForkBlock is the merge netsplit block, if the network declared one.
	TotalDifficulty *big.Int
	ForkBlock       *uint64
}

// BlockCondition returns a condition activating at the given block.
func BlockCondition(n uint64) ForkCondition {
	return ForkCondition{Kind: ConditionBlock, Block: n}
}

// TimestampCondition returns a condition activating at the given time.
func TimestampCondition(t uint64) ForkCondition {
	return ForkCondition{Kind: ConditionTimestamp, Time: t}
}

// ActiveAtBlock reports whether a block-based condition is met. Timestamp
// conditions are never active by block number.
func (c ForkCondition) ActiveAtBlock(number uint64) bool {
	switch c.Kind {
	case ConditionBlock:
		return number >= c.Block
	case ConditionTTD:
		return number >= c.Block
	}
	return false
}

// ActiveAtTimestamp reports whether a timestamp-based condition is met.
func (c ForkCondition) ActiveAtTimestamp(time uint64) bool {
	return c.Kind == ConditionTimestamp && time >= c.Time
}

// forkBlock returns the block at which the condition takes effect for fork-id
// purposes. TTD forks only count if they declared a netsplit block.
func (c ForkCondition) forkBlock() (uint64, bool) {
	switch c.Kind {
	case ConditionBlock:
		return c.Block, true
	case ConditionTTD:
		if c.ForkBlock != nil {
			return *c.ForkBlock, true
		}
	}
	return 0, false
}

func (c ForkCondition) String() string {
	switch c.Kind {
	case ConditionBlock:
		return fmt.Sprintf("block %d", c.Block)
	case ConditionTTD:
		return fmt.Sprintf("ttd %v (block %d)", c.TotalDifficulty, c.Block)
	case ConditionTimestamp:
		return fmt.Sprintf("time %d", c.Time)
	}
	return "never"
}

// ForkActivation pairs a fork with its activation condition.
type ForkActivation struct {
	Fork      Fork
	Condition ForkCondition
}

// orderForks sorts the given activations into canonical order, collapsing
// duplicate entries of the same fork. Unknown forks are appended in the order
// they were supplied.
func orderForks(forks []ForkActivation) []ForkActivation {
	remaining := make([]ForkActivation, 0, len(forks))
	seen := make(map[Fork]bool, len(forks))
	for _, f := range forks {
		if seen[f.Fork] {
			continue
		}
		seen[f.Fork] = true
		remaining = append(remaining, f)
	}
	ordered := make([]ForkActivation, 0, len(remaining))
	for _, fork := range mainnetOrder {
		for i, f := range remaining {
			if f.Fork == fork {
				ordered = append(ordered, f)
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	return append(ordered, remaining...)
}
