// Copyright 2016 The go-ethereum Authors
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
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrMissingChainID         = errors.New("chain id not set")
	ErrMissingFeeCollector    = errors.New("eip1559collector not set")
	ErrMissingRewardContract  = errors.New("blockRewardsContract not set")
	ErrRewardContractIsSystem = errors.New("blockRewardsContract equals the system address")
)

// Well-known chain ids.
const (
	GnosisChainID = 100
	ChiadoChainID = 10200
)

// ChainConfig is the genesis configuration of a Gnosis network. Field names
// follow the geth genesis format plus the Gnosis specific extras.
type ChainConfig struct {
	ChainID *big.Int `json:"chainId"`

	HomesteadBlock      *uint64 `json:"homesteadBlock,omitempty"`
	DAOForkBlock        *uint64 `json:"daoForkBlock,omitempty"`
	EIP150Block         *uint64 `json:"eip150Block,omitempty"`
	EIP155Block         *uint64 `json:"eip155Block,omitempty"`
	ByzantiumBlock      *uint64 `json:"byzantiumBlock,omitempty"`
	ConstantinopleBlock *uint64 `json:"constantinopleBlock,omitempty"`
	PetersburgBlock     *uint64 `json:"petersburgBlock,omitempty"`
	IstanbulBlock       *uint64 `json:"istanbulBlock,omitempty"`
	BerlinBlock         *uint64 `json:"berlinBlock,omitempty"`
	LondonBlock         *uint64 `json:"londonBlock,omitempty"`

	TerminalTotalDifficulty *big.Int `json:"terminalTotalDifficulty,omitempty"`
	MergeNetsplitBlock      *uint64  `json:"mergeNetsplitBlock,omitempty"`

	ShanghaiTime *uint64 `json:"shanghaiTime,omitempty"`
	CancunTime   *uint64 `json:"cancunTime,omitempty"`
	PragueTime   *uint64 `json:"pragueTime,omitempty"`
	OsakaTime    *uint64 `json:"osakaTime,omitempty"`

	DepositContractAddress *common.Address `json:"depositContractAddress,omitempty"`
	FeeCollector           *common.Address `json:"eip1559collector,omitempty"`
	BlockRewardsContract   *common.Address `json:"blockRewardsContract,omitempty"`

	HotPatchTime   *uint64                   `json:"balancerHardforkTime,omitempty"`
	HotPatchConfig map[common.Address]string `json:"balancerHardforkConfig,omitempty"`

	BlobSchedule *BlobSchedule `json:"blobSchedule,omitempty"`
}

// GenesisInfo carries the genesis block facts the chain spec needs but does
// not derive itself.
type GenesisInfo struct {
	Hash      common.Hash
	Timestamp uint64
}

// BaseFeeParams bounds EIP-1559 base fee movement.
type BaseFeeParams struct {
	ChangeDenominator uint64
	Elasticity        uint64
}

// ChainSpec is the immutable, parsed chain specification.
type ChainSpec struct {
	chainID          *big.Int
	forks            []ForkActivation
	forkHashSeed     common.Hash
	genesisTimestamp uint64
	blobSchedule     BlobSchedule
	depositContract  *common.Address
	rewardContract   common.Address
	feeCollector     common.Address
	hotPatch         *HotPatchTable
	baseFee          BaseFeeParams
}

// NewChainSpec validates the genesis configuration and builds the ordered
// hardfork table from it.
func NewChainSpec(cfg *ChainConfig, genesis GenesisInfo) (*ChainSpec, error) {
	if cfg.ChainID == nil {
		return nil, ErrMissingChainID
	}
	if cfg.FeeCollector == nil {
		return nil, ErrMissingFeeCollector
	}
	if cfg.BlockRewardsContract == nil {
		return nil, ErrMissingRewardContract
	}
	if *cfg.BlockRewardsContract == SystemAddress {
		return nil, ErrRewardContractIsSystem
	}
	hotPatch, err := ParseHotPatchConfig(cfg.HotPatchTime, cfg.HotPatchConfig)
	if err != nil {
		return nil, err
	}
	schedule := GnosisBlobSchedule()
	if cfg.BlobSchedule != nil {
		schedule = *cfg.BlobSchedule
	}
	spec := &ChainSpec{
		chainID:          new(big.Int).Set(cfg.ChainID),
		forks:            orderForks(collectForks(cfg)),
		forkHashSeed:     forkHashSeed(cfg.ChainID, genesis.Hash),
		genesisTimestamp: genesis.Timestamp,
		blobSchedule:     schedule,
		rewardContract:   *cfg.BlockRewardsContract,
		feeCollector:     *cfg.FeeCollector,
		hotPatch:         hotPatch,
		baseFee:          BaseFeeParams{ChangeDenominator: BaseFeeChangeDenominator, Elasticity: ElasticityMultiplier},
	}
	if cfg.DepositContractAddress != nil {
		addr := *cfg.DepositContractAddress
		spec.depositContract = &addr
	}
	return spec, nil
}

// MustChainSpec is like NewChainSpec but panics on invalid configuration.
func MustChainSpec(cfg *ChainConfig, genesis GenesisInfo) *ChainSpec {
	spec, err := NewChainSpec(cfg, genesis)
	if err != nil {
		panic(err)
	}
	return spec
}

// collectForks gathers the activation conditions declared by the config, in
// declaration order. Mainnet Gnosis additionally carries the DAO fork and the
// two Gnosis block forks.
func collectForks(cfg *ChainConfig) []ForkActivation {
	type blockFork struct {
		fork  Fork
		block *uint64
	}
	var (
		constantinopleFix = uint64(ConstantinopleFixBlock)
		posdaoActivation  = uint64(POSDAOActivationBlock)
		declared          []blockFork
	)
	if cfg.ChainID.Uint64() == GnosisChainID {
		declared = []blockFork{
			{Homestead, cfg.HomesteadBlock},
			{DAO, cfg.DAOForkBlock},
			{Tangerine, cfg.EIP150Block},
			{SpuriousDragon, cfg.EIP155Block},
			{Byzantium, cfg.ByzantiumBlock},
			{Constantinople, cfg.ConstantinopleBlock},
			{ConstantinopleFix, &constantinopleFix},
			{POSDAOActivation, &posdaoActivation},
			{Petersburg, cfg.PetersburgBlock},
			{Istanbul, cfg.IstanbulBlock},
			{Berlin, cfg.BerlinBlock},
			{London, cfg.LondonBlock},
		}
	} else {
		declared = []blockFork{
			{Homestead, cfg.HomesteadBlock},
			{Tangerine, cfg.EIP150Block},
			{SpuriousDragon, cfg.EIP155Block},
			{Byzantium, cfg.ByzantiumBlock},
			{Constantinople, cfg.ConstantinopleBlock},
			{Petersburg, cfg.PetersburgBlock},
			{Istanbul, cfg.IstanbulBlock},
			{Berlin, cfg.BerlinBlock},
			{London, cfg.LondonBlock},
		}
	}
	forks := make([]ForkActivation, 0, len(declared)+5)
	for _, f := range declared {
		if f.block != nil {
			forks = append(forks, ForkActivation{Fork: f.fork, Condition: BlockCondition(*f.block)})
		}
	}
	if cfg.TerminalTotalDifficulty != nil {
		var activation uint64
		if cfg.MergeNetsplitBlock != nil {
			activation = *cfg.MergeNetsplitBlock
		}
		forks = append(forks, ForkActivation{Fork: Paris, Condition: ForkCondition{
			Kind:            ConditionTTD,
			Block:           activation,
			TotalDifficulty: new(big.Int).Set(cfg.TerminalTotalDifficulty),
			ForkBlock:       cfg.MergeNetsplitBlock,
		}})
	}
	for _, f := range []struct {
		fork Fork
		time *uint64
	}{
		{Shanghai, cfg.ShanghaiTime},
		{Cancun, cfg.CancunTime},
		{Prague, cfg.PragueTime},
		{Osaka, cfg.OsakaTime},
	} {
		if f.time != nil {
			forks = append(forks, ForkActivation{Fork: f.fork, Condition: TimestampCondition(*f.time)})
		}
	}
	return forks
}

// ChainID returns the chain id.
func (s *ChainSpec) ChainID() *big.Int { return new(big.Int).Set(s.chainID) }

// Forks returns the ordered hardfork table.
func (s *ChainSpec) Forks() []ForkActivation {
	out := make([]ForkActivation, len(s.forks))
	copy(out, s.forks)
	return out
}

// Condition returns the activation condition of fork.
func (s *ChainSpec) Condition(fork Fork) ForkCondition {
	for _, f := range s.forks {
		if f.Fork == fork {
			return f.Condition
		}
	}
	return ForkCondition{}
}

// IsActiveAtBlock reports whether a block-activated fork is active.
func (s *ChainSpec) IsActiveAtBlock(fork Fork, number uint64) bool {
	return s.Condition(fork).ActiveAtBlock(number)
}

// IsActiveAtTimestamp reports whether a timestamp-activated fork is active.
func (s *ChainSpec) IsActiveAtTimestamp(fork Fork, time uint64) bool {
	return s.Condition(fork).ActiveAtTimestamp(time)
}

func (s *ChainSpec) IsSpuriousDragon(number uint64) bool {
	return s.IsActiveAtBlock(SpuriousDragon, number)
}
func (s *ChainSpec) IsByzantium(number uint64) bool { return s.IsActiveAtBlock(Byzantium, number) }
func (s *ChainSpec) IsBerlin(number uint64) bool    { return s.IsActiveAtBlock(Berlin, number) }
func (s *ChainSpec) IsLondon(number uint64) bool    { return s.IsActiveAtBlock(London, number) }
func (s *ChainSpec) IsShanghai(time uint64) bool    { return s.IsActiveAtTimestamp(Shanghai, time) }
func (s *ChainSpec) IsCancun(time uint64) bool      { return s.IsActiveAtTimestamp(Cancun, time) }
func (s *ChainSpec) IsPrague(time uint64) bool      { return s.IsActiveAtTimestamp(Prague, time) }
func (s *ChainSpec) IsOsaka(time uint64) bool       { return s.IsActiveAtTimestamp(Osaka, time) }

// BlobParamsAt returns the blob parameters in force at time, or nil before
// Cancun.
func (s *ChainSpec) BlobParamsAt(time uint64) *BlobParams {
	var params *BlobParams
	if s.IsCancun(time) {
		params = s.blobSchedule.Cancun
	}
	if s.IsPrague(time) && s.blobSchedule.Prague != nil {
		params = s.blobSchedule.Prague
	}
	if s.IsOsaka(time) && s.blobSchedule.Osaka != nil {
		params = s.blobSchedule.Osaka
	}
	return params
}

// DepositContract returns the deposit contract address, if configured.
func (s *ChainSpec) DepositContract() (common.Address, bool) {
	if s.depositContract == nil {
		return common.Address{}, false
	}
	return *s.depositContract, true
}

// RewardContract returns the block reward contract address.
func (s *ChainSpec) RewardContract() common.Address { return s.rewardContract }

// FeeCollector returns the address receiving the base fee.
func (s *ChainSpec) FeeCollector() common.Address { return s.feeCollector }

// HotPatch returns the bytecode hot-patch table, or nil.
func (s *ChainSpec) HotPatch() *HotPatchTable { return s.hotPatch }

// BaseFeeParams returns the EIP-1559 parameters.
func (s *ChainSpec) BaseFeeParams() BaseFeeParams { return s.baseFee }

// GenesisTimestamp returns the timestamp of the genesis block.
func (s *ChainSpec) GenesisTimestamp() uint64 { return s.genesisTimestamp }

func (s *ChainSpec) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chain ID: %v\n", s.chainID)
	for _, f := range s.forks {
		fmt.Fprintf(&b, " - %-18s @ %v\n", f.Fork, f.Condition)
	}
	return b.String()
}

// Rules is the set of forks active for one block.
type Rules struct {
	ChainID *big.Int
	active  *bitset.BitSet
}

// Rules returns the active fork set at the given block number and time.
func (s *ChainSpec) Rules(number, time uint64) Rules {
	active := bitset.New(uint(forkCount))
	active.Set(uint(Frontier))
	for _, f := range s.forks {
		if f.Condition.ActiveAtBlock(number) || f.Condition.ActiveAtTimestamp(time) {
			active.Set(uint(f.Fork))
		}
	}
	return Rules{ChainID: s.ChainID(), active: active}
}

// Active reports whether fork is part of the rule set.
func (r Rules) Active(fork Fork) bool {
	return r.active != nil && r.active.Test(uint(fork))
}

func (r Rules) IsHomestead() bool      { return r.Active(Homestead) }
func (r Rules) IsSpuriousDragon() bool { return r.Active(SpuriousDragon) }
func (r Rules) IsByzantium() bool      { return r.Active(Byzantium) }
func (r Rules) IsIstanbul() bool       { return r.Active(Istanbul) }
func (r Rules) IsBerlin() bool         { return r.Active(Berlin) }
func (r Rules) IsLondon() bool         { return r.Active(London) }
func (r Rules) IsMerge() bool          { return r.Active(Paris) }
func (r Rules) IsShanghai() bool       { return r.Active(Shanghai) }
func (r Rules) IsCancun() bool         { return r.Active(Cancun) }
func (r Rules) IsPrague() bool         { return r.Active(Prague) }
func (r Rules) IsOsaka() bool          { return r.Active(Osaka) }
