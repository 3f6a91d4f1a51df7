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
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Activation blocks of the Gnosis specific block forks.
const (
	ConstantinopleFixBlock = 2508800
	POSDAOActivationBlock  = 9186425
)

// MaxFailedWithdrawalsToProcess is passed to the deposit contract on every
// withdrawal system call.
const MaxFailedWithdrawalsToProcess = 4

var (
	// GnosisForkHashSeed seeds the fork-id computation of Gnosis mainnet.
	GnosisForkHashSeed = common.HexToHash("0x4f1dd23188aab3a76b463e4af801b52b1248ef073c648cbdc4c9333d3da79756")

	// ChiadoForkHashSeed seeds the fork-id computation of the Chiado testnet.
	ChiadoForkHashSeed = common.HexToHash("0xada44fd8d2ecab8b08f256af07ad3e777f17fb434f8f8e678b312f576212ba9a")

	// DepositEventTopic is the topic of the deposit contract's DepositEvent log.
	DepositEventTopic = common.HexToHash("0x649bbc62d0e31342afea4e5cd82d4049e7e1ee912fc0889aa790803be39038c5")
)

// forkHashSeed returns the hash the fork-id chain starts from. The known
// networks use a fixed value; anything else uses its own genesis hash.
func forkHashSeed(chainID *big.Int, genesisHash common.Hash) common.Hash {
	if !chainID.IsUint64() {
		return genesisHash
	}
	switch chainID.Uint64() {
	case GnosisChainID:
		return GnosisForkHashSeed
	case ChiadoChainID:
		return ChiadoForkHashSeed
	}
	return genesisHash
}

func u64(v uint64) *uint64 { return &v }

func addr(hex string) *common.Address {
	a := common.HexToAddress(hex)
	return &a
}

func bigFromString(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid big integer " + s)
	}
	return v
}

// GnosisChainConfig returns the genesis configuration of Gnosis mainnet.
func GnosisChainConfig() *ChainConfig {
	schedule := GnosisBlobSchedule()
	return &ChainConfig{
		ChainID:                 big.NewInt(GnosisChainID),
		HomesteadBlock:          u64(0),
		EIP150Block:             u64(0),
		EIP155Block:             u64(0),
		ByzantiumBlock:          u64(0),
		ConstantinopleBlock:     u64(1604400),
		PetersburgBlock:         u64(2508800),
		IstanbulBlock:           u64(7298030),
		BerlinBlock:             u64(16101500),
		LondonBlock:             u64(19040000),
		TerminalTotalDifficulty: bigFromString("8626000000000000000000058750000000000000000000"),
		ShanghaiTime:            u64(1690889660),
		CancunTime:              u64(1710181820),
		PragueTime:              u64(1746612311),
		DepositContractAddress:  addr("0x0B98057eA310F4d31F2a452B414647007d1645d9"),
		FeeCollector:            addr("0x6BBe78ee9e474842Dbd4AB4987b3CeFE88426A92"),
		BlockRewardsContract:    addr("0x481c034c6d9441db23Ea48De68BCAe812C5d39bA"),
		BlobSchedule:            &schedule,
	}
}

// ChiadoChainConfig returns the genesis configuration of the Chiado testnet.
func ChiadoChainConfig() *ChainConfig {
	schedule := GnosisBlobSchedule()
	return &ChainConfig{
		ChainID:                 big.NewInt(ChiadoChainID),
		HomesteadBlock:          u64(0),
		EIP150Block:             u64(0),
		EIP155Block:             u64(0),
		ByzantiumBlock:          u64(0),
		ConstantinopleBlock:     u64(0),
		PetersburgBlock:         u64(0),
		IstanbulBlock:           u64(0),
		BerlinBlock:             u64(0),
		LondonBlock:             u64(0),
		TerminalTotalDifficulty: bigFromString("231707791542740786049188744689299064356246512"),
		ShanghaiTime:            u64(1684934220),
		CancunTime:              u64(1706724940),
		PragueTime:              u64(1741254220),
		DepositContractAddress:  addr("0xb97036A26259B7147018913bD58a774cf91acf25"),
		FeeCollector:            addr("0x1559000000000000000000000000000000000000"),
		BlockRewardsContract:    addr("0x2000000000000000000000000000000000000001"),
		BlobSchedule:            &schedule,
	}
}

// Genesis facts of the built-in networks.
var (
	GnosisGenesis = GenesisInfo{Hash: GnosisForkHashSeed, Timestamp: 0}
	ChiadoGenesis = GenesisInfo{Hash: ChiadoForkHashSeed, Timestamp: 1665396300}
)

// GnosisChainSpec returns the chain specification of Gnosis mainnet.
func GnosisChainSpec() *ChainSpec { return MustChainSpec(GnosisChainConfig(), GnosisGenesis) }

// ChiadoChainSpec returns the chain specification of the Chiado testnet.
func ChiadoChainSpec() *ChainSpec { return MustChainSpec(ChiadoChainConfig(), ChiadoGenesis) }

// ChainSpecByName resolves a built-in network by name.
func ChainSpecByName(name string) (*ChainSpec, bool) {
	switch name {
	case "gnosis":
		return GnosisChainSpec(), true
	case "chiado":
		return ChiadoChainSpec(), true
	}
	return nil, false
}
