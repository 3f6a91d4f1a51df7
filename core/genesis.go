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

package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/core/rawdb"
	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/params"
)

var errGenesisNoConfig = errors.New("genesis has no chain configuration")

// Genesis specifies the header fields and state of a genesis block. Hard fork
// switch-over points come from the chain configuration.
type Genesis struct {
	Config     *params.ChainConfig `json:"config"`
	Timestamp  uint64              `json:"timestamp"`
	ExtraData  []byte              `json:"extraData"`
	GasLimit   uint64              `json:"gasLimit"`
	Difficulty *big.Int            `json:"difficulty"`
	Coinbase   common.Address      `json:"coinbase"`
	Alloc      types.GenesisAlloc  `json:"alloc"`
	BaseFee    *big.Int            `json:"baseFeePerGas"`

	// StateRoot is the root of the allocation. State roots are computed
	// outside of the engine, so it is taken as given; the zero hash stands
	// for the empty state.
	StateRoot common.Hash `json:"stateRoot"`
}

// GenesisMismatchError is raised when trying to overwrite an existing
// genesis block with an incompatible one.
type GenesisMismatchError struct {
	Stored, New common.Hash
}

func (e *GenesisMismatchError) Error() string {
	return fmt.Sprintf("database contains incompatible genesis (have %x, new %x)", e.Stored, e.New)
}

// forkRules builds a chain specification for evaluating the fork schedule at
// genesis. The fork-hash seed is not known yet and is left zero.
func (g *Genesis) forkRules() (*params.ChainSpec, error) {
	if g.Config == nil {
		return nil, errGenesisNoConfig
	}
	return params.NewChainSpec(g.Config, params.GenesisInfo{Timestamp: g.Timestamp})
}

// ToHeader returns the genesis header, with every optional field present that
// the forks active at genesis require.
func (g *Genesis) ToHeader() (*types.Header, error) {
	spec, err := g.forkRules()
	if err != nil {
		return nil, err
	}
	head := &types.Header{
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    g.Coinbase,
		Root:        g.StateRoot,
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  new(big.Int),
		Time:        g.Timestamp,
		Extra:       common.CopyBytes(g.ExtraData),
		GasLimit:    g.GasLimit,
	}
	if head.Root == (common.Hash{}) {
		head.Root = types.EmptyRootHash
	}
	if g.Difficulty != nil {
		head.Difficulty.Set(g.Difficulty)
	}
	if g.GasLimit == 0 {
		head.GasLimit = params.GenesisGasLimit
	}
	if spec.IsLondon(0) {
		head.BaseFee = big.NewInt(params.InitialBaseFee)
		if g.BaseFee != nil {
			head.BaseFee.Set(g.BaseFee)
		}
	}
	if spec.IsShanghai(g.Timestamp) {
		head.WithdrawalsHash = &types.EmptyWithdrawalsHash
	}
	if spec.IsCancun(g.Timestamp) {
		// The genesis block has no parent, its beacon root is zero.
		head.ParentBeaconRoot = new(common.Hash)
		head.ExcessBlobGas = new(uint64)
		head.BlobGasUsed = new(uint64)
	}
	if spec.IsPrague(g.Timestamp) {
		head.RequestsHash = &types.EmptyRequestsHash
	}
	return head, nil
}

// changes converts the allocation into a flat state write set.
func (g *Genesis) changes() (*state.Changes, error) {
	changes := &state.Changes{
		Accounts: make(map[common.Address]*types.StateAccount, len(g.Alloc)),
		Storage:  make(map[common.Address]map[common.Hash]common.Hash),
		Code:     make(map[common.Hash][]byte),
	}
	for addr, account := range g.Alloc {
		acct := types.NewEmptyStateAccount()
		acct.Nonce = account.Nonce
		if account.Balance != nil {
			balance, overflow := uint256.FromBig(account.Balance)
			if overflow || account.Balance.Sign() < 0 {
				return nil, fmt.Errorf("invalid genesis balance for %v: %v", addr, account.Balance)
			}
			acct.Balance = balance
		}
		if len(account.Code) > 0 {
			acct.CodeHash = crypto.Keccak256Hash(account.Code)
			changes.Code[acct.CodeHash] = account.Code
		}
		if len(account.Storage) > 0 {
			changes.Storage[addr] = account.Storage
		}
		changes.Accounts[addr] = acct
	}
	return changes, nil
}

// Commit writes the allocation and the genesis header to the database. The
// header is stored as the canonical head.
func (g *Genesis) Commit(db *rawdb.Database) (*types.Header, error) {
	head, err := g.ToHeader()
	if err != nil {
		return nil, err
	}
	changes, err := g.changes()
	if err != nil {
		return nil, err
	}
	if err := db.WriteChanges(changes); err != nil {
		return nil, err
	}
	batch := db.NewBatch()
	rawdb.WriteHeader(batch, head)
	rawdb.WriteHeadBlockHash(batch, head.Hash())
	if err := batch.Write(); err != nil {
		return nil, err
	}
	return head, nil
}

// SetupGenesisBlock writes the genesis block to an empty database, or checks
// that the stored genesis matches. It returns the chain specification seeded
// with the genesis hash.
func SetupGenesisBlock(db *rawdb.Database, genesis *Genesis) (*params.ChainSpec, common.Hash, error) {
	if genesis == nil || genesis.Config == nil {
		return nil, common.Hash{}, errGenesisNoConfig
	}
	head, err := genesis.ToHeader()
	if err != nil {
		return nil, common.Hash{}, err
	}
	hash := head.Hash()

	stored := rawdb.ReadCanonicalHash(db, 0)
	switch {
	case stored == (common.Hash{}):
		log.Info("Writing custom genesis block", "hash", hash, "accounts", len(genesis.Alloc))
		if _, err := genesis.Commit(db); err != nil {
			return nil, common.Hash{}, err
		}
	case stored != hash:
		return nil, common.Hash{}, &GenesisMismatchError{Stored: stored, New: hash}
	default:
		log.Info("Genesis hash", "hash", stored)
	}
	spec, err := params.NewChainSpec(genesis.Config, params.GenesisInfo{Hash: hash, Timestamp: genesis.Timestamp})
	if err != nil {
		return nil, common.Hash{}, err
	}
	return spec, hash, nil
}
