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

package types

import (
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// StateAccount is the flat-storage representation of an account. The storage
// root is not tracked: storage slots live next to the account in the flat
// database and roots are computed by the external trie component.
type StateAccount struct {
	Nonce    uint64       `json:"nonce"`
	Balance  *uint256.Int `json:"balance"`
	CodeHash common.Hash  `json:"codeHash"`
}

// NewEmptyStateAccount constructs an empty state account.
func NewEmptyStateAccount() *StateAccount {
	return &StateAccount{
		Balance:  new(uint256.Int),
		CodeHash: EmptyCodeHash,
	}
}

// Copy returns a deep-copied state account object.
func (acct *StateAccount) Copy() *StateAccount {
	var balance *uint256.Int
	if acct.Balance != nil {
		balance = new(uint256.Int).Set(acct.Balance)
	}
	return &StateAccount{
		Nonce:    acct.Nonce,
		Balance:  balance,
		CodeHash: acct.CodeHash,
	}
}

// EncodeRLP implements rlp.Encoder.
func (acct *StateAccount) EncodeRLP(_w io.Writer) error {
	w := rlp.NewEncoderBuffer(_w)
	list := w.List()
	w.WriteUint64(acct.Nonce)
	if acct.Balance == nil {
		w.Write(rlp.EmptyString)
	} else {
		w.WriteUint256(acct.Balance)
	}
	w.WriteBytes(acct.CodeHash[:])
	w.ListEnd(list)
	return w.Flush()
}

// DecodeRLP implements rlp.Decoder.
func (acct *StateAccount) DecodeRLP(s *rlp.Stream) error {
	if _, err := s.List(); err != nil {
		return err
	}
	nonce, err := s.Uint64()
	if err != nil {
		return err
	}
	balance := new(uint256.Int)
	if err := s.ReadUint256(balance); err != nil {
		return err
	}
	var codeHash common.Hash
	if err := s.Decode(&codeHash); err != nil {
		return err
	}
	if err := s.ListEnd(); err != nil {
		return err
	}
	acct.Nonce, acct.Balance, acct.CodeHash = nonce, balance, codeHash
	return nil
}
