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

package types

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/gnosischain/gnosis-engine/params"
)

var (
	errInvalidStep         = errors.New("invalid aura step")
	errInvalidOptionalHash = errors.New("invalid optional header hash")
	errValueTooLarge       = errors.New("header value exceeds 256 bits")
)

// AuRaSeal is the proof-of-authority seal of pre-merge Gnosis headers. It
// takes the place of the mix digest and nonce in the encoding.
type AuRaSeal struct {
	Step      *uint256.Int
	Signature []byte
}

// Header represents a block header of the Gnosis chain.
type Header struct {
	ParentHash  common.Hash
	UncleHash   common.Hash
	Coinbase    common.Address
	Root        common.Hash
	TxHash      common.Hash
	ReceiptHash common.Hash
	Bloom       Bloom
	Difficulty  *big.Int
	Number      uint64
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
	MixDigest   common.Hash
	Nonce       BlockNonce

	// BaseFee was added by EIP-1559 and is ignored in legacy headers.
	BaseFee *big.Int

	// WithdrawalsHash was added by EIP-4895 and is ignored in legacy headers.
	WithdrawalsHash *common.Hash

	// BlobGasUsed was added by EIP-4844 and is ignored in legacy headers.
	BlobGasUsed *uint64

	// ExcessBlobGas was added by EIP-4844 and is ignored in legacy headers.
	ExcessBlobGas *uint64

	// ParentBeaconRoot was added by EIP-4788 and is ignored in legacy headers.
	ParentBeaconRoot *common.Hash

	// RequestsHash was added by EIP-7685 and is ignored in legacy headers.
	RequestsHash *common.Hash

	// AuRa is only set on headers sealed before the merge.
	AuRa *AuRaSeal
}

// Hash returns the keccak256 hash of the header's RLP encoding.
func (h *Header) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		panic(fmt.Sprintf("header encoding failed: %v", err))
	}
	return crypto.Keccak256Hash(enc)
}

// Copy returns a deep copy of the header.
func (h *Header) Copy() *Header {
	cpy := *h
	if h.Difficulty != nil {
		cpy.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if len(h.Extra) > 0 {
		cpy.Extra = common.CopyBytes(h.Extra)
	}
	if h.BaseFee != nil {
		cpy.BaseFee = new(big.Int).Set(h.BaseFee)
	}
	if h.WithdrawalsHash != nil {
		v := *h.WithdrawalsHash
		cpy.WithdrawalsHash = &v
	}
	if h.BlobGasUsed != nil {
		v := *h.BlobGasUsed
		cpy.BlobGasUsed = &v
	}
	if h.ExcessBlobGas != nil {
		v := *h.ExcessBlobGas
		cpy.ExcessBlobGas = &v
	}
	if h.ParentBeaconRoot != nil {
		v := *h.ParentBeaconRoot
		cpy.ParentBeaconRoot = &v
	}
	if h.RequestsHash != nil {
		v := *h.RequestsHash
		cpy.RequestsHash = &v
	}
	if h.AuRa != nil {
		seal := &AuRaSeal{Signature: common.CopyBytes(h.AuRa.Signature)}
		if h.AuRa.Step != nil {
			seal.Step = new(uint256.Int).Set(h.AuRa.Step)
		}
		cpy.AuRa = seal
	}
	return &cpy
}

// EncodeRLP writes the header in its consensus encoding. Optional fields are
// appended in fork order; encoding stops at the first absent one.
func (h *Header) EncodeRLP(_w io.Writer) error {
	w := rlp.NewEncoderBuffer(_w)
	list := w.List()
	w.WriteBytes(h.ParentHash[:])
	w.WriteBytes(h.UncleHash[:])
	w.WriteBytes(h.Coinbase[:])
	w.WriteBytes(h.Root[:])
	w.WriteBytes(h.TxHash[:])
	w.WriteBytes(h.ReceiptHash[:])
	w.WriteBytes(h.Bloom[:])
	if h.Difficulty == nil {
		w.Write(rlp.EmptyString)
	} else {
		if h.Difficulty.Sign() == -1 {
			return rlp.ErrNegativeBigInt
		}
		w.WriteBigInt(h.Difficulty)
	}
	w.WriteUint64(h.Number)
	w.WriteUint64(h.GasLimit)
	w.WriteUint64(h.GasUsed)
	w.WriteUint64(h.Time)
	w.WriteBytes(h.Extra)
	if h.AuRa != nil {
		if h.AuRa.Step == nil {
			w.Write(rlp.EmptyString)
		} else {
			w.WriteUint256(h.AuRa.Step)
		}
		w.WriteBytes(h.AuRa.Signature)
	} else {
		w.WriteBytes(h.MixDigest[:])
		w.WriteBytes(h.Nonce[:])
	}

	if h.BaseFee == nil {
		w.ListEnd(list)
		return w.Flush()
	}
	if h.BaseFee.Sign() == -1 {
		return rlp.ErrNegativeBigInt
	}
	w.WriteBigInt(h.BaseFee)
	if h.WithdrawalsHash != nil {
		w.WriteBytes(h.WithdrawalsHash[:])
		if h.BlobGasUsed != nil && h.ExcessBlobGas != nil {
			w.WriteUint64(*h.BlobGasUsed)
			w.WriteUint64(*h.ExcessBlobGas)
			if h.ParentBeaconRoot != nil {
				w.WriteBytes(h.ParentBeaconRoot[:])
				if h.RequestsHash != nil {
					w.WriteBytes(h.RequestsHash[:])
				}
			}
		}
	}
	w.ListEnd(list)
	return w.Flush()
}

// DecodeRLP reads a header, accepting both the AuRa seal and the mix digest
// and nonce layout. Optional fields are read while list data remains.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	var dec Header
	if _, err := s.List(); err != nil {
		return err
	}
	for _, hash := range []*common.Hash{&dec.ParentHash, &dec.UncleHash} {
		if err := s.Decode(hash); err != nil {
			return err
		}
	}
	if err := s.Decode(&dec.Coinbase); err != nil {
		return err
	}
	for _, hash := range []*common.Hash{&dec.Root, &dec.TxHash, &dec.ReceiptHash} {
		if err := s.Decode(hash); err != nil {
			return err
		}
	}
	if err := s.Decode(&dec.Bloom); err != nil {
		return err
	}
	var err error
	if dec.Difficulty, err = s.BigInt(); err != nil {
		return err
	}
	if dec.Difficulty.BitLen() > 256 {
		return fmt.Errorf("%w: difficulty", errValueTooLarge)
	}
	for _, v := range []*uint64{&dec.Number, &dec.GasLimit, &dec.GasUsed, &dec.Time} {
		if *v, err = s.Uint64(); err != nil {
			return err
		}
	}
	if dec.Extra, err = s.Bytes(); err != nil {
		return err
	}
	first, err := s.Bytes()
	if err != nil {
		return err
	}
	second, err := s.Bytes()
	if err != nil {
		return err
	}
	if len(first) == common.HashLength && len(second) == len(BlockNonce{}) {
		dec.MixDigest = common.BytesToHash(first)
		copy(dec.Nonce[:], second)
	} else {
		if len(first) > 32 || (len(first) > 0 && first[0] == 0) {
			return errInvalidStep
		}
		dec.AuRa = &AuRaSeal{Step: new(uint256.Int).SetBytes(first), Signature: second}
	}

	if s.MoreDataInList() {
		if dec.BaseFee, err = s.BigInt(); err != nil {
			return err
		}
		if dec.BaseFee.BitLen() > 256 {
			return fmt.Errorf("%w: baseFee", errValueTooLarge)
		}
	}
	if s.MoreDataInList() {
		if dec.WithdrawalsHash, err = decodeOptionalHash(s); err != nil {
			return err
		}
	}
	if s.MoreDataInList() {
		v, err := s.Uint64()
		if err != nil {
			return err
		}
		dec.BlobGasUsed = &v
	}
	if s.MoreDataInList() {
		v, err := s.Uint64()
		if err != nil {
			return err
		}
		dec.ExcessBlobGas = &v
	}
	if s.MoreDataInList() {
		if dec.ParentBeaconRoot, err = decodeOptionalHash(s); err != nil {
			return err
		}
	}
	if s.MoreDataInList() {
		if dec.RequestsHash, err = decodeOptionalHash(s); err != nil {
			return err
		}
	}
	if err := s.ListEnd(); err != nil {
		return err
	}
	*h = dec
	return nil
}

func decodeOptionalHash(s *rlp.Stream) (*common.Hash, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b) != common.HashLength {
		return nil, errInvalidOptionalHash
	}
	hash := common.BytesToHash(b)
	return &hash, nil
}

// VerifyForkFields checks that every optional field is present exactly when
// its fork is active for this header.
func (h *Header) VerifyForkFields(spec *params.ChainSpec) error {
	check := func(name string, present, active bool) error {
		switch {
		case active && !present:
			return fmt.Errorf("header is missing %s", name)
		case !active && present:
			return fmt.Errorf("header has unexpected %s", name)
		}
		return nil
	}
	if h.Difficulty != nil && h.Difficulty.BitLen() > 256 {
		return fmt.Errorf("%w: difficulty", errValueTooLarge)
	}
	if h.BaseFee != nil && h.BaseFee.BitLen() > 256 {
		return fmt.Errorf("%w: baseFee", errValueTooLarge)
	}
	cancun := spec.IsCancun(h.Time)
	for _, field := range []struct {
		name    string
		present bool
		active  bool
	}{
		{"baseFee", h.BaseFee != nil, spec.IsLondon(h.Number)},
		{"withdrawalsHash", h.WithdrawalsHash != nil, spec.IsShanghai(h.Time)},
		{"blobGasUsed", h.BlobGasUsed != nil, cancun},
		{"excessBlobGas", h.ExcessBlobGas != nil, cancun},
		{"parentBeaconRoot", h.ParentBeaconRoot != nil, cancun},
		{"requestsHash", h.RequestsHash != nil, spec.IsPrague(h.Time)},
	} {
		if err := check(field.name, field.present, field.active); err != nil {
			return err
		}
	}
	if h.AuRa != nil && spec.IsShanghai(h.Time) {
		return errors.New("header has aura seal after shanghai")
	}
	return nil
}
