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

package types

import (
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Transactions, receipts and withdrawals are identical to upstream Ethereum
// and are shared with go-ethereum. Only the header differs on Gnosis.
type (
	Transaction          = gethtypes.Transaction
	Transactions         = gethtypes.Transactions
	TxData               = gethtypes.TxData
	LegacyTx             = gethtypes.LegacyTx
	AccessListTx         = gethtypes.AccessListTx
	DynamicFeeTx         = gethtypes.DynamicFeeTx
	BlobTx               = gethtypes.BlobTx
	SetCodeTx            = gethtypes.SetCodeTx
	AccessList           = gethtypes.AccessList
	AccessTuple          = gethtypes.AccessTuple
	SetCodeAuthorization = gethtypes.SetCodeAuthorization
	BlobTxSidecar        = gethtypes.BlobTxSidecar
	Signer               = gethtypes.Signer

	Receipt  = gethtypes.Receipt
	Receipts = gethtypes.Receipts
	Log      = gethtypes.Log
	Bloom    = gethtypes.Bloom

	Withdrawal  = gethtypes.Withdrawal
	Withdrawals = gethtypes.Withdrawals

	Account      = gethtypes.Account
	GenesisAlloc = gethtypes.GenesisAlloc

	BlockNonce = gethtypes.BlockNonce
)

const (
	LegacyTxType     = gethtypes.LegacyTxType
	AccessListTxType = gethtypes.AccessListTxType
	DynamicFeeTxType = gethtypes.DynamicFeeTxType
	BlobTxType       = gethtypes.BlobTxType
	SetCodeTxType    = gethtypes.SetCodeTxType

	ReceiptStatusFailed     = gethtypes.ReceiptStatusFailed
	ReceiptStatusSuccessful = gethtypes.ReceiptStatusSuccessful
)

var (
	NewTx                  = gethtypes.NewTx
	SignNewTx              = gethtypes.SignNewTx
	MustSignNewTx          = gethtypes.MustSignNewTx
	Sender                 = gethtypes.Sender
	LatestSignerForChainID = gethtypes.LatestSignerForChainID
	DeriveSha              = gethtypes.DeriveSha
	EncodeNonce            = gethtypes.EncodeNonce
	SignSetCode            = gethtypes.SignSetCode
)
