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

package params

import "github.com/ethereum/go-ethereum/common"

const (
	TxGas                     uint64 = 21000 // Per transaction not creating a contract.
	TxGasContractCreation     uint64 = 53000 // Per transaction that creates a contract.
	TxDataZeroGas             uint64 = 4     // Per byte of data attached to a transaction that equals zero.
	TxDataNonZeroGasFrontier  uint64 = 68    // Per byte of data attached to a transaction that is not equal to zero.
	TxDataNonZeroGasEIP2028   uint64 = 16    // Per byte of non zero data attached to a transaction after EIP 2028.
	TxAccessListAddressGas    uint64 = 2400  // Per address specified in an EIP 2930 access list.
	TxAccessListStorageKeyGas uint64 = 1900  // Per storage key specified in an EIP 2930 access list.
	TxAuthTupleGas            uint64 = 12500 // Per auth tuple specified in an EIP 7702 set-code transaction.
	CallNewAccountGas         uint64 = 25000 // Paid for CALL when the destination address didn't exist prior.
	TxCostFloorPerToken       uint64 = 10    // Cost floor per byte of data as per EIP-7623.
	CreateDataGas             uint64 = 200   // Per byte of deployed contract code.
	InitCodeWordGas           uint64 = 2     // Once per word of the init code when creating a contract.

	RefundQuotient        uint64 = 2 // Maximum refund quotient; max gas refund is gasUsed/RefundQuotient.
	RefundQuotientEIP3529 uint64 = 5 // Maximum refund quotient after London.

	MaxCodeSize     = 24576           // Maximum bytecode to permit for a contract.
	MaxInitCodeSize = 2 * MaxCodeSize // Maximum initcode to permit in a creation transaction.

	BaseFeeChangeDenominator = 8          // Bounds the amount the base fee can change between blocks.
	ElasticityMultiplier     = 2          // Bounds the maximum gas limit an EIP-1559 block may have.
	InitialBaseFee           = 1000000000 // Initial base fee for EIP-1559 blocks.

	GWei = 1e9 // Wei per gwei.

	MaximumExtraDataSize uint64 = 32      // Maximum size extra data may be after Genesis.
	GasLimitBoundDivisor uint64 = 1024    // The bound divisor of the gas limit, used in update calculations.
	MinGasLimit          uint64 = 5000    // Minimum the gas limit may ever be.
	GenesisGasLimit      uint64 = 4712388 // Gas limit of the Genesis block.

	BlobTxBlobGasPerBlob = 1 << 17 // Gas consumption of a single data blob (== blob byte size).

	// SystemCallGasLimit is the gas limit granted to consensus system calls.
	SystemCallGasLimit uint64 = 30_000_000
)

var (
	// SystemAddress is where the system-transaction is sent from as per EIP-4788.
	SystemAddress = common.HexToAddress("0xfffffffffffffffffffffffffffffffffffffffe")

	// BeaconRootsAddress is the EIP-4788 beacon roots contract.
	BeaconRootsAddress = common.HexToAddress("0x000F3df6D732807Ef1319fB7B8bB8522d0Beac02")

	// HistoryStorageAddress is the EIP-2935 history storage contract.
	HistoryStorageAddress = common.HexToAddress("0x0000F90827F1C53a10cb7A02335B175320002935")

	// WithdrawalQueueAddress is the EIP-7002 withdrawal request contract.
	WithdrawalQueueAddress = common.HexToAddress("0x00000961Ef480Eb55e80D19ad83579A64c007002")

	// ConsolidationQueueAddress is the EIP-7251 consolidation request contract.
	ConsolidationQueueAddress = common.HexToAddress("0x0000BBdDc7CE488642fb579F8B00f3a590007251")
)
