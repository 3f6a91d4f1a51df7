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
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/gnosischain/gnosis-engine/params"
)

const depositEventABI = `[{"anonymous":false,"inputs":[
	{"indexed":false,"name":"pubkey","type":"bytes"},
	{"indexed":false,"name":"withdrawal_credentials","type":"bytes"},
	{"indexed":false,"name":"amount","type":"bytes"},
	{"indexed":false,"name":"signature","type":"bytes"},
	{"indexed":false,"name":"index","type":"bytes"}],
	"name":"DepositEvent","type":"event"}]`

// DepositRequestSize is the size of one encoded EIP-6110 deposit request.
const DepositRequestSize = 48 + 32 + 8 + 96 + 8

var depositABI = mustParseABI(depositEventABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// DepositLogToRequest unpacks a DepositEvent log payload into the flat
// EIP-6110 request encoding: pubkey, credentials, amount, signature, index.
func DepositLogToRequest(data []byte) ([]byte, error) {
	values, err := depositABI.Unpack("DepositEvent", data)
	if err != nil {
		return nil, fmt.Errorf("unable to unpack deposit event: %w", err)
	}
	sizes := []int{48, 32, 8, 96, 8}
	if len(values) != len(sizes) {
		return nil, fmt.Errorf("deposit event has %d fields, want %d", len(values), len(sizes))
	}
	out := make([]byte, 0, DepositRequestSize)
	for i, v := range values {
		field, ok := v.([]byte)
		if !ok || len(field) != sizes[i] {
			return nil, fmt.Errorf("deposit event field %d has invalid size %d", i, len(field))
		}
		out = append(out, field...)
	}
	return out, nil
}

// ParseDepositRequests collects the deposit requests emitted by the deposit
// contract across all receipt logs, in log order.
func ParseDepositRequests(receipts Receipts, depositContract common.Address) ([]byte, error) {
	var out []byte
	for _, receipt := range receipts {
		for _, l := range receipt.Logs {
			if l.Address != depositContract || len(l.Topics) == 0 || l.Topics[0] != params.DepositEventTopic {
				continue
			}
			request, err := DepositLogToRequest(l.Data)
			if err != nil {
				return nil, err
			}
			out = append(out, request...)
		}
	}
	return out, nil
}
