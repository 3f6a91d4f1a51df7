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

// BlobParams holds the blob-gas parameters of one era.
type BlobParams struct {
	Target         uint64 `json:"target"`
	Max            uint64 `json:"max"`
	UpdateFraction uint64 `json:"baseFeeUpdateFraction"`
	MinBlobFee     uint64 `json:"minBlobFee"`
	MaxBlobsPerTx  uint64 `json:"maxBlobsPerTx"`
}

// TargetBlobGas returns the per-block blob gas target.
func (p *BlobParams) TargetBlobGas() uint64 {
	return p.Target * BlobTxBlobGasPerBlob
}

// MaxBlobGas returns the per-block blob gas ceiling.
func (p *BlobParams) MaxBlobGas() uint64 {
	return p.Max * BlobTxBlobGasPerBlob
}

// BlobSchedule maps blob-carrying eras to their parameters. A nil era falls
// back to the previous one.
type BlobSchedule struct {
	Cancun *BlobParams `json:"cancun,omitempty"`
	Prague *BlobParams `json:"prague,omitempty"`
	Osaka  *BlobParams `json:"osaka,omitempty"`
}

var (
	// GnosisCancunBlobParams are the blob parameters from Cancun until Prague.
	GnosisCancunBlobParams = BlobParams{
		Target:         1,
		Max:            2,
		UpdateFraction: 1112826,
		MinBlobFee:     1000000000,
		MaxBlobsPerTx:  2,
	}

	// GnosisPragueBlobParams are the blob parameters from Prague onwards.
	GnosisPragueBlobParams = BlobParams{
		Target:         1,
		Max:            2,
		UpdateFraction: 1112826,
		MinBlobFee:     1000000000,
		MaxBlobsPerTx:  2,
	}
)

// GnosisBlobSchedule returns the blob schedule shared by every Gnosis network.
func GnosisBlobSchedule() BlobSchedule {
	cancun, prague, osaka := GnosisCancunBlobParams, GnosisPragueBlobParams, GnosisPragueBlobParams
	return BlobSchedule{Cancun: &cancun, Prague: &prague, Osaka: &osaka}
}
