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
	"encoding/json"
	"os"
	"time"

	"github.com/zircuit-labs/zkr-go-common/version"
)

// DefaultVersionFile is where release images place their build information.
const DefaultVersionFile = "/etc/gnosis-engine/version.json"

var (
	Info            version.VersionInformation
	VersionWithMeta string
)

func init() {
	path := os.Getenv("GNOSIS_VERSION_FILE")
	if path == "" {
		path = DefaultVersionFile
	}
	Info, VersionWithMeta = LoadVersion(path)
}

// LoadVersion reads build information from a JSON version file. A missing or
// malformed file yields "unknown-version".
func LoadVersion(path string) (version.VersionInformation, string) {
	var info version.VersionInformation
	file, err := os.ReadFile(path)
	if err != nil {
		return info, "unknown-version"
	}
	if err := json.Unmarshal(file, &info); err != nil {
		return version.VersionInformation{}, "unknown-version"
	}
	info.Date = time.Unix(info.GitDate, 0).UTC()

	withMeta := info.Version
	if info.Variant != "" {
		withMeta += "-" + info.Variant
	}
	return info, withMeta
}
