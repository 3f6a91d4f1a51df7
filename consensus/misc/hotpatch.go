package misc

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/gnosischain/gnosis-engine/params"
)

// CodeState is the part of the state the bytecode hot-patch needs.
type CodeState interface {
	GetCodeHash(addr common.Address) common.Hash
	SetCode(addr common.Address, code []byte)
}

// ApplyHotPatch replaces the code of every account listed in the hot-patch
// table, but only in the block that crosses the activation time. Accounts whose
// code already matches are left alone. Balance and nonce are never touched.
// It returns the number of accounts rewritten.
func ApplyHotPatch(table *params.HotPatchTable, parentTime, time uint64, db CodeState) int {
	if !table.IsTransition(parentTime, time) {
		return 0
	}
	var patched int
	for _, entry := range table.Entries {
		if db.GetCodeHash(entry.Address) == entry.CodeHash {
			continue
		}
		log.Info("Rewriting contract bytecode", "address", entry.Address, "codeHash", entry.CodeHash, "size", len(entry.Code))
		db.SetCode(entry.Address, entry.Code)
		patched++
	}
	return patched
}
