package core

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"

	"github.com/gnosischain/gnosis-engine/core/types"
	"github.com/gnosischain/gnosis-engine/params"
)

const txFilterEnvPrefix = "GNOSIS_EL_"

// Default activation times of the transaction blacklist.
const (
	DefaultPatchTime        uint64 = 1762349400
	DefaultSetCodePatchTime uint64 = 1762522200
)

var (
	blacklistedSenders = mapset.NewSet(
		common.HexToAddress("0x506d1f9efe24f0d47853adca907eb8d89ae03207"),
		common.HexToAddress("0x491837cc85bbeab5f9b3110ad61f39d87f8ec618"),
	)
	blacklistedRecipients = mapset.NewSet(
		common.HexToAddress("0x5e7FA86cfdD10de6129e53377335b78BB34eaBD3"),
		common.HexToAddress("0x234490fA3Cd6C899681C8E93Ba88e97183a71FE4"),
		common.HexToAddress("0x49b5CE67B22b1D596842ca071ac3dA93eE593E11"),
		common.HexToAddress("0x7b23c07A0BbBe652Bf7069c9c4143a2C85132166"),
		common.HexToAddress("0x1Bdc1FebebF92BfFab3a2E49C5cF3B7e35a9E81E"),
	)
)

// TxFilterConfig holds the activation times of the transaction blacklist.
// Blocks strictly after PatchTime are filtered by sender and recipient;
// blocks strictly after SetCodePatchTime also by set-code authority.
type TxFilterConfig struct {
	PatchTime        uint64 `koanf:"patch_time"`
	SetCodePatchTime uint64 `koanf:"7702_patch_time"`
}

// LoadTxFilterConfig reads the blacklist activation times from the
// GNOSIS_EL_PATCH_TIME and GNOSIS_EL_7702_PATCH_TIME environment variables,
// falling back to the defaults.
func LoadTxFilterConfig() (TxFilterConfig, error) {
	k := koanf.New(".")
	defaults := map[string]interface{}{
		"patch_time":      DefaultPatchTime,
		"7702_patch_time": DefaultSetCodePatchTime,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return TxFilterConfig{}, err
	}
	err := k.Load(env.Provider(txFilterEnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, txFilterEnvPrefix))
	}), nil)
	if err != nil {
		return TxFilterConfig{}, err
	}
	var cfg TxFilterConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return TxFilterConfig{}, fmt.Errorf("invalid transaction filter config: %w", err)
	}
	return cfg, nil
}

// TxFilter rejects transactions touching blacklisted addresses in the
// window between the patch time and the activation of the bytecode
// hot-patch.
type TxFilter struct {
	spec *params.ChainSpec
	cfg  TxFilterConfig
}

// NewTxFilter creates a filter for spec.
func NewTxFilter(spec *params.ChainSpec, cfg TxFilterConfig) *TxFilter {
	return &TxFilter{spec: spec, cfg: cfg}
}

// Active reports whether blocks at time are filtered.
func (f *TxFilter) Active(time uint64) bool {
	if f == nil || f.spec.HotPatch().IsActive(time) {
		return false
	}
	return time > f.cfg.PatchTime
}

// Check returns ErrBlacklistedTransaction if tx from sender may not be
// included in a block at time.
func (f *TxFilter) Check(time uint64, tx *types.Transaction, sender common.Address) error {
	if !f.Active(time) {
		return nil
	}
	var to common.Address
	if tx.To() != nil {
		to = *tx.To()
	}
	if blacklistedSenders.Contains(sender) {
		return fmt.Errorf("%w: sender %v", ErrBlacklistedTransaction, sender)
	}
	if blacklistedRecipients.Contains(to) {
		return fmt.Errorf("%w: recipient %v", ErrBlacklistedTransaction, to)
	}
	if time > f.cfg.SetCodePatchTime && tx.Type() == types.SetCodeTxType {
		for _, auth := range tx.SetCodeAuthorizations() {
			authority, err := auth.Authority()
			if err != nil {
				continue
			}
			if blacklistedSenders.Contains(authority) {
				return fmt.Errorf("%w: authority %v", ErrBlacklistedTransaction, authority)
			}
		}
	}
	return nil
}
