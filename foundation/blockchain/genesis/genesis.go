// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Default values used when the genesis file does not provide them.
const (
	DefaultBlockInterval  = 10
	DefaultRetargetWindow = 10
	DefaultMiningReward   = 50
)

// Genesis represents the genesis file.
type Genesis struct {
	Date           time.Time `json:"date"`
	ChainID        uint16    `json:"chain_id"`        // The chain id represents an unique id for this running instance.
	TransPerBlock  uint16    `json:"trans_per_block"` // The maximum number of pool transactions that can be in a block.
	Difficulty     uint32    `json:"difficulty"`      // Leading zero bits required when the chain starts.
	BlockInterval  uint64    `json:"block_interval"`  // Target seconds between blocks.
	RetargetWindow uint64    `json:"retarget_window"` // Number of blocks between difficulty adjustments.
	MiningReward   uint64    `json:"mining_reward"`   // Amount paid by every coinbase transaction.
	Beneficiary    string    `json:"beneficiary"`     // Address receiving the genesis coinbase output.
}

// Default returns the genesis information used by tests and local development.
func Default() Genesis {
	return Genesis{
		Date:           time.Date(2016, time.June, 5, 19, 25, 5, 0, time.UTC),
		ChainID:        1,
		TransPerBlock:  10,
		Difficulty:     0,
		BlockInterval:  DefaultBlockInterval,
		RetargetWindow: DefaultRetargetWindow,
		MiningReward:   DefaultMiningReward,
		Beneficiary:    "04412ffaffb78f2931e193f1add952fcb84ceaa55c8491b3a71f25f89fbb482aaf9b74f0fc0d3b6a71da07425d3ef94ac0a1b1d7972f10c2c38bd77257b346fbf8",
	}
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if genesis.BlockInterval == 0 {
		genesis.BlockInterval = DefaultBlockInterval
	}
	if genesis.RetargetWindow == 0 {
		genesis.RetargetWindow = DefaultRetargetWindow
	}
	if genesis.MiningReward == 0 {
		genesis.MiningReward = DefaultMiningReward
	}

	if genesis.Beneficiary == "" {
		return Genesis{}, fmt.Errorf("genesis beneficiary is missing")
	}

	return genesis, nil
}
