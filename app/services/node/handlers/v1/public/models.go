package public

import (
	"github.com/ardanlabs/utxochain/business/sys/validate"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// sendTx is the request to build a transaction with the node's key.
type sendTx struct {
	To     database.Address `json:"to" validate:"required,address"`
	Amount uint64           `json:"amount" validate:"required,gt=0"`
}

// Validate checks the data in the model is considered clean.
func (st sendTx) Validate() error {
	return validate.Check(st)
}

// mineBlock is the request to mine the next block. When no transactions are
// provided the block is filled from the mempool.
type mineBlock struct {
	Trans []database.Tx `json:"trans"`
}

// Validate checks the data in the model is considered clean.
func (mb mineBlock) Validate() error {
	return validate.Check(mb)
}

// addPeer is the request to add a peer to the known peer list.
type addPeer struct {
	Host string `json:"host" validate:"required,hostname_port"`
}

// Validate checks the data in the model is considered clean.
func (ap addPeer) Validate() error {
	return validate.Check(ap)
}

// =============================================================================

type output struct {
	TxOutID    string           `json:"tx_out_id"`
	TxOutIndex uint32           `json:"tx_out_index"`
	Address    database.Address `json:"address"`
	Name       string           `json:"name"`
	Amount     uint64           `json:"amount"`
}

type balance struct {
	Address     database.Address `json:"address"`
	Name        string           `json:"name"`
	Balance     uint64           `json:"balance"`
	LatestBlock string           `json:"latest_block"`
	Uncommitted int              `json:"uncommitted"`
}

type txInfo struct {
	Tx         database.Tx `json:"tx"`
	BlockIndex uint64      `json:"block_index"`
	Confirmed  bool        `json:"confirmed"`
}

type chainInfo struct {
	LatestBlock    string           `json:"latest_block"`
	Work           string           `json:"accumulated_work"`
	NextDifficulty uint32           `json:"next_difficulty"`
	Blocks         []database.Block `json:"blocks"`
}
