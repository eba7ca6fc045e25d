// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/events"
	"github.com/ardanlabs/utxochain/foundation/nameservice"
	"github.com/ardanlabs/utxochain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the blockchain.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Block waiting for events from the blockchain or ticker.
	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Chain returns the full chain with its accumulated work.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.State.RetrieveChain()

	ci := chainInfo{
		LatestBlock:    chain.LatestBlock().Hash,
		Work:           database.AccumulatedWork(chain).String(),
		NextDifficulty: h.State.RetrieveNextDifficulty(),
		Blocks:         chain,
	}

	return web.Respond(ctx, w, ci, http.StatusOK)
}

// BlocksByIndex returns the blocks between the from and to indexes. Either
// value can be "latest".
func (h Handlers) BlocksByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := indexParam(r, "from")
	if err != nil {
		return err
	}
	to, err := indexParam(r, "to")
	if err != nil {
		return err
	}

	if from > to {
		return errs.NewTrusted(errors.New("from greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByIndex(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// BlockByHash returns the block with the specified hash.
func (h Handlers) BlockByHash(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.QueryBlockByHash(web.Param(r, "hash"))
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// TxByID returns the transaction with the specified id from the chain or
// the mempool.
func (h Handlers) TxByID(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tx, index, confirmed, err := h.State.QueryTxByID(web.Param(r, "id"))
	if err != nil {
		return err
	}

	ti := txInfo{
		Tx:         tx,
		BlockIndex: index,
		Confirmed:  confirmed,
	}

	return web.Respond(ctx, w, ti, http.StatusOK)
}

// Balance returns the confirmed balance for the address.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address, err := addressParam(r)
	if err != nil {
		return err
	}

	bal := balance{
		Address:     address,
		Name:        h.NS.Lookup(address),
		Balance:     h.State.QueryBalance(address),
		LatestBlock: h.State.RetrieveLatestBlock().Hash,
		Uncommitted: h.State.QueryMempoolLength(),
	}

	return web.Respond(ctx, w, bal, http.StatusOK)
}

// UTXOs returns the set of unspent outputs, optionally for a single address.
func (h Handlers) UTXOs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var utxos []database.UnspentTxOut

	switch web.Param(r, "address") {
	case "":
		utxos = h.State.QueryUTXOs()

	default:
		address, err := addressParam(r)
		if err != nil {
			return err
		}
		utxos = h.State.QueryUTXOsByAddress(address)
	}

	outs := make([]output, len(utxos))
	for i, utxo := range utxos {
		outs[i] = output{
			TxOutID:    utxo.TxOutID,
			TxOutIndex: utxo.TxOutIndex,
			Address:    utxo.Address,
			Name:       h.NS.Lookup(utxo.Address),
			Amount:     utxo.Amount,
		}
	}

	return web.Respond(ctx, w, outs, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.RetrieveMempool()
	return web.Respond(ctx, w, txs, http.StatusOK)
}

// SubmitWalletTransaction adds a new signed transaction to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add wallet tran", "traceid", v.TraceID, "tx", tx.ID, "ins", len(tx.TxIns), "outs", len(tx.TxOuts))
	if err := h.State.UpsertWalletTransaction(tx); err != nil {
		return err
	}

	resp := struct {
		Status string `json:"status"`
		ID     string `json:"id"`
	}{
		Status: "transaction added to mempool",
		ID:     tx.ID,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SendTransaction builds and signs a transaction with the node's key and adds
// it to the mempool.
func (h Handlers) SendTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var st sendTx
	if err := web.Decode(r, &st); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	tx, err := h.State.SendTransaction(st.To, st.Amount)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// MineBlock mines the next block with the provided transactions, or with the
// mempool when none are provided, and proposes it to the known peers.
func (h Handlers) MineBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var mb mineBlock
	if err := web.Decode(r, &mb); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	var block database.Block
	var err error
	switch len(mb.Trans) {
	case 0:
		block, err = h.State.MineNewBlock(ctx)
	default:
		block, err = h.State.MineWithTransactions(ctx, mb.Trans)
	}
	if err != nil {
		return err
	}

	h.propose(ctx, block)

	return web.Respond(ctx, w, block, http.StatusOK)
}

// MineTransaction builds a transaction with the node's key and immediately
// mines it into the next block.
func (h Handlers) MineTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var st sendTx
	if err := web.Decode(r, &st); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	block, err := h.State.MineTransaction(ctx, st.To, st.Amount)
	if err != nil {
		return err
	}

	h.propose(ctx, block)

	return web.Respond(ctx, w, block, http.StatusOK)
}

// SignalMining signals to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signalled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Peers returns the list of known peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	peers := h.State.RetrieveKnownPeers()
	return web.Respond(ctx, w, peers, http.StatusOK)
}

// AddPeer adds a peer to the known peer list.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ap addPeer
	if err := web.Decode(r, &ap); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	added := h.State.AddKnownPeer(peer.New(ap.Host))
	if added {
		h.State.Worker.SignalSync()
	}

	resp := struct {
		Added bool `json:"added"`
	}{
		Added: added,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// propose shares a block mined through the api with the known peers.
func (h Handlers) propose(ctx context.Context, block database.Block) {
	if err := h.State.NetSendBlockToPeers(block); err != nil {
		h.Log.Infow("propose block", "traceid", web.GetTraceID(ctx), "block", block.Hash, "WARNING", err)
	}
}

// indexParam parses a block index parameter. An empty value or "latest"
// selects the latest block.
func indexParam(r *http.Request, name string) (uint64, error) {
	param := web.Param(r, name)
	if param == "" || param == "latest" {
		return state.QueryLatest, nil
	}

	index, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(err, http.StatusBadRequest)
	}

	return index, nil
}

// addressParam parses the address parameter.
func addressParam(r *http.Request) (database.Address, error) {
	address, err := database.ToAddress(web.Param(r, "address"))
	if err != nil {
		return "", errs.NewTrusted(err, http.StatusBadRequest)
	}

	return address, nil
}
