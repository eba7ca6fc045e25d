// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// SubmitPeer is called by a node so they can be added to the known peer list.
func (h Handlers) SubmitPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var pr peer.Peer
	if err := web.Decode(r, &pr); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if pr.Host == "" {
		return errs.NewTrusted(errors.New("host is required"), http.StatusBadRequest)
	}

	if !h.State.AddKnownPeer(pr) {
		h.Log.Infow("adding peer", "traceid", v.TraceID, "host", pr.Host, "status", "already known")
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// SubmitNodeTransaction adds new node transactions to the mempool.
func (h Handlers) SubmitNodeTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Decode the JSON in the post call into a transaction.
	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	// Ask the state package to add this transaction to the mempool. Only the
	// checks are performed, nothing is shared back out.
	h.Log.Infow("add node tran", "traceid", v.TraceID, "tx", tx.ID)
	if err := h.State.UpsertNodeTransaction(tx); err != nil {
		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ProposeBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Decode the JSON in the post call into a block.
	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	// Ask the state package to validate the proposed block. If the block
	// passes validation, it will be added to the blockchain database.
	if err := h.State.ProcessProposedBlock(block); err != nil {

		// The peer is ahead of this node or on another branch. Ask the
		// worker to pull the heavier chain.
		switch {
		case errors.Is(err, state.ErrChainBehind):
			h.Log.Infow("propose block", "traceid", v.TraceID, "block", block.Hash, "status", "chain behind: requesting sync")
			h.State.Worker.SignalSync()

		case errors.Is(err, state.ErrForkBlock):
			h.Log.Infow("propose block", "traceid", v.TraceID, "block", block.Hash, "status", "competing block: requesting sync")
			h.State.Worker.SignalSync()
		}

		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ReplaceChain takes a full chain pushed by a peer and replaces the local
// chain when the candidate is valid and carries more work. A valid chain
// without more work is not an error.
func (h Handlers) ReplaceChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var chain database.Chain
	if err := web.Decode(r, &chain); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	replaced, err := h.State.ReplaceChain(chain)
	if err != nil {
		return err
	}

	resp := struct {
		Replaced bool `json:"replaced"`
	}{
		Replaced: replaced,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := h.State.RetrieveStatus()
	return web.Respond(ctx, w, status, http.StatusOK)
}

// Chain returns the full chain so a peer can evaluate it.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.State.RetrieveChain()
	return web.Respond(ctx, w, chain, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.RetrieveMempool()
	return web.Respond(ctx, w, txs, http.StatusOK)
}
