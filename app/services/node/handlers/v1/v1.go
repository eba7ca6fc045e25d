// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/utxochain/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/utxochain/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/events"
	"github.com/ardanlabs/utxochain/foundation/nameservice"
	"github.com/ardanlabs/utxochain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Chain)
	app.Handle(http.MethodGet, version, "/blocks/list/:from/:to", pbl.BlocksByIndex)
	app.Handle(http.MethodGet, version, "/block/:hash", pbl.BlockByHash)
	app.Handle(http.MethodGet, version, "/balances/list/:address", pbl.Balance)
	app.Handle(http.MethodGet, version, "/utxo/list", pbl.UTXOs)
	app.Handle(http.MethodGet, version, "/utxo/list/:address", pbl.UTXOs)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/tx/:id", pbl.TxByID)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitWalletTransaction)
	app.Handle(http.MethodPost, version, "/tx/send", pbl.SendTransaction)
	app.Handle(http.MethodPost, version, "/mining/block", pbl.MineBlock)
	app.Handle(http.MethodPost, version, "/mining/tx", pbl.MineTransaction)
	app.Handle(http.MethodGet, version, "/mining/signal", pbl.SignalMining)
	app.Handle(http.MethodGet, version, "/peers/list", pbl.Peers)
	app.Handle(http.MethodPost, version, "/peers/add", pbl.AddPeer)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodPost, version, "/node/peers", prv.SubmitPeer)
	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/chain/list", prv.Chain)
	app.Handle(http.MethodPost, version, "/node/chain/replace", prv.ReplaceChain)
	app.Handle(http.MethodPost, version, "/node/block/propose", prv.ProposeBlock)
	app.Handle(http.MethodPost, version, "/node/tx/submit", prv.SubmitNodeTransaction)
	app.Handle(http.MethodGet, version, "/node/tx/list", prv.Mempool)
}
