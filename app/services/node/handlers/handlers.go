// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/ardanlabs/utxochain/app/services/node/handlers/debug/checkgrp"
	v1 "github.com/ardanlabs/utxochain/app/services/node/handlers/v1"
	"github.com/ardanlabs/utxochain/business/web/mid"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/events"
	"github.com/ardanlabs/utxochain/foundation/nameservice"
	"github.com/ardanlabs/utxochain/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	State    *state.State
	NS       *nameservice.NameService
	Evts     *events.Events
}

// PublicMux constructs a http.Handler with all application routes defined.
func PublicMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors("*"),
		mid.Panics(),
	)

	// Route every preflight request so the cors middleware can answer it.
	preflight := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", preflight)

	// Load the v1 routes.
	v1.PublicRoutes(app, v1.Config{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	})

	return app
}

// PrivateMux constructs a http.Handler with all application routes defined.
func PrivateMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Panics(),
	)

	// Load the v1 routes.
	v1.PrivateRoutes(app, v1.Config{
		Log:   cfg.Log,
		State: cfg.State,
	})

	return app
}

// DebugStandardLibraryMux registers all the debug routes from the standard library
// into a new mux bypassing the use of the DefaultServerMux. Using the
// DefaultServerMux would be a security risk since a dependency could inject a
// handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Register all the standard library debug endpoints.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service. This bypassing the use of the
// DefaultServerMux. Using the DefaultServerMux would be a security risk since
// a dependency could inject a handler into our service without us knowing it.
func DebugMux(build string, cfg MuxConfig) (http.Handler, error) {
	mux := DebugStandardLibraryMux()

	// Register debug check endpoints.
	cgh := checkgrp.Handlers{
		Build: build,
		Log:   cfg.Log,
		State: cfg.State,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	// Register the prometheus metrics for the node.
	reg, err := Registry(cfg.State, cfg.Evts)
	if err != nil {
		return nil, err
	}
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return mux, nil
}

// Registry constructs the prometheus registry with the request metrics and
// gauges reading the current state of the chain.
func Registry(st *state.State, evts *events.Events) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()

	gauges := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "node",
			Name:      "chain_height",
			Help:      "Index of the latest block in the chain.",
		}, func() float64 { return float64(st.RetrieveLatestBlock().Index) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "node",
			Name:      "next_difficulty",
			Help:      "Leading zero bits required by the next block.",
		}, func() float64 { return float64(st.RetrieveNextDifficulty()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "node",
			Name:      "mempool_length",
			Help:      "Number of transactions waiting in the mempool.",
		}, func() float64 { return float64(st.QueryMempoolLength()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "node",
			Name:      "known_peers",
			Help:      "Number of known peers.",
		}, func() float64 { return float64(len(st.RetrieveKnownPeers())) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "node",
			Name:      "event_subscribers",
			Help:      "Number of websocket clients receiving events.",
		}, func() float64 { return float64(evts.Count()) }),
	}

	for _, c := range gauges {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	if err := mid.RegisterMetrics(reg); err != nil {
		return nil, err
	}

	return reg, nil
}
