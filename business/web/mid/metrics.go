package mid

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ardanlabs/utxochain/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
)

// Set of metrics collected for every request handled by the node.
var (
	requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "node",
		Name:      "requests_total",
		Help:      "Number of requests handled.",
	}, []string{"method", "status"})

	errorCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "node",
		Name:      "errors_total",
		Help:      "Number of requests that returned an error.",
	})

	panicCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "node",
		Name:      "panics_total",
		Help:      "Number of requests that panicked.",
	})
)

// RegisterMetrics adds the request metrics to the registry.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{requests, errorCount, panicCount} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			if err != nil {
				errorCount.Inc()
			}

			status := "0"
			if v, verr := web.GetValues(ctx); verr == nil {
				status = strconv.Itoa(v.StatusCode)
			}
			requests.WithLabelValues(r.Method, status).Inc()

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
