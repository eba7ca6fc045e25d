package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/business/web/mid"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Errors(t *testing.T) {
	log := zap.NewNop().Sugar()

	app := web.NewApp(make(chan os.Signal, 1), mid.Logger(log), mid.Errors(log), mid.Metrics(), mid.Panics())

	handlers := map[string]web.Handler{
		"/trusted": func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			return errs.NewTrusted(errors.New("bad input"), http.StatusBadRequest)
		},
		"/funds": func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			return database.ErrInsufficientFunds
		},
		"/internal": func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			return errors.New("disk on fire")
		},
		"/panic": func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			panic("boom")
		},
	}
	for path, h := range handlers {
		app.Handle(http.MethodGet, "v1", path, h)
	}

	tests := []struct {
		path   string
		status int
		msg    string
	}{
		{"/v1/trusted", http.StatusBadRequest, "bad input"},
		{"/v1/funds", http.StatusPaymentRequired, database.ErrInsufficientFunds.Error()},
		{"/v1/internal", http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)},
		{"/v1/panic", http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)},
	}

	t.Log("Given the need to respond to handler errors in a uniform way.")
	{
		for testID, tt := range tests {
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			var resp errs.Response
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould decode the error response: %v", failed, testID, err)
			}

			if w.Code != tt.status || resp.Error != tt.msg {
				t.Fatalf("\t%s\tTest %d:\tShould respond %d %q for %s, got %d %q.", failed, testID, tt.status, tt.msg, tt.path, w.Code, resp.Error)
			}
			t.Logf("\t%s\tTest %d:\tShould respond %d for %s.", success, testID, tt.status, tt.path)
		}

		if err := mid.RegisterMetrics(prometheus.NewRegistry()); err != nil {
			t.Fatalf("\t%s\tShould register the request metrics: %v", failed, err)
		}
		t.Logf("\t%s\tShould register the request metrics.", success)
	}
}

func Test_Cors(t *testing.T) {
	const origin = "http://localhost:3080"

	var called int
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		called++
		return web.Respond(ctx, w, "ok", http.StatusOK)
	}

	app := web.NewApp(make(chan os.Signal, 1), mid.Cors(origin))
	app.Handle(http.MethodGet, "", "/genesis", h)
	app.Handle(http.MethodOptions, "", "/genesis", h)

	t.Log("Given the need to let browsers call the node from another origin.")
	{
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/genesis", nil))

		if w.Code != http.StatusOK || called != 1 {
			t.Fatalf("\t%s\tShould pass a GET through to the handler, got %d.", failed, w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Fatalf("\t%s\tShould allow the configured origin, got %q.", failed, got)
		}
		if got := w.Header().Get("Vary"); got != "Origin" {
			t.Fatalf("\t%s\tShould vary on the origin, got %q.", failed, got)
		}
		t.Logf("\t%s\tShould pass a GET through with the cors headers.", success)

		w = httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/genesis", nil))

		if w.Code != http.StatusNoContent || called != 1 {
			t.Fatalf("\t%s\tShould answer the preflight without the handler, got %d calls %d.", failed, w.Code, called)
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
			t.Fatalf("\t%s\tShould list the methods the node serves, got %q.", failed, got)
		}
		t.Logf("\t%s\tShould answer the preflight without the handler.", success)
	}
}
