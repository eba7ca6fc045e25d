package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type payload struct {
	Name string `json:"name"`
}

func (p payload) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func Test_App(t *testing.T) {
	shutdown := make(chan os.Signal, 1)

	var order []string
	mw := func(name string) web.Middleware {
		return func(handler web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return handler(ctx, w, r)
			}
		}
	}

	app := web.NewApp(shutdown, mw("app"))

	app.Handle(http.MethodGet, "v1", "/echo/:name", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if _, err := web.GetValues(ctx); err != nil {
			return err
		}
		return web.Respond(ctx, w, payload{Name: web.Param(r, "name")}, http.StatusOK)
	}, mw("route"))

	app.Handle(http.MethodPost, "v1", "/decode", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var p payload
		if err := web.Decode(r, &p); err != nil {
			return web.Respond(ctx, w, nil, http.StatusBadRequest)
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	})

	app.Handle(http.MethodGet, "v1", "/shutdown", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity issue")
	})

	t.Log("Given the need to route requests through the web framework.")
	{
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/echo/bill", nil))

		var got payload
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil || got.Name != "bill" || w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould route with parameters: code %d, body %+v, %v", failed, w.Code, got, err)
		}
		if strings.Join(order, ",") != "app,route" {
			t.Fatalf("\t%s\tShould run app middleware before route middleware: %v", failed, order)
		}
		t.Logf("\t%s\tShould route with parameters and middleware.", success)

		tests := []struct {
			body string
			code int
		}{
			{`{"name":"bill"}`, http.StatusNoContent},
			{`{"name":""}`, http.StatusBadRequest},
			{`{"name":"bill","extra":1}`, http.StatusBadRequest},
			{`not json`, http.StatusBadRequest},
		}

		for _, tt := range tests {
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/decode", strings.NewReader(tt.body)))
			if w.Code != tt.code {
				t.Fatalf("\t%s\tShould decode %s with status %d, got %d.", failed, tt.body, tt.code, w.Code)
			}
		}
		t.Logf("\t%s\tShould decode and validate request bodies.", success)

		app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/shutdown", nil))
		select {
		case <-shutdown:
			t.Logf("\t%s\tShould signal shutdown on an integrity error.", success)
		default:
			t.Fatalf("\t%s\tShould signal shutdown on an integrity error.", failed)
		}
	}
}
