package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/ardanlabs/utxochain/app/services/node/handlers"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/utxochain/foundation/events"
	"github.com/ardanlabs/utxochain/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	minerECDSA = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"

	kennedy = "04412ffaffb78f2931e193f1add952fcb84ceaa55c8491b3a71f25f89fbb482aaf9b74f0fc0d3b6a71da07425d3ef94ac0a1b1d7972f10c2c38bd77257b346fbf8"
)

// nopWorker stands in for the worker package so no goroutines or network
// calls are made.
type nopWorker struct{}

func (nopWorker) Shutdown()                         {}
func (nopWorker) Sync()                             {}
func (nopWorker) SignalStartMining()                {}
func (nopWorker) SignalCancelMining() (done func()) { return func() {} }
func (nopWorker) SignalShareTx(tx database.Tx)      {}
func (nopWorker) SignalSync()                       {}

// syncWorker counts the sync requests made by the handlers.
type syncWorker struct {
	nopWorker
	syncs atomic.Int32
}

func (w *syncWorker) SignalSync() { w.syncs.Add(1) }

func newMuxConfig(t *testing.T) handlers.MuxConfig {
	t.Helper()

	key, err := crypto.HexToECDSA(minerECDSA)
	if err != nil {
		t.Fatal(err)
	}

	strg, err := memory.New()
	if err != nil {
		t.Fatal(err)
	}

	st, err := state.New(state.Config{
		PrivateKey: key,
		Host:       "localhost:9080",
		Storage:    strg,
		Genesis:    genesis.Default(),
	})
	if err != nil {
		t.Fatal(err)
	}
	st.Worker = nopWorker{}

	ns, err := nameservice.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	return handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		NS:       ns,
		Evts:     events.New(),
	}
}

func call(t *testing.T, h http.Handler, method string, path string, body any, resp any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, &buf))

	if resp != nil && w.Code == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
			t.Fatalf("decoding %s: %v", path, err)
		}
	}

	return w.Code
}

func Test_PublicRoutes(t *testing.T) {
	cfg := newMuxConfig(t)
	pub := handlers.PublicMux(cfg)
	me := cfg.State.RetrieveBeneficiary()

	t.Log("Given the need to operate the node through the public api.")
	{
		if code := call(t, pub, http.MethodOptions, "/v1/tx/submit", nil, nil); code != http.StatusNoContent {
			t.Fatalf("\t%s\tShould answer a preflight request, got %d.", failed, code)
		}
		t.Logf("\t%s\tShould answer a preflight request.", success)

		var block database.Block
		if code := call(t, pub, http.MethodPost, "/v1/mining/block", map[string]any{}, &block); code != http.StatusOK || block.Index != 1 {
			t.Fatalf("\t%s\tShould mine the next block from the mempool: %d", failed, code)
		}
		t.Logf("\t%s\tShould mine the next block from the mempool.", success)

		var bal struct {
			Balance uint64 `json:"balance"`
		}
		if code := call(t, pub, http.MethodGet, "/v1/balances/list/"+string(me), nil, &bal); code != http.StatusOK || bal.Balance != genesis.DefaultMiningReward {
			t.Fatalf("\t%s\tShould report the mining reward as the balance: %d %d", failed, code, bal.Balance)
		}
		t.Logf("\t%s\tShould report the mining reward as the balance.", success)

		var tx database.Tx
		if code := call(t, pub, http.MethodPost, "/v1/tx/send", map[string]any{"to": kennedy, "amount": 20}, &tx); code != http.StatusOK || tx.ID == "" {
			t.Fatalf("\t%s\tShould send a transaction with the node key: %d", failed, code)
		}
		t.Logf("\t%s\tShould send a transaction with the node key.", success)

		var info struct {
			Confirmed bool `json:"confirmed"`
		}
		if code := call(t, pub, http.MethodGet, "/v1/tx/"+tx.ID, nil, &info); code != http.StatusOK || info.Confirmed {
			t.Fatalf("\t%s\tShould find the pending transaction: %d", failed, code)
		}
		t.Logf("\t%s\tShould find the pending transaction.", success)

		var pool []database.Tx
		if code := call(t, pub, http.MethodGet, "/v1/tx/uncommitted/list", nil, &pool); code != http.StatusOK || len(pool) != 1 {
			t.Fatalf("\t%s\tShould list the mempool: %d", failed, code)
		}
		t.Logf("\t%s\tShould list the mempool.", success)

		tests := []struct {
			name   string
			method string
			path   string
			body   any
			status int
		}{
			{"insufficient", http.MethodPost, "/v1/tx/send", map[string]any{"to": kennedy, "amount": 1000}, http.StatusPaymentRequired},
			{"badaddress", http.MethodPost, "/v1/tx/send", map[string]any{"to": "0xF01813E4B85e", "amount": 10}, http.StatusBadRequest},
			{"unknownfield", http.MethodPost, "/v1/tx/send", map[string]any{"to": kennedy, "amount": 10, "tip": 1}, http.StatusBadRequest},
			{"unknownblock", http.MethodGet, "/v1/block/0x00", nil, http.StatusNotFound},
			{"unknowntx", http.MethodGet, "/v1/tx/0x00", nil, http.StatusNotFound},
			{"badindex", http.MethodGet, "/v1/blocks/list/one/latest", nil, http.StatusBadRequest},
			{"badbalance", http.MethodGet, "/v1/balances/list/bill", nil, http.StatusBadRequest},
		}

		for testID, tt := range tests {
			if code := call(t, pub, tt.method, tt.path, tt.body, nil); code != tt.status {
				t.Fatalf("\t%s\tTest %d:\tShould respond %d for %s, got %d.", failed, testID, tt.status, tt.name, code)
			}
			t.Logf("\t%s\tTest %d:\tShould respond %d for %s.", success, testID, tt.status, tt.name)
		}

		if code := call(t, pub, http.MethodPost, "/v1/mining/block", map[string]any{}, &block); code != http.StatusOK || block.Index != 2 || len(block.Trans) != 2 {
			t.Fatalf("\t%s\tShould mine the pending transaction: %d", failed, code)
		}
		t.Logf("\t%s\tShould mine the pending transaction.", success)

		if code := call(t, pub, http.MethodPost, "/v1/mining/tx", map[string]any{"to": kennedy, "amount": 5}, &block); code != http.StatusOK || block.Index != 3 || len(block.Trans) != 2 {
			t.Fatalf("\t%s\tShould mine a transaction directly: %d", failed, code)
		}
		t.Logf("\t%s\tShould mine a transaction directly.", success)

		var outs []struct {
			Amount uint64 `json:"amount"`
		}
		if code := call(t, pub, http.MethodGet, "/v1/utxo/list/"+kennedy, nil, &outs); code != http.StatusOK {
			t.Fatalf("\t%s\tShould list the unspent outputs for an address: %d", failed, code)
		}
		var total uint64
		for _, out := range outs {
			total += out.Amount
		}
		if total != genesis.DefaultMiningReward+20+5 {
			t.Fatalf("\t%s\tShould credit the mined transaction, got %d.", failed, total)
		}
		t.Logf("\t%s\tShould list the unspent outputs for an address.", success)

		var added struct {
			Added bool `json:"added"`
		}
		if code := call(t, pub, http.MethodPost, "/v1/peers/add", map[string]any{"host": "localhost:9180"}, &added); code != http.StatusOK || !added.Added {
			t.Fatalf("\t%s\tShould add a peer: %d", failed, code)
		}
		var peers []peer.Peer
		if code := call(t, pub, http.MethodGet, "/v1/peers/list", nil, &peers); code != http.StatusOK || len(peers) != 1 {
			t.Fatalf("\t%s\tShould list the known peers: %d", failed, code)
		}
		t.Logf("\t%s\tShould manage the known peers.", success)
	}
}

func Test_PrivateRoutes(t *testing.T) {
	cfg := newMuxConfig(t)
	prv := handlers.PrivateMux(cfg)

	t.Log("Given the need to serve other nodes through the private api.")
	{
		var status peer.PeerStatus
		if code := call(t, prv, http.MethodGet, "/v1/node/status", nil, &status); code != http.StatusOK || status.LatestBlockIndex != 0 {
			t.Fatalf("\t%s\tShould report the node status: %d", failed, code)
		}
		t.Logf("\t%s\tShould report the node status.", success)

		var replaced struct {
			Replaced bool `json:"replaced"`
		}
		chain := cfg.State.RetrieveChain()
		if code := call(t, prv, http.MethodPost, "/v1/node/chain/replace", chain, &replaced); code != http.StatusOK || replaced.Replaced {
			t.Fatalf("\t%s\tShould keep the local chain for equal work: %d", failed, code)
		}
		t.Logf("\t%s\tShould keep the local chain for equal work.", success)

		var sw syncWorker
		cfg.State.Worker = &sw

		if code := call(t, prv, http.MethodPost, "/v1/node/block/propose", chain[0], nil); code != http.StatusOK || sw.syncs.Load() != 0 {
			t.Fatalf("\t%s\tShould ignore a block already in the chain, got %d.", failed, code)
		}
		t.Logf("\t%s\tShould ignore a block already in the chain.", success)

		ahead := chain.LatestBlock()
		ahead.Index = 5
		if code := call(t, prv, http.MethodPost, "/v1/node/block/propose", ahead, nil); code != http.StatusNotAcceptable || sw.syncs.Load() != 1 {
			t.Fatalf("\t%s\tShould not accept a block ahead of the chain, got %d.", failed, code)
		}
		t.Logf("\t%s\tShould not accept a block ahead of the chain.", success)

		fork := chain[0]
		fork.Nonce++
		fork.Hash = database.CalculateHash(fork.Index, fork.PrevHash, fork.TimeStamp, fork.Trans, fork.Difficulty, fork.Nonce)
		if code := call(t, prv, http.MethodPost, "/v1/node/block/propose", fork, nil); code != http.StatusConflict || sw.syncs.Load() != 2 {
			t.Fatalf("\t%s\tShould report a competing block and request a sync, got %d.", failed, code)
		}
		t.Logf("\t%s\tShould report a competing block and request a sync.", success)

		if code := call(t, prv, http.MethodPost, "/v1/node/peers", peer.New("localhost:9280"), nil); code != http.StatusNoContent {
			t.Fatalf("\t%s\tShould add a peer node, got %d.", failed, code)
		}
		t.Logf("\t%s\tShould add a peer node.", success)
	}
}

func Test_Registry(t *testing.T) {
	cfg := newMuxConfig(t)

	reg, err := handlers.Registry(cfg.State, cfg.Evts)
	if err != nil {
		t.Fatalf("\t%s\tShould build the metrics registry: %v", failed, err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("\t%s\tShould gather the metrics: %v", failed, err)
	}

	found := make(map[string]bool)
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	for _, name := range []string{"node_chain_height", "node_next_difficulty", "node_mempool_length"} {
		if !found[name] {
			t.Fatalf("\t%s\tShould expose %s.", failed, name)
		}
	}
	t.Logf("\t%s\tShould expose the chain gauges.", success)
}
