package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/memory"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	kennedyECDSA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	minerECDSA   = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"

	kennedy database.Address = "04412ffaffb78f2931e193f1add952fcb84ceaa55c8491b3a71f25f89fbb482aaf9b74f0fc0d3b6a71da07425d3ef94ac0a1b1d7972f10c2c38bd77257b346fbf8"
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

func ifErrFailNow(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

func newState(t *testing.T, hexKey string, strg database.Storage) *state.State {
	t.Helper()

	key, err := crypto.HexToECDSA(hexKey)
	ifErrFailNow(t, err)

	st, err := state.New(state.Config{
		PrivateKey: key,
		Host:       "localhost:9080",
		Storage:    strg,
		Genesis:    genesis.Default(),
	})
	ifErrFailNow(t, err)

	st.Worker = nopWorker{}

	return st
}

func Test_MineAndSpend(t *testing.T) {
	strg, err := memory.New()
	ifErrFailNow(t, err)

	st := newState(t, minerECDSA, strg)
	gen := st.RetrieveGenesis()

	t.Log("Given the need to mine and spend coins.")
	{
		if latest := st.RetrieveLatestBlock(); latest.Index != 0 {
			t.Fatalf("\t%s\tShould start with only the genesis block, latest %d.", failed, latest.Index)
		}
		if _, err := strg.GetBlock(0); err != nil {
			t.Fatalf("\t%s\tShould write the genesis block to storage: %v", failed, err)
		}
		t.Logf("\t%s\tShould start with only the genesis block.", success)

		block, err := st.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block with an empty mempool: %v", failed, err)
		}
		if block.Index != 1 || len(block.Trans) != 1 {
			t.Fatalf("\t%s\tShould mine a coinbase only block: %+v", failed, block)
		}
		t.Logf("\t%s\tShould be able to mine a block with an empty mempool.", success)

		me := st.RetrieveBeneficiary()
		if got := st.QueryBalance(me); got != gen.MiningReward {
			t.Fatalf("\t%s\tShould be paid the mining reward, got %d.", failed, got)
		}
		t.Logf("\t%s\tShould be paid the mining reward.", success)

		tx, err := st.SendTransaction(kennedy, 20)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to send a transaction: %v", failed, err)
		}
		if st.QueryMempoolLength() != 1 {
			t.Fatalf("\t%s\tShould hold the transaction in the mempool.", failed)
		}
		t.Logf("\t%s\tShould be able to send a transaction.", success)

		if _, err := st.SendTransaction(kennedy, 40); !errors.Is(err, database.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould not spend outputs held by the mempool, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould not spend outputs held by the mempool.", success)

		if len(st.QueryMyUTXOs()) != 0 {
			t.Fatalf("\t%s\tShould have no spendable outputs while the transaction is pending.", failed)
		}
		t.Logf("\t%s\tShould have no spendable outputs while the transaction is pending.", success)

		if _, err := st.MineNewBlock(context.Background()); err != nil {
			t.Fatalf("\t%s\tShould be able to mine the pending transaction: %v", failed, err)
		}
		if st.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould remove the confirmed transaction from the mempool.", failed)
		}
		t.Logf("\t%s\tShould be able to mine the pending transaction.", success)

		if got := st.QueryBalance(kennedy); got != gen.MiningReward+20 {
			t.Fatalf("\t%s\tShould credit kennedy, got %d.", failed, got)
		}
		if got := st.QueryBalance(me); got != 2*gen.MiningReward-20 {
			t.Fatalf("\t%s\tShould debit the node, got %d.", failed, got)
		}
		t.Logf("\t%s\tShould move the balances.", success)

		found, index, confirmed, err := st.QueryTxByID(tx.ID)
		if err != nil || !confirmed || index != 2 || found.ID != tx.ID {
			t.Fatalf("\t%s\tShould find the transaction in block 2: %v", failed, err)
		}
		t.Logf("\t%s\tShould find the transaction in block 2.", success)

		if err := st.UpsertWalletTransaction(tx); !errors.Is(err, database.ErrUnknownUTXO) {
			t.Fatalf("\t%s\tShould reject a transaction spending confirmed outputs, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a transaction spending confirmed outputs.", success)

		if _, err := st.MineTransaction(context.Background(), kennedy, 5); err != nil {
			t.Fatalf("\t%s\tShould be able to mine a transaction directly: %v", failed, err)
		}
		if got := st.QueryBalance(kennedy); got != gen.MiningReward+25 {
			t.Fatalf("\t%s\tShould credit kennedy again, got %d.", failed, got)
		}
		t.Logf("\t%s\tShould be able to mine a transaction directly.", success)

		blocks := st.QueryBlocksByIndex(1, state.QueryLatest)
		if len(blocks) != 3 || blocks[2].Index != 3 {
			t.Fatalf("\t%s\tShould query blocks 1 through 3, got %d.", failed, len(blocks))
		}
		if _, err := st.QueryBlockByHash(blocks[1].Hash); err != nil {
			t.Fatalf("\t%s\tShould find a block by hash: %v", failed, err)
		}
		t.Logf("\t%s\tShould query the chain.", success)

		reloaded := newState(t, minerECDSA, strg)
		if reloaded.RetrieveLatestBlock().Hash != st.RetrieveLatestBlock().Hash {
			t.Fatalf("\t%s\tShould reload the chain from storage.", failed)
		}
		if reloaded.QueryBalance(kennedy) != st.QueryBalance(kennedy) {
			t.Fatalf("\t%s\tShould rebuild the unspent outputs from storage.", failed)
		}
		t.Logf("\t%s\tShould reload the chain from storage.", success)
	}
}

func Test_PeerBlocks(t *testing.T) {
	strg1, err := memory.New()
	ifErrFailNow(t, err)
	strg2, err := memory.New()
	ifErrFailNow(t, err)

	local := newState(t, minerECDSA, strg1)
	remote := newState(t, kennedyECDSA, strg2)

	t.Log("Given the need to accept blocks and chains from peers.")
	{
		block, err := remote.MineNewBlock(context.Background())
		ifErrFailNow(t, err)

		if err := local.ProcessProposedBlock(block); err != nil {
			t.Fatalf("\t%s\tShould accept the next block from a peer: %v", failed, err)
		}
		if local.RetrieveLatestBlock().Hash != block.Hash {
			t.Fatalf("\t%s\tShould extend the chain with the peer block.", failed)
		}
		t.Logf("\t%s\tShould accept the next block from a peer.", success)

		if err := local.ProcessProposedBlock(block); err != nil {
			t.Fatalf("\t%s\tShould ignore a block already in the chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould ignore a block already in the chain.", success)

		var ahead database.Block
		for i := 0; i < 2; i++ {
			ahead, err = remote.MineNewBlock(context.Background())
			ifErrFailNow(t, err)
		}

		if err := local.ProcessProposedBlock(ahead); !errors.Is(err, state.ErrChainBehind) {
			t.Fatalf("\t%s\tShould report a block too far ahead, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould report a block too far ahead.", success)

		replaced, err := local.ReplaceChain(remote.RetrieveChain())
		if err != nil || !replaced {
			t.Fatalf("\t%s\tShould replace with the heavier peer chain, replaced %v: %v", failed, replaced, err)
		}
		if local.RetrieveLatestBlock().Hash != ahead.Hash {
			t.Fatalf("\t%s\tShould end on the peer tip.", failed)
		}
		if stored, err := strg1.GetBlock(ahead.Index); err != nil || stored.Hash != ahead.Hash {
			t.Fatalf("\t%s\tShould write the replaced chain to storage: %v", failed, err)
		}
		t.Logf("\t%s\tShould replace with the heavier peer chain.", success)

		replaced, err = remote.ReplaceChain(local.RetrieveChain())
		if err != nil || replaced {
			t.Fatalf("\t%s\tShould keep a chain with equal work, replaced %v: %v", failed, replaced, err)
		}
		t.Logf("\t%s\tShould keep a chain with equal work.", success)

		status := local.RetrieveStatus()
		if status.LatestBlockIndex != ahead.Index || status.Work().Cmp(remote.RetrieveWork()) != 0 {
			t.Fatalf("\t%s\tShould report the tip and work in the status: %+v", failed, status)
		}
		t.Logf("\t%s\tShould report the tip and work in the status.", success)
	}
}

func Test_CancelMining(t *testing.T) {
	strg, err := memory.New()
	ifErrFailNow(t, err)

	st := newState(t, minerECDSA, strg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := st.MineNewBlock(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("\t%s\tShould stop mining when cancelled, got %v.", failed, err)
	}
	if st.RetrieveLatestBlock().Index != 0 {
		t.Fatalf("\t%s\tShould not change the chain when mining is cancelled.", failed)
	}
	t.Logf("\t%s\tShould stop mining when cancelled.", success)
}

func Test_ForkBlock(t *testing.T) {
	strg1, err := memory.New()
	ifErrFailNow(t, err)
	strg2, err := memory.New()
	ifErrFailNow(t, err)

	local := newState(t, minerECDSA, strg1)
	remote := newState(t, kennedyECDSA, strg2)

	t.Log("Given the need to tell a competing block apart from one already held.")
	{
		mine, err := local.MineNewBlock(context.Background())
		ifErrFailNow(t, err)
		theirs, err := remote.MineNewBlock(context.Background())
		ifErrFailNow(t, err)

		if err := local.ProcessProposedBlock(mine); err != nil {
			t.Fatalf("\t%s\tShould ignore its own block: %v", failed, err)
		}
		if err := local.ProcessProposedBlock(local.RetrieveChain()[0]); err != nil {
			t.Fatalf("\t%s\tShould ignore the genesis block: %v", failed, err)
		}
		t.Logf("\t%s\tShould ignore blocks already in the chain.", success)

		if err := local.ProcessProposedBlock(theirs); !errors.Is(err, state.ErrForkBlock) {
			t.Fatalf("\t%s\tShould report a competing block at the same height, got %v.", failed, err)
		}
		if local.RetrieveLatestBlock().Hash != mine.Hash {
			t.Fatalf("\t%s\tShould keep its own tip after a competing block.", failed)
		}
		t.Logf("\t%s\tShould report a competing block at the same height.", success)

		next, err := local.MineNewBlock(context.Background())
		ifErrFailNow(t, err)

		if err := local.ProcessProposedBlock(theirs); !errors.Is(err, state.ErrForkBlock) {
			t.Fatalf("\t%s\tShould report a competing block below the tip, got %v.", failed, err)
		}
		if local.RetrieveLatestBlock().Hash != next.Hash {
			t.Fatalf("\t%s\tShould keep its own tip after an older competing block.", failed)
		}
		t.Logf("\t%s\tShould report a competing block below the tip.", success)
	}
}
