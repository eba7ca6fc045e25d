package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
)

// miningOperations waits for a signal to mine the pending transactions.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}

		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines a block holding the pending transactions. A cancel
// request stops the search. The caller that asked for the cancel holds this
// G until it has finished changing the chain, so the next operation starts
// on top of that change.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	if pending := w.state.QueryMempoolLength(); pending == 0 {
		w.evHandler("worker: runMiningOperation: MINING: no transactions to mine")
		return
	}
	defer w.signalPendingMining()

	// A cancel left over from a change made while no block was being mined
	// does not apply to this operation.
	select {
	case wait := <-w.cancelMining:
		<-wait
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mined := make(chan error, 1)
	go func() {
		mined <- w.mineAndPropose(ctx)
	}()

	select {
	case err := <-mined:
		w.reportMining(err)

	case wait := <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
		cancel()
		w.reportMining(<-mined)

		w.evHandler("worker: runMiningOperation: MINING: termination signal: waiting")
		<-wait
		w.evHandler("worker: runMiningOperation: MINING: termination signal: received")
	}
}

// mineAndPropose mines the next block and sends it to the known peers.
// Peers that can't be reached are only logged.
func (w *Worker) mineAndPropose(ctx context.Context) error {
	start := time.Now()
	block, err := w.state.MineNewBlock(ctx)
	w.evHandler("worker: mineAndPropose: MINING: mining duration[%v]", time.Since(start))

	if err != nil {
		return err
	}

	w.evHandler("worker: mineAndPropose: MINING: mined blk[%d]: hash[%s]: trans[%d]", block.Index, block.Hash, len(block.Trans))

	if err := w.state.NetSendBlockToPeers(block); err != nil {
		w.evHandler("worker: mineAndPropose: MINING: NetSendBlockToPeers: WARNING %s", err)
	}

	return nil
}

// reportMining logs how a mining operation ended.
func (w *Worker) reportMining(err error) {
	switch {
	case err == nil:

	case errors.Is(err, context.Canceled):
		w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")

	case errors.Is(err, state.ErrBlockDiscarded):
		w.evHandler("worker: runMiningOperation: MINING: WARNING: %s", err)

	default:
		w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
	}
}

// signalPendingMining starts another operation when transactions are still
// waiting in the mempool.
func (w *Worker) signalPendingMining() {
	if pending := w.state.QueryMempoolLength(); pending > 0 {
		w.evHandler("worker: runMiningOperation: MINING: signal new mining operation: Txs[%d]", pending)
		w.SignalStartMining()
	}
}
