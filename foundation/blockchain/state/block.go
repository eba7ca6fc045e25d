package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// Set of errors returned when a block can't be added to the chain.
var (
	ErrBlockDiscarded = errors.New("mined block no longer extends the chain")
	ErrChainBehind    = errors.New("block is ahead of the local chain")
	ErrForkBlock      = errors.New("block competes with a block already in the chain")
)

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. The payload is taken from the mempool.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: pick transactions from mempool")

	trans := s.mempool.PickBest(int(s.genesis.TransPerBlock))

	return s.MineWithTransactions(ctx, trans)
}

// MineWithTransactions attempts to create a new block with the specified
// transactions following the coinbase. Transactions that no longer validate
// are left out and removed from the mempool.
func (s *State) MineWithTransactions(ctx context.Context, trans []database.Tx) (database.Block, error) {

	// Take a snapshot of the chain so no lock is held while hashing.
	s.mu.RLock()
	ledger := s.ledger
	s.mu.RUnlock()

	latest := ledger.LatestBlock()
	utxos := ledger.UTXOs()

	payload := []database.Tx{database.NewCoinbase(s.beneficiary, latest.Index+1, s.genesis.MiningReward)}
	spent := make(map[database.OutPoint]struct{})

next:
	for _, tx := range trans {
		if err := database.ValidateTx(tx, utxos); err != nil {
			s.evHandler("state: MineWithTransactions: MINING: tx[%s] dropped: %s", tx, err)
			s.mempool.Delete(tx)
			continue
		}

		for _, txIn := range tx.TxIns {
			if _, exists := spent[database.OutPoint{TxOutID: txIn.TxOutID, TxOutIndex: txIn.TxOutIndex}]; exists {
				s.evHandler("state: MineWithTransactions: MINING: tx[%s] skipped: output already spent in this block", tx)
				continue next
			}
		}

		for _, txIn := range tx.TxIns {
			spent[database.OutPoint{TxOutID: txIn.TxOutID, TxOutIndex: txIn.TxOutIndex}] = struct{}{}
		}
		payload = append(payload, tx)
	}

	s.evHandler("state: MineWithTransactions: MINING: perform POW: trans[%d]", len(payload))

	var block database.Block
	for {
		args := database.POWArgs{
			Index:      latest.Index + 1,
			PrevHash:   latest.Hash,
			TimeStamp:  time.Now().Unix(),
			Trans:      payload,
			Difficulty: ledger.NextDifficulty(),
			MaxNonce:   s.maxNonce,
			EvHandler:  s.evHandler,
		}

		var err error
		block, err = database.POW(ctx, args)
		if errors.Is(err, database.ErrNonceExhausted) {
			s.evHandler("state: MineWithTransactions: MINING: nonce exhausted: retry with a new timestamp")
			continue
		}
		if err != nil {
			return database.Block{}, err
		}
		break
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineWithTransactions: MINING: validate and update database")

	// The chain may have moved while mining. A block that no longer extends
	// the chain is thrown away.
	if err := s.acceptBlock(block); err != nil {
		s.evHandler("state: MineWithTransactions: MINING: block discarded: %s", err)
		return database.Block{}, fmt.Errorf("%s: %w", err, ErrBlockDiscarded)
	}

	return block, nil
}

// MineTransaction builds a transaction paying the amount from the node's
// address and mines it immediately into the next block.
func (s *State) MineTransaction(ctx context.Context, to database.Address, amount uint64) (database.Block, error) {
	tx, err := s.buildTransaction(to, amount)
	if err != nil {
		return database.Block{}, err
	}

	return s.MineWithTransactions(ctx, []database.Tx{tx})
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain. A block that is
// further ahead than the next index, or that builds on a block this node does
// not have, returns ErrChainBehind so the caller can ask for the full chain.
// A block already in the chain is ignored. A different block at a height the
// chain already has returns ErrForkBlock.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.PrevHash, block.Hash, len(block.Trans))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash)

	chain := s.RetrieveChain()
	latest := chain.LatestBlock()

	switch {
	case block.Index <= latest.Index && chain[block.Index].Hash == block.Hash:
		s.evHandler("state: ProcessProposedBlock: blk[%d] already in the chain", block.Index)
		return nil

	case block.Index <= latest.Index:
		return fmt.Errorf("blk[%d]: have[%s]: %w", block.Index, chain[block.Index].Hash, ErrForkBlock)

	case block.Index > latest.Index+1 || block.PrevHash != latest.Hash:
		return fmt.Errorf("blk[%d]: latest[%d]: %w", block.Index, latest.Index, ErrChainBehind)
	}

	// If the runMiningOperation function is being executed it needs to stop
	// immediately. The G executing runMiningOperation will not return from the
	// function until done is called. That allows this function to complete
	// its state changes before a new mining operation takes place.
	done := s.Worker.SignalCancelMining()
	defer func() {
		s.evHandler("state: ProcessProposedBlock: signal runMiningOperation to terminate")
		done()
	}()

	return s.acceptBlock(block)
}

// ReplaceChain takes a chain received from a peer and replaces the local chain
// when the candidate is valid and carries more work.
func (s *State) ReplaceChain(candidate database.Chain) (bool, error) {
	s.evHandler("state: ReplaceChain: started: blocks[%d]", len(candidate))
	defer s.evHandler("state: ReplaceChain: completed")

	done := s.Worker.SignalCancelMining()
	defer done()

	s.mu.Lock()
	defer s.mu.Unlock()

	nl, replaced, err := s.ledger.Replace(candidate, time.Now())
	if err != nil {
		return false, err
	}

	if !replaced {
		s.evHandler("state: ReplaceChain: candidate does not carry more work: local[%s]", s.ledger.Work())
		return false, nil
	}

	s.evHandler("state: ReplaceChain: write to storage")

	if _, err := resetStorage(s.storage, nl); err != nil {
		return false, err
	}
	s.ledger = nl

	dropped := s.mempool.Update(nl.UTXOs())
	s.evHandler("state: ReplaceChain: chain replaced: latest[%s]: work[%s]: dropped mempool txs[%d]", nl.LatestBlock().Hash, nl.Work(), dropped)

	s.blockEvent(nl.LatestBlock())

	return true, nil
}

// =============================================================================

// acceptBlock validates the block against the current chain. If the block
// passes, the state of the node is updated including writing the block to
// storage.
func (s *State) acceptBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: acceptBlock: validate block")

	nl, err := s.ledger.Append(block, time.Now())
	if err != nil {
		return err
	}

	s.evHandler("state: acceptBlock: write to storage")

	if err := s.storage.Write(block); err != nil {
		return err
	}
	s.ledger = nl

	s.evHandler("state: acceptBlock: remove confirmed transactions from mempool")

	for _, tx := range block.Trans[1:] {
		s.mempool.Delete(tx)
	}

	if dropped := s.mempool.Update(nl.UTXOs()); dropped > 0 {
		s.evHandler("state: acceptBlock: dropped mempool txs[%d] spending confirmed outputs", dropped)
	}

	// Send an event about this new block.
	s.blockEvent(block)

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"block":%s}`, block.Hash, string(blockJSON))
}
