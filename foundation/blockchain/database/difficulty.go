package database

// CurrentDifficulty returns the difficulty the next block must solve. The
// difficulty is recalculated every retarget window blocks, otherwise the
// latest block's difficulty carries forward.
func CurrentDifficulty(chain Chain, blockInterval uint64, retargetWindow uint64) uint32 {
	latest := chain.LatestBlock()

	if retargetWindow != 0 && latest.Index%retargetWindow == 0 && latest.Index != 0 {
		return AdjustedDifficulty(chain, blockInterval, retargetWindow)
	}

	return latest.Difficulty
}

// AdjustedDifficulty compares the time it took to mine the last retarget
// window against the expected time. Blocks arriving in less than half the
// expected time raise the difficulty by one, blocks taking more than double
// lower it by one. Otherwise the difficulty of the previous retarget block
// is kept.
func AdjustedDifficulty(chain Chain, blockInterval uint64, retargetWindow uint64) uint32 {
	latest := chain.LatestBlock()

	if retargetWindow == 0 || latest.Index < retargetWindow || uint64(len(chain)) <= latest.Index {
		return latest.Difficulty
	}

	prevAdjustment := chain[latest.Index-retargetWindow]

	expected := int64(blockInterval * retargetWindow)
	actual := latest.TimeStamp - prevAdjustment.TimeStamp

	switch {
	case actual < expected/2:
		return prevAdjustment.Difficulty + 1

	case actual > expected*2:
		if prevAdjustment.Difficulty == 0 {
			return 0
		}
		return prevAdjustment.Difficulty - 1

	default:
		return prevAdjustment.Difficulty
	}
}
