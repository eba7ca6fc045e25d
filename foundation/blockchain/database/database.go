// Package database handles all the lower level support for the blockchain:
// blocks, transactions, the set of unspent outputs and the consensus rules
// that tie them together.
package database

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(block Block) error
	GetBlock(index uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}
