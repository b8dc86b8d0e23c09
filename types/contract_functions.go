// Package types contains shared type definitions used by the host
// environment and the contracts it runs.
package types

import (
	"time"

	"github.com/govm-net/greeter/core"
)

type Address = core.Address
type Hash = core.Hash

// HandleContractCallParams is the call frame the host writes into the
// execution arena before dispatching to a contract handler.
type HandleContractCallParams struct {
	Contract Address `json:"contract,omitempty"`
	Sender   Address `json:"sender,omitempty"`
	Function string  `json:"function,omitempty"`
	Args     []byte  `json:"args,omitempty"`
}

// ExecutionResult is the envelope the host reads back from the arena.
type ExecutionResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Receipt records the outcome of one contract call.
type Receipt struct {
	TxHash      Hash      `json:"tx_hash"`
	BlockHeight uint64    `json:"block_height"`
	Contract    Address   `json:"contract"`
	Sender      Address   `json:"sender"`
	Function    string    `json:"function"`
	Args        []byte    `json:"args,omitempty"`
	Result      []byte    `json:"result,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	ArenaBytes  uint32    `json:"arena_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// BlockchainContext is the host side of the execution context.
type BlockchainContext interface {
	// set block info and transaction info
	SetBlockInfo(height uint64, time int64, hash Hash) error
	SetTransactionInfo(hash Hash, from Address, to Address) error

	BlockHeight() uint64      // Get current block height
	BlockTime() int64         // Get current block timestamp
	ContractAddress() Address // Get current contract address
	TransactionHash() Hash    // Get current transaction hash
	Sender() Address          // Get transaction sender or contract caller

	// Logs and events
	Log(contract Address, eventName string, keyValues ...any)

	// Call receipts
	RecordReceipt(r Receipt) error
	Receipts(contract Address) ([]Receipt, error)
}
