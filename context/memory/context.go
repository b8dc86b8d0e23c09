// Package memory implements an in-process BlockchainContext.
package memory

import (
	"log/slog"
	"sync"
	"time"

	"github.com/govm-net/greeter/context"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/types"
)

type blockchainContext struct {
	mu sync.RWMutex

	blockHeight uint64
	blockTime   int64
	blockHash   core.Hash

	txHash       core.Hash
	sender       core.Address
	contractAddr core.Address

	receipts []types.Receipt
}

func init() {
	context.Register(context.MemoryContextType, NewBlockchainContext)
}

// NewBlockchainContext creates an empty in-memory context; params are ignored.
func NewBlockchainContext(params map[string]any) (types.BlockchainContext, error) {
	return &blockchainContext{}, nil
}

func (ctx *blockchainContext) SetBlockInfo(height uint64, time int64, hash core.Hash) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.blockHeight = height
	ctx.blockTime = time
	ctx.blockHash = hash
	return nil
}

func (ctx *blockchainContext) SetTransactionInfo(hash core.Hash, from core.Address, to core.Address) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.txHash = hash
	ctx.sender = from
	ctx.contractAddr = to
	return nil
}

func (ctx *blockchainContext) BlockHeight() uint64 {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.blockHeight
}

func (ctx *blockchainContext) BlockTime() int64 {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.blockTime
}

func (ctx *blockchainContext) ContractAddress() core.Address {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.contractAddr
}

func (ctx *blockchainContext) TransactionHash() core.Hash {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.txHash
}

func (ctx *blockchainContext) Sender() core.Address {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.sender
}

// Log records events
func (ctx *blockchainContext) Log(contract core.Address, eventName string, keyValues ...any) {
	params := []any{
		"contract", contract,
		"event", eventName,
	}
	params = append(params, keyValues...)
	slog.Info("Contract log", params...)
}

func (ctx *blockchainContext) RecordReceipt(r types.Receipt) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.receipts = append(ctx.receipts, r)
	return nil
}

// Receipts returns receipts for contract in recording order; the zero
// address matches every contract.
func (ctx *blockchainContext) Receipts(contract core.Address) ([]types.Receipt, error) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	out := make([]types.Receipt, 0, len(ctx.receipts))
	for _, r := range ctx.receipts {
		if contract == core.ZeroAddress || r.Contract == contract {
			out = append(out, r)
		}
	}
	return out, nil
}
