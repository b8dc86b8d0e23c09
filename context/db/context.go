// Package db implements a BlockchainContext persisted in SQLite through GORM.
package db

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/govm-net/greeter/context"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultDBPath = "./greeter.db"
)

type DBBlock struct {
	gorm.Model
	Height uint64 `gorm:"column:height;not null;unique;index"`
	Time   int64  `gorm:"column:block_time;not null"`
	Hash   string `gorm:"column:block_hash;not null;index;size:66"`
}

func (DBBlock) TableName() string {
	return "blocks"
}

type DBTransaction struct {
	gorm.Model
	Hash        string `gorm:"column:tx_hash;not null;unique;index;size:66"`
	BlockHeight uint64 `gorm:"column:block_height;not null;index"`
	FromAddress string `gorm:"column:from_address;not null;index;size:42"`
	ToAddress   string `gorm:"column:to_address;not null;index;size:42"`
}

func (DBTransaction) TableName() string {
	return "transactions"
}

// DBEvent represents an event in the database
type DBEvent struct {
	gorm.Model
	BlockHeight uint64 `gorm:"column:block_height;not null;index"`
	TxHash      string `gorm:"column:tx_hash;not null;index;size:66"`
	Contract    string `gorm:"column:contract_address;not null;index;size:42"`
	EventName   string `gorm:"column:event_name;not null;index;size:255"`
	KeyValues   []byte `gorm:"column:key_values;type:blob;not null"` // JSON encoded key-value pairs
}

func (DBEvent) TableName() string {
	return "events"
}

// DBReceipt is the stored outcome of one contract call
type DBReceipt struct {
	gorm.Model
	TxHash      string `gorm:"column:tx_hash;not null;index;size:66"`
	BlockHeight uint64 `gorm:"column:block_height;not null;index"`
	Contract    string `gorm:"column:contract_address;not null;index;size:42"`
	Sender      string `gorm:"column:sender_address;not null;size:42"`
	Function    string `gorm:"column:function;not null;size:255"`
	Args        []byte `gorm:"column:args;type:blob"`
	Result      []byte `gorm:"column:result;type:blob"`
	Success     bool   `gorm:"column:success;not null"`
	Error       string `gorm:"column:error;type:text"`
	ArenaBytes  uint32 `gorm:"column:arena_bytes;not null;default:0"`
}

func (DBReceipt) TableName() string {
	return "receipts"
}

// Context implements the BlockchainContext interface using SQLite with GORM
type Context struct {
	db *gorm.DB

	// guards the fields below and serializes writes
	mu           sync.Mutex
	currentBlock DBBlock
	currentTx    DBTransaction
}

func init() {
	context.Register(context.DBContextType, NewContext)
}

// NewContext opens (or creates) the database at params["db_path"].
func NewContext(params map[string]any) (types.BlockchainContext, error) {
	dbPath := defaultDBPath
	if path, ok := params["db_path"].(string); ok && path != "" {
		dbPath = path
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx := &Context{db: db}
	if err := ctx.initDB(); err != nil {
		return nil, err
	}
	return ctx, nil
}

func (c *Context) initDB() error {
	err := c.db.AutoMigrate(
		&DBBlock{},
		&DBTransaction{},
		&DBEvent{},
		&DBReceipt{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close closes the underlying database handle
func (c *Context) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SetBlockInfo stores the block and makes it current
func (c *Context) SetBlockInfo(height uint64, time int64, hash core.Hash) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var block DBBlock
	err := c.db.Where(map[string]any{"height": height}).
		Assign(map[string]any{"height": height, "block_time": time, "block_hash": hash.String()}).
		FirstOrCreate(&block).Error
	if err != nil {
		return fmt.Errorf("failed to store block: %w", err)
	}
	c.currentBlock = block
	return nil
}

// SetTransactionInfo stores the transaction and makes it current
func (c *Context) SetTransactionInfo(hash core.Hash, from core.Address, to core.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var tx DBTransaction
	err := c.db.Where(map[string]any{"tx_hash": hash.String()}).
		Assign(map[string]any{
			"tx_hash":      hash.String(),
			"block_height": c.currentBlock.Height,
			"from_address": from.String(),
			"to_address":   to.String(),
		}).
		FirstOrCreate(&tx).Error
	if err != nil {
		return fmt.Errorf("failed to store transaction: %w", err)
	}
	c.currentTx = tx
	return nil
}

// WithBlock loads a stored block and makes it current
func (c *Context) WithBlock(height uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var block DBBlock
	if err := c.db.Where("height = ?", height).First(&block).Error; err != nil {
		return fmt.Errorf("failed to get block: %w", err)
	}
	c.currentBlock = block
	return nil
}

// WithTransaction loads a stored transaction and makes it current
func (c *Context) WithTransaction(hash core.Hash) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var tx DBTransaction
	if err := c.db.Where("tx_hash = ?", hash.String()).First(&tx).Error; err != nil {
		return fmt.Errorf("failed to get transaction: %w", err)
	}
	c.currentTx = tx
	return nil
}

func (c *Context) BlockHeight() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentBlock.Height
}

func (c *Context) BlockTime() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentBlock.Time
}

func (c *Context) ContractAddress() core.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.AddressFromString(c.currentTx.ToAddress)
}

func (c *Context) TransactionHash() core.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.HashFromString(c.currentTx.Hash)
}

func (c *Context) Sender() core.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.AddressFromString(c.currentTx.FromAddress)
}

// Log stores an event and mirrors it to slog
func (c *Context) Log(contract core.Address, eventName string, keyValues ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(keyValues)
	if err != nil {
		slog.Error("failed to marshal event key values", "event", eventName, "error", err)
		return
	}

	event := &DBEvent{
		BlockHeight: c.currentBlock.Height,
		TxHash:      c.currentTx.Hash,
		Contract:    contract.String(),
		EventName:   eventName,
		KeyValues:   data,
	}
	if err := c.db.Create(event).Error; err != nil {
		slog.Error("failed to store event", "event", eventName, "error", err)
		return
	}

	params := []any{"contract", contract, "event", eventName}
	slog.Info("Contract log", append(params, keyValues...)...)
}

// RecordReceipt stores the outcome of a call
func (c *Context) RecordReceipt(r types.Receipt) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := &DBReceipt{
		TxHash:      r.TxHash.String(),
		BlockHeight: r.BlockHeight,
		Contract:    r.Contract.String(),
		Sender:      r.Sender.String(),
		Function:    r.Function,
		Args:        r.Args,
		Result:      r.Result,
		Success:     r.Success,
		Error:       r.Error,
		ArenaBytes:  r.ArenaBytes,
	}
	row.CreatedAt = r.CreatedAt
	if err := c.db.Create(row).Error; err != nil {
		return fmt.Errorf("failed to store receipt: %w", err)
	}
	return nil
}

// Receipts lists receipts for contract oldest first; the zero address
// matches every contract.
func (c *Context) Receipts(contract core.Address) ([]types.Receipt, error) {
	query := c.db.Order("id asc")
	if contract != core.ZeroAddress {
		query = query.Where("contract_address = ?", contract.String())
	}

	var rows []DBReceipt
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	out := make([]types.Receipt, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.Receipt{
			TxHash:      core.HashFromString(row.TxHash),
			BlockHeight: row.BlockHeight,
			Contract:    core.AddressFromString(row.Contract),
			Sender:      core.AddressFromString(row.Sender),
			Function:    row.Function,
			Args:        row.Args,
			Result:      row.Result,
			Success:     row.Success,
			Error:       row.Error,
			ArenaBytes:  row.ArenaBytes,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}
