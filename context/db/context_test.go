package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/govm-net/greeter/context"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Context {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx, err := NewContext(map[string]any{
		"db_path": path,
	})
	require.NoError(t, err)
	t.Cleanup(func() { ctx.(*Context).Close() })
	return ctx.(*Context)
}

func TestBlockContext(t *testing.T) {
	ctx := setupTestDB(t)

	require.NoError(t, ctx.SetBlockInfo(100, 1234567890, core.HashFromString("0x1234567890")))
	assert.Equal(t, uint64(100), ctx.BlockHeight())
	assert.Equal(t, int64(1234567890), ctx.BlockTime())

	// same height updates in place
	require.NoError(t, ctx.SetBlockInfo(100, 1234567891, core.HashFromString("0x1234567890")))
	var count int64
	require.NoError(t, ctx.db.Model(&DBBlock{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, ctx.SetBlockInfo(101, 1, core.HashFromString("0x01")))
	require.NoError(t, ctx.WithBlock(100))
	assert.Equal(t, int64(1234567891), ctx.BlockTime())

	assert.Error(t, ctx.WithBlock(999))
}

func TestTransactionContext(t *testing.T) {
	ctx := setupTestDB(t)

	sender := core.AddressFromString("0x1234")
	contract := core.AddressFromString("0x5678")
	hash := core.HashFromString("0xabcdef")

	require.NoError(t, ctx.SetBlockInfo(5, 50, core.HashFromString("0x05")))
	require.NoError(t, ctx.SetTransactionInfo(hash, sender, contract))

	assert.Equal(t, sender, ctx.Sender())
	assert.Equal(t, contract, ctx.ContractAddress())
	assert.Equal(t, hash, ctx.TransactionHash())

	require.NoError(t, ctx.SetTransactionInfo(core.HashFromString("0x02"), contract, sender))
	require.NoError(t, ctx.WithTransaction(hash))
	assert.Equal(t, sender, ctx.Sender())
}

func TestEventLogging(t *testing.T) {
	ctx := setupTestDB(t)
	contract := core.AddressFromString("0x9999")

	ctx.Log(contract, "Greeted", "name", "World")

	var events []DBEvent
	require.NoError(t, ctx.db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, "Greeted", events[0].EventName)
	assert.Equal(t, contract.String(), events[0].Contract)
	assert.JSONEq(t, `["name","World"]`, string(events[0].KeyValues))
}

func TestReceipts(t *testing.T) {
	ctx := setupTestDB(t)

	a := core.AddressFromString("0xaaaa")
	b := core.AddressFromString("0xbbbb")
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, ctx.RecordReceipt(types.Receipt{
		TxHash:      core.HashFromString("0x01"),
		BlockHeight: 1,
		Contract:    a,
		Sender:      b,
		Function:    "hello",
		Args:        []byte(`{"name":"World"}`),
		Result:      []byte(`["Hello","World"]`),
		Success:     true,
		ArenaBytes:  64,
		CreatedAt:   created,
	}))
	require.NoError(t, ctx.RecordReceipt(types.Receipt{Contract: b, Function: "missing", Error: "function not found"}))

	got, err := ctx.Receipts(a)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Function)
	assert.Equal(t, b, got[0].Sender)
	assert.True(t, got[0].Success)
	assert.Equal(t, uint32(64), got[0].ArenaBytes)
	assert.JSONEq(t, `["Hello","World"]`, string(got[0].Result))
	assert.True(t, created.Equal(got[0].CreatedAt))

	all, err := ctx.Receipts(core.ZeroAddress)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[1].Success)
}

func TestReceiptsPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	first, err := NewContext(map[string]any{"db_path": path})
	require.NoError(t, err)
	require.NoError(t, first.RecordReceipt(types.Receipt{Function: "hello", Success: true}))
	require.NoError(t, first.(*Context).Close())

	second, err := context.Get(context.DBContextType, map[string]any{"db_path": path})
	require.NoError(t, err)
	defer second.(*Context).Close()

	got, err := second.Receipts(core.ZeroAddress)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
