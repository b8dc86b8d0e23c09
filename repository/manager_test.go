package repository

import (
	"path/filepath"
	"testing"

	"github.com/govm-net/greeter/abi"
	"github.com/govm-net/greeter/contracts/hello"
	"github.com/govm-net/greeter/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helloABI(t *testing.T) *abi.ABI {
	a, err := abi.ExtractABI(hello.Source)
	require.NoError(t, err)
	return a
}

func TestManagerOnDisk(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	require.NoError(t, err)

	addr := core.AddressFromString("1234567890abcdef1234567890abcdef12345678")
	require.NoError(t, manager.RegisterCode(addr, hello.Source, helloABI(t)))

	contractDir := filepath.Join(tmpDir, addr.String())
	assert.FileExists(t, filepath.Join(contractDir, "source.go.txt"))
	assert.FileExists(t, filepath.Join(contractDir, "abi.json"))
	assert.FileExists(t, filepath.Join(contractDir, "metadata.json"))

	// a second manager on the same directory sees the contract
	reopened, err := NewManager(tmpDir)
	require.NoError(t, err)
	code, err := reopened.GetCode(addr)
	require.NoError(t, err)
	assert.Equal(t, hello.Source, code.Source)
	assert.Equal(t, "hello", code.ABI.PackageName)

	got, err := reopened.GetABI(addr)
	require.NoError(t, err)
	fn, ok := got.Function("hello")
	require.True(t, ok)
	assert.Equal(t, "Hello", fn.Name)
}

func TestManagerInMemory(t *testing.T) {
	manager, err := NewManager("")
	require.NoError(t, err)

	addr := core.Address{0x01}
	_, err = manager.GetCode(addr)
	assert.ErrorIs(t, err, core.ErrContractNotFound)

	require.NoError(t, manager.RegisterCode(addr, hello.Source, helloABI(t)))
	code, err := manager.GetCode(addr)
	require.NoError(t, err)
	assert.Equal(t, addr, code.Address)
}

func TestContractImmutability(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	addr := core.Address{0x02}
	require.NoError(t, manager.RegisterCode(addr, hello.Source, helloABI(t)))

	// identical code is accepted again
	require.NoError(t, manager.RegisterCode(addr, hello.Source, helloABI(t)))

	err = manager.RegisterCode(addr, []byte("package other\n"), &abi.ABI{PackageName: "other"})
	assert.ErrorIs(t, err, ErrContractExists)
}
