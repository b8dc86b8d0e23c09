package wasi

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T, maxPages uint32) *Runtime {
	t.Helper()
	r, err := NewRuntime(context.Background(), maxPages)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close(context.Background()) })
	return r
}

func TestArenaPutRead(t *testing.T) {
	r := newTestRuntime(t, 0)
	assert.Equal(t, DefaultMaxPages, r.MaxPages())

	arena, err := r.NewArena(context.Background())
	require.NoError(t, err)
	defer arena.Close()

	assert.Equal(t, uint32(PageSize), arena.Size())

	p1, err := arena.Put([]byte("Hello"))
	require.NoError(t, err)
	p2, err := arena.Put([]byte("Zoë"))
	require.NoError(t, err)

	assert.Equal(t, uint32(0), p1)
	assert.Equal(t, uint32(8), p2)
	assert.Equal(t, uint32(8+len("Zoë")), arena.Used())

	got, err := arena.Read(p2, uint32(len("Zoë")))
	require.NoError(t, err)
	assert.Equal(t, "Zoë", string(got))

	empty, err := arena.Put(nil)
	require.NoError(t, err)
	got, err = arena.Read(empty, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestArenaGrows(t *testing.T) {
	r := newTestRuntime(t, 4)
	arena, err := r.NewArena(context.Background())
	require.NoError(t, err)
	defer arena.Close()

	data := bytes.Repeat([]byte{0x5a}, PageSize*2+1)
	ptr, err := arena.Put(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(PageSize*3), arena.Size())

	got, err := arena.Read(ptr, uint32(len(data)))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestArenaExhausted(t *testing.T) {
	r := newTestRuntime(t, 1)
	arena, err := r.NewArena(context.Background())
	require.NoError(t, err)
	defer arena.Close()

	_, err = arena.Allocate(PageSize)
	require.NoError(t, err)

	_, err = arena.Allocate(1)
	assert.ErrorIs(t, err, ErrArenaExhausted)
}

func TestArenaReadOutOfRange(t *testing.T) {
	r := newTestRuntime(t, 1)
	arena, err := r.NewArena(context.Background())
	require.NoError(t, err)
	defer arena.Close()

	_, err = arena.Read(PageSize-1, 2)
	assert.Error(t, err)
	assert.Error(t, arena.Write(PageSize, []byte{1}))
}

func TestArenaReadIsCopy(t *testing.T) {
	r := newTestRuntime(t, 1)
	arena, err := r.NewArena(context.Background())
	require.NoError(t, err)

	ptr, err := arena.Put([]byte("World"))
	require.NoError(t, err)
	got, err := arena.Read(ptr, 5)
	require.NoError(t, err)

	require.NoError(t, arena.Close())
	assert.Equal(t, "World", string(got))
}

func TestArenasAreIsolated(t *testing.T) {
	r := newTestRuntime(t, 1)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			arena, err := r.NewArena(context.Background())
			if err != nil {
				return
			}
			defer arena.Close()

			name := []byte{byte('a' + i)}
			ptr, err := arena.Put(name)
			if err != nil {
				return
			}
			got, err := arena.Read(ptr, 1)
			if err != nil {
				return
			}
			results[i] = string(got)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, string(rune('a'+i)), got)
	}
}

func TestNewRuntimeRejectsTooManyPages(t *testing.T) {
	_, err := NewRuntime(context.Background(), 65537)
	assert.Error(t, err)
}
