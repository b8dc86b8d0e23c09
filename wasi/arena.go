// Package wasi provides per-call execution arenas backed by WebAssembly
// linear memory.
package wasi

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// PageSize is the size of one WebAssembly memory page.
const PageSize = 65536

// DefaultMaxPages caps an arena at 1 MiB unless configured otherwise.
const DefaultMaxPages uint32 = 16

var ErrArenaExhausted = errors.New("arena memory exhausted")

// arenaWasm is a module with a single exported memory of one page and no
// declared maximum, so growth is bounded only by the runtime limit.
var arenaWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 memory, min 1 page
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00, // export "memory"
}

// Runtime hands out arenas. It is safe for concurrent use.
type Runtime struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	maxPages uint32
	seq      atomic.Uint64
}

// NewRuntime compiles the arena module once. maxPages of 0 selects DefaultMaxPages.
func NewRuntime(ctx context.Context, maxPages uint32) (*Runtime, error) {
	if maxPages == 0 {
		maxPages = DefaultMaxPages
	}
	if maxPages > 65536 {
		return nil, fmt.Errorf("max pages %d exceeds the 4 GiB address space", maxPages)
	}

	config := wazero.NewRuntimeConfig().WithMemoryLimitPages(maxPages)
	runtime := wazero.NewRuntimeWithConfig(ctx, config)

	compiled, err := runtime.CompileModule(ctx, arenaWasm)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to compile arena module: %w", err)
	}

	return &Runtime{
		runtime:  runtime,
		compiled: compiled,
		maxPages: maxPages,
	}, nil
}

// MaxPages returns the per-arena page limit.
func (r *Runtime) MaxPages() uint32 {
	return r.maxPages
}

// NewArena instantiates a fresh module whose memory belongs to one call only.
func (r *Runtime) NewArena(ctx context.Context) (*Arena, error) {
	name := fmt.Sprintf("arena-%d", r.seq.Add(1))
	module, err := r.runtime.InstantiateModule(ctx, r.compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate arena: %w", err)
	}
	return &Arena{ctx: ctx, module: module}, nil
}

// Close releases the runtime and every arena still open on it.
func (r *Runtime) Close(ctx context.Context) error {
	if err := r.runtime.Close(ctx); err != nil {
		return fmt.Errorf("failed to close wazero runtime: %w", err)
	}
	return nil
}

// Arena is a bump allocator over one module's linear memory.
// It is not safe for concurrent use.
type Arena struct {
	ctx    context.Context
	module api.Module
	offset uint32
}

func (a *Arena) memory() api.Memory {
	return a.module.Memory()
}

// Allocate reserves size bytes, 8-byte aligned, growing memory when needed.
func (a *Arena) Allocate(size uint32) (uint32, error) {
	mem := a.memory()
	start := (uint64(a.offset) + 7) &^ 7
	end := start + uint64(size)
	if end > 1<<32 {
		return 0, ErrArenaExhausted
	}

	if current := uint64(mem.Size()); end > current {
		delta := (end - current + PageSize - 1) / PageSize
		if _, ok := mem.Grow(uint32(delta)); !ok {
			return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrArenaExhausted, end, current)
		}
	}

	a.offset = uint32(end)
	return uint32(start), nil
}

// Write copies data into the arena at ptr.
func (a *Arena) Write(ptr uint32, data []byte) error {
	if !a.memory().Write(ptr, data) {
		return fmt.Errorf("failed to write memory:%d, len:%d", ptr, len(data))
	}
	return nil
}

// Put allocates room for data and writes it.
func (a *Arena) Put(data []byte) (uint32, error) {
	ptr, err := a.Allocate(uint32(len(data)))
	if err != nil {
		return 0, err
	}
	return ptr, a.Write(ptr, data)
}

// Read returns a copy of length bytes at ptr; the copy outlives the arena.
func (a *Arena) Read(ptr, length uint32) ([]byte, error) {
	view, ok := a.memory().Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("failed to read memory:%d, len:%d", ptr, length)
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, nil
}

// Used returns the number of bytes handed out so far.
func (a *Arena) Used() uint32 {
	return a.offset
}

// Size returns the current size of the arena memory in bytes.
func (a *Arena) Size() uint32 {
	return a.memory().Size()
}

// Close releases the module instance.
func (a *Arena) Close() error {
	return a.module.Close(a.ctx)
}
