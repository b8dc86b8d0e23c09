// Package security limits the resources a contract call may use.
package security

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/govm-net/greeter/core"
)

var ErrParamsTooLarge = errors.New("params too large")

// ResourceLimiter bounds the input a call may carry and the arena it runs in.
type ResourceLimiter struct {
	maxParamsSize uint64
	maxArenaPages uint32
}

// NewResourceLimiter creates a resource limiter
func NewResourceLimiter(maxParamsSize uint64, maxArenaPages uint32) *ResourceLimiter {
	return &ResourceLimiter{
		maxParamsSize: maxParamsSize,
		maxArenaPages: maxArenaPages,
	}
}

// MaxArenaPages returns the arena page limit.
func (r *ResourceLimiter) MaxArenaPages() uint32 {
	return r.maxArenaPages
}

// Check rejects params larger than the configured limit.
func (r *ResourceLimiter) Check(params []byte) error {
	if uint64(len(params)) > r.maxParamsSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrParamsTooLarge, len(params), r.maxParamsSize)
	}
	return nil
}

// CallTracer tracks the contract call chain
type CallTracer struct {
	mu        sync.Mutex
	callStack []CallFrame
}

// CallFrame is one entry of the call stack
type CallFrame struct {
	Sender    core.Address
	Contract  core.Address
	Function  string
	StartTime time.Time
}

// NewCallTracer creates a call tracer
func NewCallTracer() *CallTracer {
	return &CallTracer{
		callStack: make([]CallFrame, 0),
	}
}

// BeginCall records the start of a call
func (t *CallTracer) BeginCall(sender, contract core.Address, function string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callStack = append(t.callStack, CallFrame{
		Sender:    sender,
		Contract:  contract,
		Function:  function,
		StartTime: time.Now(),
	})
}

// EndCall pops the most recent frame and returns it
func (t *CallTracer) EndCall() (CallFrame, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.callStack) == 0 {
		return CallFrame{}, false
	}
	frame := t.callStack[len(t.callStack)-1]
	t.callStack = t.callStack[:len(t.callStack)-1]
	return frame, true
}

// Depth returns the number of open frames
func (t *CallTracer) Depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.callStack)
}
