// Package vm deploys contracts and executes their entry points.
package vm

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/govm-net/greeter/abi"
	vmcontext "github.com/govm-net/greeter/context"
	_ "github.com/govm-net/greeter/context/memory"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/repository"
	"github.com/govm-net/greeter/security"
	"github.com/govm-net/greeter/types"
	"github.com/govm-net/greeter/validator"
	"github.com/govm-net/greeter/wasi"
	"github.com/prometheus/client_golang/prometheus"
)

// Engine is responsible for contract deployment and execution
type Engine struct {
	config      *Config
	runtime     *wasi.Runtime
	limiter     *security.ResourceLimiter
	validator   *validator.Validator
	codeManager *repository.Manager
	metrics     *Metrics
	ctx         types.BlockchainContext // Blockchain context

	mu        sync.RWMutex
	contracts map[core.Address]map[string]core.Handler
}

// NewEngine creates a new contract engine
func NewEngine(config *Config) (*Engine, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	runtime, err := wasi.NewRuntime(context.Background(), config.MaxMemoryPages)
	if err != nil {
		return nil, fmt.Errorf("failed to create arena runtime: %w", err)
	}

	codeManager, err := repository.NewManager(config.CodeManagerDir)
	if err != nil {
		runtime.Close(context.Background())
		return nil, fmt.Errorf("failed to create code manager: %w", err)
	}

	reg := config.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics, err := newMetrics(reg)
	if err != nil {
		runtime.Close(context.Background())
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	ctx, err := vmcontext.Get(vmcontext.ContextType(config.ContextType), config.ContextParams)
	if err != nil {
		runtime.Close(context.Background())
		return nil, fmt.Errorf("failed to get blockchain context: %w", err)
	}

	return &Engine{
		config:      config,
		runtime:     runtime,
		limiter:     security.NewResourceLimiter(config.MaxParamsSize, config.MaxMemoryPages),
		validator:   validator.New(validatorConfig(config)),
		codeManager: codeManager,
		metrics:     metrics,
		ctx:         ctx,
		contracts:   make(map[core.Address]map[string]core.Handler),
	}, nil
}

func (e *Engine) WithContext(ctx types.BlockchainContext) *Engine {
	e.ctx = ctx
	return e
}

func (e *Engine) GetContext() types.BlockchainContext {
	return e.ctx
}

// ContractAddress derives the deployment address of a contract from its source.
func ContractAddress(source []byte) core.Address {
	hash := sha256.Sum256(source)
	var addr core.Address
	copy(addr[:], hash[:])
	return addr
}

// DeployContract deploys a contract at the address derived from its source
func (e *Engine) DeployContract(source []byte, functions map[string]core.Handler) (core.Address, error) {
	addr := ContractAddress(source)
	return addr, e.DeployContractWithAddress(source, functions, addr)
}

// DeployContractWithAddress deploys a contract with specified address.
// Every exported function in source must have a handler under its entry point name.
func (e *Engine) DeployContractWithAddress(source []byte, functions map[string]core.Handler, contractAddr core.Address) error {
	if err := e.validator.ValidateContract(source); err != nil {
		return err
	}

	contractABI, err := abi.ExtractABI(source)
	if err != nil {
		return fmt.Errorf("failed to parse contract ABI: %w", err)
	}
	if len(contractABI.Functions) == 0 {
		return fmt.Errorf("contract %s exports no functions", contractABI.PackageName)
	}

	handlers := make(map[string]core.Handler, len(contractABI.Functions))
	for _, fn := range contractABI.Functions {
		handler, ok := functions[fn.EntryPoint]
		if !ok {
			return fmt.Errorf("no handler for entry point %s", fn.EntryPoint)
		}
		handlers[fn.EntryPoint] = handler
	}

	if err := e.codeManager.RegisterCode(contractAddr, source, contractABI); err != nil {
		return fmt.Errorf("failed to save contract code: %w", err)
	}

	e.mu.Lock()
	e.contracts[contractAddr] = handlers
	e.mu.Unlock()

	slog.Info("contract deployed", "address", contractAddr, "package", contractABI.PackageName, "functions", len(handlers))
	return nil
}

// ABI returns the ABI of a deployed contract
func (e *Engine) ABI(contractAddr core.Address) (*abi.ABI, error) {
	return e.codeManager.GetABI(contractAddr)
}

// ExecuteContract maps positional args onto the function's ABI inputs and executes it
func (e *Engine) ExecuteContract(contractAddr core.Address, function string, args ...any) (json.RawMessage, error) {
	contractABI, err := e.ABI(contractAddr)
	if err != nil {
		return nil, err
	}
	fn, ok := contractABI.Function(function)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrFunctionNotFound, function)
	}

	inputs := fn.CallInputs()
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", core.ErrInvalidArgument, fn.EntryPoint, len(inputs), len(args))
	}
	params := make(map[string]any, len(args))
	for i, arg := range args {
		params[inputs[i].Name] = arg
	}

	argsBytes, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal function arguments: %w", err)
	}
	return e.Execute(contractAddr, fn.EntryPoint, argsBytes)
}

// Execute runs an entry point with JSON params, json.Marshal(map[string]any),
// and returns the JSON encoded result. A receipt is recorded for every call
// that reaches the contract lookup.
func (e *Engine) Execute(contractAddr core.Address, function string, params []byte) (json.RawMessage, error) {
	if err := e.limiter.Check(params); err != nil {
		return nil, err
	}

	sender := e.ctx.Sender()
	receipt := types.Receipt{
		TxHash:      e.ctx.TransactionHash(),
		BlockHeight: e.ctx.BlockHeight(),
		Contract:    contractAddr,
		Sender:      sender,
		Function:    function,
		Args:        params,
		CreatedAt:   time.Now(),
	}

	tracer := security.NewCallTracer()
	tracer.BeginCall(sender, contractAddr, function)
	result, used, err := e.execute(contractAddr, sender, function, params)
	frame, _ := tracer.EndCall()

	receipt.ArenaBytes = used
	receipt.Result = result
	receipt.Success = err == nil
	if err != nil {
		receipt.Error = err.Error()
	}
	if rerr := e.ctx.RecordReceipt(receipt); rerr != nil {
		slog.Error("failed to record receipt", "contract", contractAddr, "function", function, "error", rerr)
	}

	elapsed := time.Since(frame.StartTime)
	e.metrics.observe(function, receipt.Success, used, elapsed.Seconds())
	slog.Debug("contract executed", "contract", contractAddr, "function", function,
		"success", receipt.Success, "arena_bytes", used, "duration", elapsed)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// arenaResult mirrors types.ExecutionResult with the data left encoded.
type arenaResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (e *Engine) execute(contractAddr, sender core.Address, function string, params []byte) (json.RawMessage, uint32, error) {
	e.mu.RLock()
	handlers, exists := e.contracts[contractAddr]
	e.mu.RUnlock()
	if !exists {
		return nil, 0, fmt.Errorf("%w: %s", core.ErrContractNotFound, contractAddr)
	}
	handler, exists := handlers[function]
	if !exists {
		return nil, 0, fmt.Errorf("%w: %s", core.ErrFunctionNotFound, function)
	}

	runCtx := context.Background()
	arena, err := e.runtime.NewArena(runCtx)
	if err != nil {
		return nil, 0, err
	}
	defer arena.Close()

	// Write the call frame into the arena
	frameBytes, err := json.Marshal(types.HandleContractCallParams{
		Contract: contractAddr,
		Sender:   sender,
		Function: function,
		Args:     params,
	})
	if err != nil {
		return nil, arena.Used(), fmt.Errorf("failed to serialize call frame: %w", err)
	}
	framePtr, err := arena.Put(frameBytes)
	if err != nil {
		return nil, arena.Used(), err
	}

	// The contract side reads its frame back out of the arena
	frameData, err := arena.Read(framePtr, uint32(len(frameBytes)))
	if err != nil {
		return nil, arena.Used(), err
	}
	var frame types.HandleContractCallParams
	if err := json.Unmarshal(frameData, &frame); err != nil {
		return nil, arena.Used(), fmt.Errorf("failed to deserialize call frame: %w", err)
	}

	execResult := invoke(handler, newExecutionContext(e.ctx, frame.Contract, frame.Sender), frame.Args)
	resultBytes, err := json.Marshal(execResult)
	if err != nil {
		return nil, arena.Used(), fmt.Errorf("failed to serialize result: %w", err)
	}

	// Allocate the result in the arena and read it back for the caller
	resultPtr, err := arena.Put(resultBytes)
	if err != nil {
		return nil, arena.Used(), err
	}
	out, err := arena.Read(resultPtr, uint32(len(resultBytes)))
	if err != nil {
		return nil, arena.Used(), err
	}

	var decoded arenaResult
	if err := json.Unmarshal(out, &decoded); err != nil {
		return nil, arena.Used(), fmt.Errorf("failed to deserialize: %w", err)
	}
	if !decoded.Success {
		return nil, arena.Used(), fmt.Errorf("%w: %s", core.ErrExecutionReverted, decoded.Error)
	}
	return decoded.Data, arena.Used(), nil
}

// invoke calls a handler and turns errors and panics into a failed result.
func invoke(handler core.Handler, ctx core.Context, params []byte) (result types.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			result = types.ExecutionResult{Success: false, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()

	data, err := handler(ctx, params)
	if err != nil {
		return types.ExecutionResult{Success: false, Error: err.Error()}
	}
	return types.ExecutionResult{Success: true, Data: data}
}

// Close closes the engine
func (e *Engine) Close() error {
	var errs []error
	if err := e.runtime.Close(context.Background()); err != nil {
		errs = append(errs, err)
	}
	if closer, ok := e.ctx.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close blockchain context: %w", err))
		}
	}
	return errors.Join(errs...)
}
