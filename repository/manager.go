// Package repository keeps the source and ABI of deployed contracts.
package repository

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/govm-net/greeter/abi"
	"github.com/govm-net/greeter/core"
)

var ErrContractExists = errors.New("contract already exists with different code")

// Manager stores contract code by address. With an empty root directory it
// keeps everything in memory.
type Manager struct {
	rootDir string

	mu        sync.RWMutex
	contracts map[core.Address]*ContractCode
}

// ContractCode is one deployed contract
type ContractCode struct {
	Address    core.Address
	Source     []byte
	ABI        *abi.ABI
	UpdateTime time.Time
	Hash       [32]byte
}

// ContractMetadata is written next to the source on disk
type ContractMetadata struct {
	Hash       string    `json:"hash"`
	UpdateTime time.Time `json:"update_time"`
	Package    string    `json:"package"`
}

// NewManager creates a code manager
func NewManager(rootDir string) (*Manager, error) {
	if rootDir != "" {
		if err := os.MkdirAll(rootDir, 0755); err != nil {
			slog.Error("failed to create root directory", "dir", rootDir, "error", err)
			return nil, fmt.Errorf("failed to create root directory: %w", err)
		}
	}

	return &Manager{
		rootDir:   rootDir,
		contracts: make(map[core.Address]*ContractCode),
	}, nil
}

// RegisterCode records a contract. Registering identical code at the same
// address again is a no-op; different code is rejected.
func (m *Manager) RegisterCode(address core.Address, source []byte, contractABI *abi.ABI) error {
	hash := sha256.Sum256(source)

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.lookup(address)
	switch {
	case err == nil && existing.Hash == hash:
		m.contracts[address] = existing
		return nil
	case err == nil:
		return fmt.Errorf("%w: %s", ErrContractExists, address)
	case !errors.Is(err, core.ErrContractNotFound):
		return err
	}

	code := &ContractCode{
		Address:    address,
		Source:     bytes.Clone(source),
		ABI:        contractABI,
		UpdateTime: time.Now(),
		Hash:       hash,
	}
	if m.rootDir != "" {
		if err := m.saveContractFiles(code); err != nil {
			os.RemoveAll(m.getContractDir(address))
			return fmt.Errorf("failed to save contract files: %w", err)
		}
	}
	m.contracts[address] = code
	return nil
}

// GetCode returns the contract stored at address
func (m *Manager) GetCode(address core.Address) (*ContractCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lookup(address)
}

// GetABI returns the ABI of the contract stored at address
func (m *Manager) GetABI(address core.Address) (*abi.ABI, error) {
	code, err := m.GetCode(address)
	if err != nil {
		return nil, err
	}
	return code.ABI, nil
}

// lookup must be called with m.mu held
func (m *Manager) lookup(address core.Address) (*ContractCode, error) {
	if code, ok := m.contracts[address]; ok {
		return code, nil
	}
	if m.rootDir == "" {
		return nil, fmt.Errorf("%w: %s", core.ErrContractNotFound, address)
	}
	return m.loadContractCode(address)
}

func (m *Manager) getContractDir(address core.Address) string {
	return filepath.Join(m.rootDir, address.String())
}

func (m *Manager) saveContractFiles(code *ContractCode) error {
	dir := m.getContractDir(code.Address)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create contract directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "source.go.txt"), code.Source, 0644); err != nil {
		return fmt.Errorf("failed to save source: %w", err)
	}

	abiBytes, err := json.MarshalIndent(code.ABI, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ABI: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "abi.json"), abiBytes, 0644); err != nil {
		return fmt.Errorf("failed to save ABI: %w", err)
	}

	metadata := ContractMetadata{
		Hash:       hex.EncodeToString(code.Hash[:]),
		UpdateTime: code.UpdateTime,
	}
	if code.ABI != nil {
		metadata.Package = code.ABI.PackageName
	}
	metadataBytes, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), metadataBytes, 0644); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	return nil
}

func (m *Manager) loadContractCode(address core.Address) (*ContractCode, error) {
	dir := m.getContractDir(address)

	source, err := os.ReadFile(filepath.Join(dir, "source.go.txt"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrContractNotFound, address)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}

	abiBytes, err := os.ReadFile(filepath.Join(dir, "abi.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read ABI: %w", err)
	}
	var contractABI abi.ABI
	if err := json.Unmarshal(abiBytes, &contractABI); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ABI: %w", err)
	}

	metadataBytes, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var metadata ContractMetadata
	if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &ContractCode{
		Address:    address,
		Source:     source,
		ABI:        &contractABI,
		UpdateTime: metadata.UpdateTime,
		Hash:       sha256.Sum256(source),
	}, nil
}
