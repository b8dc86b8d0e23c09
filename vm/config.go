package vm

import (
	"fmt"
	"os"

	"github.com/govm-net/greeter/abi"
	vmcontext "github.com/govm-net/greeter/context"
	"github.com/govm-net/greeter/validator"
	"github.com/govm-net/greeter/wasi"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// Config represents engine configuration
type Config struct {
	MaxContractSize uint64         `yaml:"max_contract_size"` // Maximum contract source size
	MaxParamsSize   uint64         `yaml:"max_params_size"`   // Maximum size of JSON call params
	MaxMemoryPages  uint32         `yaml:"max_memory_pages"`  // Arena page limit per call
	CodeManagerDir  string         `yaml:"code_dir"`          // Code manager storage directory, empty keeps code in memory
	ContextType     string         `yaml:"context_type"`      // Blockchain context type
	ContextParams   map[string]any `yaml:"context_params"`    // Blockchain context parameters

	// Registerer receives the engine metrics; nil uses a private registry
	Registerer prometheus.Registerer `yaml:"-"`
}

// DefaultConfig returns an in-memory configuration
func DefaultConfig() *Config {
	return &Config{
		MaxContractSize: 1024 * 1024, // 1MB
		MaxParamsSize:   64 * 1024,
		MaxMemoryPages:  wasi.DefaultMaxPages,
		ContextType:     string(vmcontext.MemoryContextType),
	}
}

// LoadConfig reads a YAML config file. Keys it omits keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// validatorConfig limits contracts to the core package.
func validatorConfig(config *Config) validator.Config {
	return validator.Config{
		MaxCodeSize:    config.MaxContractSize,
		AllowedImports: []string{abi.CorePackage},
	}
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}
	if config.MaxContractSize == 0 {
		return fmt.Errorf("invalid max contract size: %d", config.MaxContractSize)
	}
	if config.MaxParamsSize == 0 {
		return fmt.Errorf("invalid max params size: %d", config.MaxParamsSize)
	}
	if config.MaxMemoryPages == 0 {
		return fmt.Errorf("invalid max memory pages: %d", config.MaxMemoryPages)
	}
	return nil
}
