package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	vmcontext "github.com/govm-net/greeter/context"
	_ "github.com/govm-net/greeter/context/db"
	"github.com/govm-net/greeter/contracts/hello"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/vm"
	"github.com/spf13/cobra"
)

var (
	helloName    string
	contextType  string
	dbPath       string
	senderAddr   string
	codeDir      string
	maxArenaPage uint32
	blockHeight  uint64
)

var helloCmd = &cobra.Command{
	Use:   "hello",
	Short: "Call the hello entry point",
	Long: `Deploy the hello contract and call its hello entry point.
Example: greeter-cli hello --name World --context db --db ./greeter.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, addr, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		ctx := engine.GetContext()
		now := time.Now()
		blockHash := core.Hash(sha256.Sum256([]byte(fmt.Sprintf("block-%d", blockHeight))))
		if err := ctx.SetBlockInfo(blockHeight, now.Unix(), blockHash); err != nil {
			return fmt.Errorf("failed to set block info: %w", err)
		}
		txHash := core.Hash(sha256.Sum256([]byte(fmt.Sprintf("%s-%s-%d", senderAddr, helloName, now.UnixNano()))))
		if err := ctx.SetTransactionInfo(txHash, core.AddressFromString(senderAddr), addr); err != nil {
			return fmt.Errorf("failed to set transaction info: %w", err)
		}

		result, err := engine.ExecuteContract(addr, "hello", helloName)
		if err != nil {
			return fmt.Errorf("failed to execute contract: %w", err)
		}

		var greeting []string
		if err := json.Unmarshal(result, &greeting); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
		out, err := json.Marshal(greeting)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// openEngine creates an engine from the config file and command flags and
// deploys the hello contract. Flags set on the command line win over the file.
func openEngine(cmd *cobra.Command) (*vm.Engine, core.Address, error) {
	config := vm.DefaultConfig()
	if configFile != "" {
		loaded, err := vm.LoadConfig(configFile)
		if err != nil {
			return nil, core.ZeroAddress, err
		}
		config = loaded
	}

	flags := cmd.Flags()
	if configFile == "" || flags.Changed("context") {
		config.ContextType = contextType
	}
	if configFile == "" || flags.Changed("code-dir") {
		config.CodeManagerDir = codeDir
	}
	if flags.Changed("max-pages") {
		config.MaxMemoryPages = maxArenaPage
	}
	if config.ContextType == string(vmcontext.DBContextType) && (config.ContextParams == nil || flags.Changed("db")) {
		config.ContextParams = map[string]any{"db_path": dbPath}
	}

	engine, err := vm.NewEngine(config)
	if err != nil {
		return nil, core.ZeroAddress, fmt.Errorf("failed to create engine: %w", err)
	}

	addr, err := engine.DeployContract(hello.Source, hello.Functions())
	if err != nil {
		engine.Close()
		return nil, core.ZeroAddress, fmt.Errorf("failed to deploy contract: %w", err)
	}
	return engine, addr, nil
}

func init() {
	helloCmd.Flags().StringVarP(&helloName, "name", "n", "", "Name to greet")
	helloCmd.Flags().StringVarP(&contextType, "context", "c", string(vmcontext.MemoryContextType), "Blockchain context type (memory or db)")
	helloCmd.Flags().StringVar(&dbPath, "db", "./greeter.db", "SQLite database path for the db context")
	helloCmd.Flags().StringVarP(&senderAddr, "sender", "s", "0x0000000000000000000000000000000000000001", "Sender address")
	helloCmd.Flags().StringVar(&codeDir, "code-dir", "", "Contract code directory, empty keeps code in memory")
	helloCmd.Flags().Uint64Var(&blockHeight, "height", 1, "Block height the call is recorded at")
	helloCmd.Flags().Uint32Var(&maxArenaPage, "max-pages", 0, "Arena page limit per call")
}
