package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/govm-net/greeter/abi"
	"github.com/govm-net/greeter/contracts/hello"
	"github.com/spf13/cobra"
)

var (
	abiSourceFile string
	abiJSON       bool
)

var abiCmd = &cobra.Command{
	Use:   "abi",
	Short: "Print a contract ABI",
	Long: `Print the ABI extracted from a contract source file.
Without --file the built-in hello contract is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		source := hello.Source
		if abiSourceFile != "" {
			code, err := os.ReadFile(abiSourceFile)
			if err != nil {
				return fmt.Errorf("failed to read source file: %w", err)
			}
			source = code
		}

		contractABI, err := abi.ExtractABI(source)
		if err != nil {
			return err
		}

		if !abiJSON {
			fmt.Fprint(cmd.OutOrStdout(), contractABI.String())
			return nil
		}
		out, err := json.MarshalIndent(contractABI, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal ABI: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	abiCmd.Flags().StringVarP(&abiSourceFile, "file", "f", "", "Contract source file")
	abiCmd.Flags().BoolVar(&abiJSON, "json", false, "Print the ABI as JSON")
}
