package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/govm-net/greeter/abi"
	"github.com/spf13/cobra"
)

var genOutput string

var genHandlersCmd = &cobra.Command{
	Use:   "gen-handlers <source.go>",
	Short: "Generate entry point handlers for a contract",
	Long: `Generate the handlers file that decodes JSON params for each exported
function of a contract. The output defaults to <source>.handlers.go.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read source file: %w", err)
		}

		contractABI, err := abi.ExtractABI(source)
		if err != nil {
			return err
		}
		code, err := abi.GenerateHandlerFile(contractABI)
		if err != nil {
			return err
		}

		output := genOutput
		if output == "" {
			output = strings.TrimSuffix(args[0], ".go") + ".handlers.go"
		}
		if err := os.WriteFile(output, []byte(code), 0644); err != nil {
			return fmt.Errorf("failed to write handlers: %w", err)
		}
		slog.Info("handlers generated", "package", contractABI.PackageName, "functions", len(contractABI.Functions), "output", output)
		return nil
	},
}

func init() {
	genHandlersCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output file")
}
