package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "greeter-cli",
	Short: "Greeter contract command line tool",
	Long: `Greeter contract command line tool for calling the hello contract,
inspecting its ABI and reading recorded call receipts.`,
	SilenceUsage: true,
}

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Engine config file (YAML)")
	rootCmd.AddCommand(helloCmd)
	rootCmd.AddCommand(abiCmd)
	rootCmd.AddCommand(receiptsCmd)
	rootCmd.AddCommand(genHandlersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
