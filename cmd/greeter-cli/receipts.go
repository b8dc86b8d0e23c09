package main

import (
	"fmt"

	vmcontext "github.com/govm-net/greeter/context"
	"github.com/govm-net/greeter/core"
	"github.com/spf13/cobra"
)

var (
	receiptsDB       string
	receiptsContract string
)

var receiptsCmd = &cobra.Command{
	Use:   "receipts",
	Short: "List recorded call receipts",
	Long: `List the call receipts stored in the db context.
Example: greeter-cli receipts --db ./greeter.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := vmcontext.Get(vmcontext.DBContextType, map[string]any{"db_path": receiptsDB})
		if err != nil {
			return fmt.Errorf("failed to open db context: %w", err)
		}
		if closer, ok := ctx.(interface{ Close() error }); ok {
			defer closer.Close()
		}

		receipts, err := ctx.Receipts(core.AddressFromString(receiptsContract))
		if err != nil {
			return fmt.Errorf("failed to load receipts: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, r := range receipts {
			status := "ok"
			if !r.Success {
				status = "reverted: " + r.Error
			}
			result := "-"
			if len(r.Result) > 0 {
				result = string(r.Result)
			}
			fmt.Fprintf(out, "%s height=%d %s.%s args=%s result=%s arena=%d %s\n",
				r.CreatedAt.Format("2006-01-02T15:04:05"), r.BlockHeight, r.Contract, r.Function,
				string(r.Args), result, r.ArenaBytes, status)
		}
		if len(receipts) == 0 {
			fmt.Fprintln(out, "no receipts")
		}
		return nil
	},
}

func init() {
	receiptsCmd.Flags().StringVar(&receiptsDB, "db", "./greeter.db", "SQLite database path")
	receiptsCmd.Flags().StringVar(&receiptsContract, "contract", "", "Only show receipts of this contract")
}
