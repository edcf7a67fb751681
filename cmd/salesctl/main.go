// Command salesctl inspects and maintains the order history shared by the
// storefront terminals.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/config"
	"github.com/example/cloudkitchen/pkg/dashboard"
	"github.com/example/cloudkitchen/pkg/orders"
	"github.com/example/cloudkitchen/pkg/repository"
)

var (
	configFile string
	verbose    bool

	cfg     *config.Config
	logger  *zap.Logger
	store   repository.Store
	history *orders.History
	dash    *dashboard.Dashboard

	// openStore is replaced in tests.
	openStore = repository.Open
)

var rootCmd = &cobra.Command{
	Use:   "salesctl",
	Short: "Inspect and maintain cloud kitchen sales data",
	Long: `salesctl reads the same order history as the storefront terminals.

Available commands:
  summary - Sales figures for a period
  list    - Orders in a period, newest first
  export  - Write a sales report file
  clear   - Delete every recorded order
  audit   - Show the audit trail of one order
  nodes   - List storefront instances and their health`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func init() {
	defaultConfig := os.Getenv("CK_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "config/config.yaml"
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfig, "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(summaryCmd, listCmd, exportCmd, clearCmd, auditCmd, nodesCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	logger = zap.NewNop()
	if verbose {
		lc := cfg.Log
		lc.OutputPaths = []string{"stderr"}
		if logger, err = lc.Build(); err != nil {
			return err
		}
	}

	store, err = openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	history = orders.NewHistory(store, cfg.Storage.Key(cfg.Storage.OrdersKey), logger)
	dash = dashboard.New(history, auditorFor(cmd), logger)
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if store != nil {
		store.Close()
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
