package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"EPESPO-inventario/internal/platform/config"
	"EPESPO-inventario/internal/platform/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "inventario",
	Short:        "EPESPO custody gateway",
	Long:         `Gateway between inventory operators and the EPESPO inventory backend: custody checks, multi-category submissions and actas.`,
	SilenceUsage: true,
}

// Execute is called by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(custodiaCmd)
}

// load reads the config and builds the logger every command uses.
func load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.Mode, cfg.Log.Level), nil
}
