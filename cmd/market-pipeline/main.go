// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the market-pipeline CLI: ingestion
// of recent AI papers from OpenAlex into the papers database, plus the
// standalone schema, validation, and snapshot-import operations.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vlad-ds/market-data-pipeline/internal/env"
)

// version is set at build time via ldflags.
var version = "dev"

// creds holds credentials loaded from .env and the environment at startup.
var creds env.Credentials

// rootCmd is the base command for the market-pipeline CLI.
var rootCmd = &cobra.Command{
	Use:   "market-pipeline",
	Short: "Ingest recent AI papers from OpenAlex into the papers database",
	Long: `market-pipeline fetches recent Artificial Intelligence papers from the
OpenAlex API, normalizes them into a flat relational schema, upserts them
into the papers database in batches, and validates the stored data against
a fixed set of quality rules.

The run subcommand executes the whole pipeline; schema, validate, and
import expose the individual stages for recovery and inspection.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := env.Load(".env")
		if err != nil {
			return err
		}
		creds = c
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./market-pipeline.yaml or ~/.config/market-pipeline/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "database DSN: postgres:// URL or SQLite file path (default $DATABASE_URL, then papers.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("market-pipeline")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "market-pipeline"))
		}
	}

	viper.SetEnvPrefix("MARKET_PIPELINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// resolveDSN picks the store DSN: the --db flag, then DATABASE_URL, then
// the dsn config key, then a local SQLite file.
func resolveDSN(cmd *cobra.Command) string {
	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		return dsn
	}
	if creds.DatabaseURL != "" {
		return creds.DatabaseURL
	}
	if viper.IsSet("dsn") {
		return viper.GetString("dsn")
	}
	return "papers.db"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
