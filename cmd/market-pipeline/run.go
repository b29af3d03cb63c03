package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vlad-ds/market-data-pipeline/internal/fetch"
	"github.com/vlad-ds/market-data-pipeline/internal/openalex"
	"github.com/vlad-ds/market-data-pipeline/internal/pipeline"
	"github.com/vlad-ds/market-data-pipeline/pkg/types"
)

const (
	defaultDays      = 3
	defaultBatchSize = 100
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "market-pipeline/0.1"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full ingestion pipeline",
	Long: `Run fetches recent AI papers from OpenAlex for the lookback window,
stages a backup snapshot, upserts the papers into the database in batches,
and runs the quality checks. Already-stored papers are skipped.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().Int("days", defaultDays, "lookback window in days")
	runCmd.Flags().Int("batch-size", defaultBatchSize, "records committed per transaction")
	runCmd.Flags().Bool("force", false, "drop and recreate the papers table")
	runCmd.Flags().Bool("skip-validation", false, "skip the post-load quality checks")
	runCmd.Flags().String("staging-dir", "temp", "directory for backup snapshots")
	runCmd.Flags().String("reports-dir", "reports", "directory for quality reports")
	runCmd.Flags().String("backup-format", "json", "snapshot serialization: json or yaml")
	runCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	if !cmd.Flags().Changed("days") && viper.IsSet("fetch.days") {
		days = viper.GetInt("fetch.days")
	}
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	if !cmd.Flags().Changed("batch-size") && viper.IsSet("store.batch_size") {
		batchSize = viper.GetInt("store.batch_size")
	}
	force, _ := cmd.Flags().GetBool("force")
	skipValidation, _ := cmd.Flags().GetBool("skip-validation")
	stagingDir, _ := cmd.Flags().GetString("staging-dir")
	reportsDir, _ := cmd.Flags().GetString("reports-dir")
	backupFormat, _ := cmd.Flags().GetString("backup-format")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	opts := pipeline.Options{
		Fetch: types.FetchConfig{Days: days},
		Store: types.StoreConfig{
			DSN:       resolveDSN(cmd),
			BatchSize: batchSize,
		},
		Artifacts: types.ArtifactConfig{
			StagingDir:   stagingDir,
			ReportsDir:   reportsDir,
			BackupFormat: backupFormat,
		},
		Force:          force,
		SkipValidation: skipValidation,
	}

	client := openalex.NewClient(types.SourceConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		Email: creds.OpenAlexEmail,
	})

	_, err := pipeline.Run(context.Background(), fetch.Client{Client: client}, opts, os.Stdout)
	return err
}
