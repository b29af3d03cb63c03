package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vlad-ds/market-data-pipeline/internal/backup"
	"github.com/vlad-ds/market-data-pipeline/internal/store"
	"github.com/vlad-ds/market-data-pipeline/pkg/types"
)

var importCmd = &cobra.Command{
	Use:   "import [snapshot file]",
	Short: "Replay a staged backup snapshot into the database",
	Long: `Import reads a snapshot previously written to the staging directory
and upserts its papers, recovering a run whose upload step failed. Papers
already stored are skipped unless --refresh is set, in which case their
volatile metrics (citation counts, derived counts, titles) are updated in
place while provenance fields keep their first-written values.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Int("batch-size", defaultBatchSize, "records committed per transaction")
	importCmd.Flags().Bool("refresh", false, "update volatile metrics of already-stored papers")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	refresh, _ := cmd.Flags().GetBool("refresh")

	snap, err := backup.Read(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("loaded %d papers from snapshot (run %s, %s to %s)\n",
		len(snap.Papers), snap.Metadata.RunID, snap.Metadata.DateFrom, snap.Metadata.DateTo)

	ctx := context.Background()
	st, err := store.Open(ctx, types.StoreConfig{DSN: resolveDSN(cmd)}, os.Stdout)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx, false, os.Stdout); err != nil {
		return err
	}

	records := make([]*types.PaperRecord, len(snap.Papers))
	for i := range snap.Papers {
		records[i] = &snap.Papers[i]
	}

	if refresh {
		return refreshRecords(ctx, st, records)
	}

	stats, err := st.UpsertAll(ctx, records, batchSize, os.Stdout)
	if err != nil {
		return err
	}
	if stats.Errors > 0 {
		return fmt.Errorf("%d record(s) failed import", stats.Errors)
	}
	return nil
}

// refreshRecords force-writes every record through the conflict branch so
// volatile metrics are updated for papers that already exist.
func refreshRecords(ctx context.Context, st *store.Store, records []*types.PaperRecord) error {
	failed := 0
	for _, rec := range records {
		if err := st.Reupsert(ctx, rec); err != nil {
			fmt.Fprintf(os.Stdout, "error: refreshing %s: %v\n", rec.ID, err)
			failed++
		}
	}
	fmt.Printf("refreshed %d papers, %d failed\n", len(records)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d record(s) failed refresh", failed)
	}
	return nil
}
