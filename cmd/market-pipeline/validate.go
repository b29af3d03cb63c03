package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vlad-ds/market-data-pipeline/internal/quality"
	"github.com/vlad-ds/market-data-pipeline/internal/store"
	"github.com/vlad-ds/market-data-pipeline/pkg/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the quality checks against the stored papers",
	Long: `Validate executes the four quality checks (required fields, citation
plausibility, score range, duplicates) against an existing papers table,
prints the report, and files it under the reports directory. No data is
ingested or modified.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("reports-dir", "reports", "directory for quality reports")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	reportsDir, _ := cmd.Flags().GetString("reports-dir")

	ctx := context.Background()
	st, err := store.Open(ctx, types.StoreConfig{DSN: resolveDSN(cmd)}, os.Stdout)
	if err != nil {
		return err
	}
	defer st.Close()

	exists, err := st.TableExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("papers table does not exist; run the pipeline or `schema create` first")
	}

	report := quality.NewValidator(st.DB()).RunAll(ctx, uuid.NewString(), os.Stdout)
	fmt.Println()
	fmt.Print(quality.Render(report))

	path, err := quality.WriteFile(report, reportsDir)
	if err != nil {
		return err
	}
	fmt.Printf("report saved to %s\n", path)
	return nil
}
