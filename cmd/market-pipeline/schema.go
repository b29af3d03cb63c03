package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vlad-ds/market-data-pipeline/internal/store"
	"github.com/vlad-ds/market-data-pipeline/pkg/types"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the papers table (create, describe, status)",
}

var schemaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the papers table and its indexes",
	Long: `Create makes the papers table and its six secondary indexes. The
operation is idempotent; --force drops and recreates the table, discarding
all stored papers.`,
	RunE: runSchemaCreate,
}

var schemaDescribeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the ordered column descriptors of the papers table",
	RunE:  runSchemaDescribe,
}

var schemaStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the papers table exists",
	RunE:  runSchemaStatus,
}

func init() {
	schemaCreateCmd.Flags().Bool("force", false, "drop and recreate the papers table")

	schemaCmd.AddCommand(schemaCreateCmd)
	schemaCmd.AddCommand(schemaDescribeCmd)
	schemaCmd.AddCommand(schemaStatusCmd)
	rootCmd.AddCommand(schemaCmd)
}

func openStore(cmd *cobra.Command, ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, types.StoreConfig{DSN: resolveDSN(cmd)}, os.Stdout)
}

func runSchemaCreate(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	ctx := context.Background()
	st, err := openStore(cmd, ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	return st.EnsureSchema(ctx, force, os.Stdout)
}

func runSchemaDescribe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(cmd, ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	cols, err := st.DescribeSchema(ctx)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("papers table does not exist")
	}

	fmt.Printf("%-35s %-20s %s\n", "COLUMN", "TYPE", "NULLABLE")
	for _, c := range cols {
		nullable := "no"
		if c.Nullable {
			nullable = "yes"
		}
		fmt.Printf("%-35s %-20s %s\n", c.Name, c.Type, nullable)
	}
	fmt.Printf("\n%d columns\n", len(cols))
	return nil
}

func runSchemaStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(cmd, ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	exists, err := st.TableExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		fmt.Println("papers table exists")
	} else {
		fmt.Println("papers table does not exist")
	}
	return nil
}
