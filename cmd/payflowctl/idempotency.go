package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"payflow/internal/idempotency"
)

var idempotencyCmd = &cobra.Command{
	Use:   "idempotency",
	Short: "Manage stored Idempotency-Key responses",
}

var idempotencyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every expired idempotency record",
	Args: cobra.NoArgs,
	RunE: runIdempotencyPurge,
}

func init() {
	idempotencyCmd.AddCommand(idempotencyPurgeCmd)
}

func runIdempotencyPurge(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	n, err := idempotency.NewGuard(e.db, e.q.Now).PurgeExpired(cmd.Context())
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired keys\n", n)
	return nil
}
