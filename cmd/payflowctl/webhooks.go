package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"payflow/internal/database"
	"payflow/internal/repository"
	"payflow/internal/service"
)

var webhooksMerchant string

var webhooksCmd = &cobra.Command{
	Use:   "webhooks",
	Short: "Manage webhook deliveries",
}

var webhooksRetryCmd = &cobra.Command{
	Use:   "retry [log-id]",
	Short: "Schedule a fresh delivery of a webhook log",
	Long: `Reset a webhook log to pending and enqueue an immediate delivery.

Examples:
  payflowctl webhooks retry 3f1c... --merchant 550e8400-e29b-41d4-a716-446655440000`,
	Args: cobra.ExactArgs(1),
	RunE: runWebhooksRetry,
}

func init() {
	webhooksRetryCmd.Flags().StringVarP(&webhooksMerchant, "merchant", "m", database.TestMerchantID, "merchant that owns the log")
	webhooksCmd.AddCommand(webhooksRetryCmd)
}

func runWebhooksRetry(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	svc := service.NewWebhookService(e.db, e.q, repository.NewWebhookLogRepository(e.db), e.log)
	l, err := svc.Retry(cmd.Context(), webhooksMerchant, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "webhook %s (%s) scheduled\n", l.ID, l.Event)
	return nil
}
