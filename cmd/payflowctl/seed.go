package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"payflow/internal/database"
)

var seedWebhookURL string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the test merchant if it does not exist",
	Long: `Insert the test merchant used for local development.

Examples:
  payflowctl seed
  payflowctl seed --webhook-url http://localhost:4000/webhook`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedWebhookURL, "webhook-url", "", "webhook url for the test merchant")
}

func runSeed(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(e.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	m, err := database.SeedTestMerchant(e.db, seedWebhookURL)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "merchant %s (%s) api_key=%s\n", m.ID, m.Email, m.APIKey)
	return nil
}
