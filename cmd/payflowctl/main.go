// Command payflowctl runs maintenance tasks against the payflow database.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"payflow/config"
	"payflow/internal/database"
	"payflow/internal/logger"
	"payflow/internal/queue"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "payflowctl",
	Short:         "payflowctl - operate the payflow queue and database",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(webhooksCmd)
	rootCmd.AddCommand(idempotencyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type env struct {
	cfg *config.Config
	log *logrus.Logger
	db  *gorm.DB
	q   *queue.Queue
}

func openEnv() (*env, error) {
	cfg := config.Load()
	log := logger.New(cfg)
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &env{cfg: cfg, log: log, db: db, q: queue.New(db, log, cfg.Queue)}, nil
}
