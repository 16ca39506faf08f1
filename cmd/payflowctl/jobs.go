package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"payflow/internal/domain"
)

var (
	jobsStatus string
	jobsLimit  int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and retry queued jobs",
}

var jobsCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show job counts per topic",
	Args:  cobra.NoArgs,
	RunE:  runJobsCounts,
}

var jobsListCmd = &cobra.Command{
	Use:   "list [topic]",
	Short: "List recent jobs of a topic",
	Long: `List recent jobs of a topic, newest first.

Examples:
  payflowctl jobs list payment
  payflowctl jobs list webhook --status failed -n 50`,
	Args: cobra.ExactArgs(1),
	RunE: runJobsList,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show [job-id]",
	Short: "Print one job as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

var jobsRetryCmd = &cobra.Command{
	Use:   "retry [job-id]",
	Short: "Move a failed job back to waiting",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsRetry,
}

func init() {
	jobsListCmd.Flags().StringVarP(&jobsStatus, "status", "s", "", "filter by status (waiting, active, completed, failed)")
	jobsListCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 20, "maximum jobs to show")

	jobsCmd.AddCommand(jobsCountsCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	jobsCmd.AddCommand(jobsRetryCmd)
}

func runJobsCounts(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOPIC\tWAITING\tDELAYED\tACTIVE\tCOMPLETED\tFAILED")
	for _, topic := range []string{domain.TopicPayment, domain.TopicRefund, domain.TopicWebhook} {
		c, err := e.q.Counts(cmd.Context(), topic)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n", topic, c.Waiting, c.Delayed, c.Active, c.Completed, c.Failed)
	}
	return w.Flush()
}

func runJobsList(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	jobs, err := e.q.List(cmd.Context(), args[0], jobsStatus, jobsLimit)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tATTEMPTS\tRUN AT\tLAST ERROR")
	for _, j := range jobs {
		lastErr := ""
		if j.LastError != nil {
			lastErr = *j.LastError
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\n", j.ID, j.Status, j.Attempts, j.MaxAttempts, j.RunAt.Format("2006-01-02 15:04:05"), lastErr)
	}
	return w.Flush()
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	job, err := e.q.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("show job %s: %w", args[0], err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(job)
}

func runJobsRetry(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	if err := e.q.Retry(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("retry job %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "job %s queued\n", args[0])
	return nil
}
