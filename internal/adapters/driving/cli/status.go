package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [corpus-id]",
	Short: "Show the ingest state of a corpus",
	Long: `Reports file counts by status, files failed past the retry ceiling,
and the most recent ingest run for the corpus.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingest service not configured")
	}

	status, err := ingestOrchestrator.Status(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	cmd.Printf("Corpus: %s\n", status.CorpusID)
	if status.Running {
		cmd.Println("An ingest run is in progress.")
	}

	cmd.Println("Files:")
	order := []domain.FileStatus{
		domain.StatusPending,
		domain.StatusProcessing,
		domain.StatusSuccess,
		domain.StatusFailed,
		domain.StatusDisabled,
	}
	for _, st := range order {
		if n := status.Counts[st]; n > 0 {
			cmd.Printf("  %-12s %d\n", st, n)
		}
	}
	if len(status.Counts) == 0 {
		cmd.Println("  none")
	}

	if len(status.DeadLetters) > 0 {
		cmd.Println("Dead letters:")
		for _, rec := range status.DeadLetters {
			cmd.Printf("  %s (%d failures): %s\n", rec.Path, rec.FailureCount, rec.LastError)
		}
	}

	if job := status.LastJob; job != nil {
		cmd.Printf("Last run: %s at %s (%d succeeded, %d failed, %d skipped)\n",
			job.Status, job.StartedAt.Format("2006-01-02 15:04:05"),
			job.Summary.Succeeded, job.Summary.Failed, job.Summary.Skipped)
	}
	return nil
}
