package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

var ingestAll bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [corpus-id]",
	Short: "Ingest a corpus into its vector collection",
	Long: `Scans the corpus source directory, extracts and chunks new or
changed files, embeds the chunks, and upserts them into the corpus
collection. Files are identified by content hash, so unchanged and
renamed files are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestAll, "all", false, "ingest every configured corpus")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingest service not configured")
	}
	if len(args) == 0 && !ingestAll {
		return errors.New("specify a corpus id or pass --all")
	}

	ctx := context.Background()

	if ingestAll {
		cmd.Println("Ingesting all corpora...")
		summaries, err := ingestOrchestrator.RunAll(ctx)
		for id, summary := range summaries {
			printSummary(cmd, id, summary)
		}
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		return nil
	}

	corpusID := args[0]
	cmd.Printf("Ingesting corpus: %s...\n", corpusID)

	summary, err := ingestOrchestrator.RunOnce(ctx, corpusID)
	if err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			return fmt.Errorf("corpus %s is already being ingested", corpusID)
		}
		return fmt.Errorf("ingest failed: %w", err)
	}

	printSummary(cmd, corpusID, summary)
	return nil
}

func printSummary(cmd *cobra.Command, corpusID string, summary *domain.RunSummary) {
	cmd.Printf("%s: %d scanned, %d succeeded, %d failed, %d skipped\n",
		corpusID, summary.Scanned, summary.Succeeded, summary.Failed, summary.Skipped)
}
