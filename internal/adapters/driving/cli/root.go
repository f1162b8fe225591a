// Package cli provides the librarian command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/librarian/internal/core/ports/driven"
	"github.com/custodia-labs/librarian/internal/core/ports/driving"
	"github.com/custodia-labs/librarian/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired in by main before Execute.
var (
	ingestOrchestrator driving.IngestOrchestrator
	queryEngine        driving.QueryEngine
	corpusStore        driven.CorpusStore
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "librarian",
	Short: "Index document corpora and answer questions about them",
	Long: `librarian ingests directories of documents into per-corpus vector
collections and answers questions grounded in the retrieved excerpts.

Start by registering a corpus, then ingest and query it:

  librarian corpus add handbook --source ~/docs/handbook
  librarian ingest handbook
  librarian query --corpus handbook "How do expenses work?"`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Init wires the driving services into the command tree.
func Init(
	ingest driving.IngestOrchestrator,
	query driving.QueryEngine,
	corpora driven.CorpusStore,
) {
	ingestOrchestrator = ingest
	queryEngine = query
	corpusStore = corpora
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
