package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

var (
	corpusSource      string
	corpusDescription string
	corpusStrategy    string
	corpusRetain      bool
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage corpora",
	Long:  `List and register document corpora.`,
	RunE:  runCorpusList,
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured corpora",
	RunE:  runCorpusList,
}

var corpusAddCmd = &cobra.Command{
	Use:   "add [corpus-id]",
	Short: "Register a corpus",
	Long: `Registers a corpus by writing its definition under the library
root. The source directory defaults to the corpus's own source/
subdirectory when --source is not given.`,
	Args: cobra.ExactArgs(1),
	RunE: runCorpusAdd,
}

func init() {
	corpusAddCmd.Flags().StringVarP(&corpusSource, "source", "s", "", "directory scanned for documents")
	corpusAddCmd.Flags().StringVarP(&corpusDescription, "description", "d", "", "human-readable summary")
	corpusAddCmd.Flags().StringVar(&corpusStrategy, "strategy", "", "chunking strategy (section, symbols, recursive)")
	corpusAddCmd.Flags().BoolVar(&corpusRetain, "retain-on-missing", false, "keep records when files disappear from disk")

	corpusCmd.AddCommand(corpusListCmd)
	corpusCmd.AddCommand(corpusAddCmd)
	rootCmd.AddCommand(corpusCmd)
}

func runCorpusList(cmd *cobra.Command, _ []string) error {
	if corpusStore == nil {
		return errors.New("corpus store not configured")
	}

	corpora, err := corpusStore.List(context.Background())
	if err != nil {
		return fmt.Errorf("list corpora: %w", err)
	}
	if len(corpora) == 0 {
		cmd.Println("No corpora configured. Add one with: librarian corpus add <id> --source <dir>")
		return nil
	}

	for _, corpus := range corpora {
		cmd.Printf("%s\t%s\n", corpus.ID, corpus.SourceDir)
		if corpus.Description != "" {
			cmd.Printf("\t%s\n", corpus.Description)
		}
	}
	return nil
}

func runCorpusAdd(cmd *cobra.Command, args []string) error {
	if corpusStore == nil {
		return errors.New("corpus store not configured")
	}

	id := args[0]
	if err := domain.ValidateCorpusID(id); err != nil {
		return err
	}

	source := corpusSource
	if source != "" {
		abs, err := filepath.Abs(source)
		if err != nil {
			return fmt.Errorf("resolve source dir: %w", err)
		}
		source = abs
	}

	corpus := domain.Corpus{
		ID:          id,
		Description: corpusDescription,
		SourceDir:   source,
		Chunking: domain.ChunkingConfig{
			Strategy: domain.ChunkStrategy(corpusStrategy),
		},
		RetainOnMissing: corpusRetain,
	}
	if err := corpusStore.Save(context.Background(), corpus); err != nil {
		return fmt.Errorf("save corpus: %w", err)
	}

	cmd.Printf("Corpus %s registered.\n", id)
	return nil
}
