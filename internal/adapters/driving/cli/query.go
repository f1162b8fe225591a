package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driving"
)

var (
	queryCorpus string
	queryModel  string
	queryTopK   int
	queryCite   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a question from an indexed corpus",
	Long: `Embeds the question, retrieves the most relevant excerpts from the
corpus collection, and asks the answering model to respond using only
those excerpts. Without --corpus the model answers from its own
knowledge.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryCorpus, "corpus", "c", "", "corpus to retrieve from")
	queryCmd.Flags().StringVarP(&queryModel, "model", "m", "", "answering model override (provider/model)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "maximum excerpts to retrieve")
	queryCmd.Flags().BoolVar(&queryCite, "citations", true, "print retrieved sources after the answer")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryEngine == nil {
		return errors.New("query service not configured")
	}

	result, err := queryEngine.Answer(context.Background(), driving.QueryRequest{
		CorpusID: queryCorpus,
		Query:    args[0],
		Model:    queryModel,
		TopK:     queryTopK,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	cmd.Println(result.Answer)

	if queryCite && len(result.Hits) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, hit := range result.Hits {
			name, _ := hit.Payload[domain.MetaFileName].(string)
			if name == "" {
				name = hit.ID
			}
			cmd.Printf("  %s (score %.3f)\n", name, hit.Score)
		}
	}
	return nil
}
