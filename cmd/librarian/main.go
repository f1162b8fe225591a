// Command librarian indexes document corpora and answers questions
// about them.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/librarian/internal/adapters/driven/command"
	"github.com/custodia-labs/librarian/internal/adapters/driven/config/file"
	ollamaembed "github.com/custodia-labs/librarian/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/librarian/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/librarian/internal/adapters/driven/embedding/ratelimited"
	"github.com/custodia-labs/librarian/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/librarian/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/librarian/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/librarian/internal/adapters/driven/ocr/tesseract"
	"github.com/custodia-labs/librarian/internal/adapters/driven/pdf/poppler"
	"github.com/custodia-labs/librarian/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/librarian/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/librarian/internal/adapters/driving/cli"
	"github.com/custodia-labs/librarian/internal/chunkers"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
	"github.com/custodia-labs/librarian/internal/core/services"
	"github.com/custodia-labs/librarian/internal/extract"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for API keys; absence is fine.
	_ = godotenv.Load()

	root, err := file.DefaultLibraryRoot()
	if err != nil {
		return err
	}
	settings, err := file.LoadSettings(root)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if settings.LibraryRoot != "" {
		root = settings.LibraryRoot
	}

	corpora := file.NewCorpusStore(root)

	store, err := sqlite.NewStore(filepath.Join(root, "data"))
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer store.Close()

	prefix := settings.Qdrant.Prefix
	if prefix == "" {
		prefix = "librarian"
	}
	qdrantURL := settings.Qdrant.URL
	if qdrantURL == "" {
		qdrantURL = "http://localhost:6333"
	}
	vectors := qdrant.NewStore(qdrant.Config{
		URL:    qdrantURL,
		APIKey: os.Getenv("QDRANT_API_KEY"),
		Prefix: prefix,
	})
	defer vectors.Close()

	embedder, err := buildEmbedder(settings)
	if err != nil {
		return err
	}
	defer embedder.Close()

	factory := generationFactory()
	generator, err := factory(settings.Answer.Provider, settings.Answer.Model, settings.Answer.BaseURL)
	if err != nil {
		return fmt.Errorf("configuring answering model: %w", err)
	}
	defer generator.Close()

	runner := command.NewExecRunner()
	var ocr driven.OCRService
	if settings.OCR.OCREnabled() {
		ocr = tesseract.NewService(runner, tesseract.Config{Language: settings.OCR.Language})
	}
	lane := extract.NewLane(poppler.NewEngine(runner), ocr, extract.Config{
		MinCharsPerPage: settings.OCR.MinCharsPerPage,
		OCRZoom:         settings.OCR.Zoom,
	})

	pipeline := services.NewPipeline(corpora, store, vectors, embedder, lane, chunkers.NewRegistry(), services.PipelineConfig{
		Workers:        settings.Ingest.Workers,
		MaxRetries:     settings.Ingest.MaxRetries,
		EmbedBatchSize: settings.Ingest.EmbedBatchSize,
	})
	engine := services.NewQueryEngine(corpora, embedder, vectors, generator, factory, settings.Answer.TopK)

	cli.Init(pipeline, engine, corpora)
	return cli.Execute()
}

// buildEmbedder constructs the configured embedding provider, wrapped
// with a rate limiter when one is configured.
func buildEmbedder(settings *file.Settings) (driven.EmbeddingService, error) {
	var (
		embedder driven.EmbeddingService
		err      error
	)
	switch settings.Embedding.Provider {
	case "openai":
		embedder, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    settings.Embedding.BaseURL,
			Model:      settings.Embedding.Model,
			Dimensions: settings.Embedding.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring embedding provider: %w", err)
		}
	case "", "ollama":
		embedder = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.Embedding.BaseURL,
			Model:      settings.Embedding.Model,
			Dimensions: settings.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", settings.Embedding.Provider)
	}

	if settings.Embedding.RateLimit > 0 {
		embedder = ratelimited.New(embedder, settings.Embedding.RateLimit)
	}
	return embedder, nil
}

// generationFactory builds generation services by provider name. The
// query engine uses it for corpus personas and per-request overrides.
func generationFactory() driven.GenerationFactory {
	return func(provider, model, baseURL string) (driven.GenerationService, error) {
		switch provider {
		case "", "ollama":
			return ollamallm.NewGenerationService(ollamallm.Config{
				BaseURL: baseURL,
				Model:   model,
			}), nil
		case "openai":
			return openaillm.NewGenerationService(openaillm.Config{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				BaseURL: baseURL,
				Model:   model,
			})
		case "anthropic":
			return anthropic.NewGenerationService(anthropic.Config{
				APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
				BaseURL: baseURL,
				Model:   model,
			})
		default:
			return nil, fmt.Errorf("unknown generation provider %q", provider)
		}
	}
}
