package chunkers

import (
	"fmt"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Builder creates a chunker from per-corpus chunking config.
type Builder func(cfg domain.ChunkingConfig) driven.Chunker

// Registry maps strategies to builders. Strategies are resolved once
// per corpus/content-class pair.
type Registry struct {
	builders map[domain.ChunkStrategy]Builder
}

// NewRegistry creates a registry with all built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[domain.ChunkStrategy]Builder)}
	r.Register(domain.StrategySection, buildSection)
	r.Register(domain.StrategySymbols, buildSymbols)
	r.Register(domain.StrategyRecursive, buildRecursive)
	return r
}

// Register adds a strategy builder.
func (r *Registry) Register(strategy domain.ChunkStrategy, builder Builder) {
	r.builders[strategy] = builder
}

// ForCorpus resolves the chunker for a corpus and content class. An
// explicit corpus strategy wins; otherwise code uses symbol splitting
// and everything else uses section packing.
func (r *Registry) ForCorpus(corpus *domain.Corpus, class domain.ContentClass) (driven.Chunker, error) {
	strategy := corpus.Chunking.Strategy
	if strategy == "" {
		if class == domain.ClassCode {
			strategy = domain.StrategySymbols
		} else {
			strategy = domain.StrategySection
		}
	}

	builder, ok := r.builders[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: chunk strategy %q", domain.ErrUnsupportedType, strategy)
	}
	return builder(corpus.Chunking), nil
}

func buildSection(cfg domain.ChunkingConfig) driven.Chunker {
	var opts []SectionOption
	if cfg.MaxTokens > 0 {
		opts = append(opts, WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.OverlapTokens > 0 {
		opts = append(opts, WithOverlapTokens(cfg.OverlapTokens))
	}
	return NewSection(opts...)
}

func buildSymbols(cfg domain.ChunkingConfig) driven.Chunker {
	var opts []SymbolOption
	if cfg.MaxTokens > 0 {
		opts = append(opts, WithSymbolMaxTokens(cfg.MaxTokens))
	}
	if cfg.MinSymbolChars > 0 {
		opts = append(opts, WithMinSymbolChars(cfg.MinSymbolChars))
	}
	return NewSymbols(opts...)
}

func buildRecursive(cfg domain.ChunkingConfig) driven.Chunker {
	var opts []RecursiveOption
	if cfg.MaxTokens > 0 {
		opts = append(opts, WithRecursiveMaxTokens(cfg.MaxTokens))
	}
	return NewRecursive(opts...)
}
