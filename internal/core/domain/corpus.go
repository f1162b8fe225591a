package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// ChunkStrategy identifies a chunking strategy. Strategies are resolved
// once per corpus/content-class pair; each implements the same contract.
type ChunkStrategy string

const (
	// StrategySection packs paragraphs into token-budgeted chunks with a
	// trailing overlap. Suited to long-form documents.
	StrategySection ChunkStrategy = "section"

	// StrategySymbols splits source code on function/class boundaries.
	StrategySymbols ChunkStrategy = "symbols"

	// StrategyRecursive splits on decreasing granularity (blank line,
	// line, character count). Fallback for content with no structure.
	StrategyRecursive ChunkStrategy = "recursive"
)

// ChunkingConfig holds per-corpus chunking overrides. Zero values mean
// "use the strategy default".
type ChunkingConfig struct {
	Strategy       ChunkStrategy `yaml:"strategy"`
	MaxTokens      int           `yaml:"max_tokens"`
	OverlapTokens  int           `yaml:"overlap_tokens"`
	MinSymbolChars int           `yaml:"min_symbol_chars"`
}

// ModelRef names a provider/model pair for answer generation.
type ModelRef struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

// IsZero reports whether the reference is unset.
func (m ModelRef) IsZero() bool {
	return m.Provider == "" && m.Model == ""
}

// Corpus is a named, independently configured document collection.
// Corpora are owned by configuration and read-only to the pipeline.
type Corpus struct {
	// ID is the corpus identifier. Must satisfy ValidateCorpusID.
	ID string `yaml:"id"`

	// Description is a human-readable summary.
	Description string `yaml:"description"`

	// SourceDir is the directory scanned for documents.
	SourceDir string `yaml:"source_dir"`

	// Chunking holds chunking overrides for this corpus.
	Chunking ChunkingConfig `yaml:"chunking"`

	// Answer is the corpus-declared answering model, if any.
	Answer ModelRef `yaml:"answer"`

	// RetainOnMissing keeps file records at their prior status when the
	// file disappears from disk. When false, records are disabled.
	RetainOnMissing bool `yaml:"retain_on_missing"`

	// MaxRetries overrides the retry ceiling for failed files.
	// Zero means the pipeline default.
	MaxRetries int `yaml:"max_retries"`
}

// MaxCorpusIDLength bounds corpus identifiers.
const MaxCorpusIDLength = 64

var corpusIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateCorpusID rejects identifiers that are empty, too long, or
// contain anything outside [a-zA-Z0-9_-]. The character class also rules
// out path traversal since corpus ids name directories and collections.
func ValidateCorpusID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: corpus id is empty", ErrInvalidInput)
	}
	if len(id) > MaxCorpusIDLength {
		return fmt.Errorf("%w: corpus id exceeds %d characters", ErrInvalidInput, MaxCorpusIDLength)
	}
	if !corpusIDPattern.MatchString(id) {
		return fmt.Errorf("%w: corpus id must contain only alphanumerics, underscores, and hyphens", ErrInvalidInput)
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("%w: corpus id contains invalid path characters", ErrInvalidInput)
	}
	return nil
}
