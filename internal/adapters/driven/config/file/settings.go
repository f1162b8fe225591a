package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Settings is the application configuration loaded from config.toml.
// Zero values fall back to the documented defaults.
type Settings struct {
	// LibraryRoot is the directory holding corpora and the state db.
	// Defaults to ~/.librarian.
	LibraryRoot string `toml:"library_root"`

	Ingest    IngestSettings    `toml:"ingest"`
	Embedding EmbeddingSettings `toml:"embedding"`
	Answer    AnswerSettings    `toml:"answer"`
	Qdrant    QdrantSettings    `toml:"qdrant"`
	OCR       OCRSettings       `toml:"ocr"`
}

// IngestSettings tunes the pipeline.
type IngestSettings struct {
	// Workers bounds parallel file processing (default 4).
	Workers int `toml:"workers"`

	// MaxRetries is the failure ceiling before a file becomes a dead
	// letter (default 3).
	MaxRetries int `toml:"max_retries"`

	// EmbedBatchSize bounds texts per embedding request (default 32).
	EmbedBatchSize int `toml:"embed_batch_size"`
}

// EmbeddingSettings selects the embedding provider.
type EmbeddingSettings struct {
	// Provider is "ollama" or "openai" (default ollama).
	Provider string `toml:"provider"`

	Model      string  `toml:"model"`
	BaseURL    string  `toml:"base_url"`
	Dimensions int     `toml:"dimensions"`
	RateLimit  float64 `toml:"rate_limit"`
}

// AnswerSettings selects the default answering model.
type AnswerSettings struct {
	// Provider is "ollama", "openai", or "anthropic" (default ollama).
	Provider string `toml:"provider"`

	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`

	// TopK is the default retrieval depth (default 5).
	TopK int `toml:"top_k"`
}

// QdrantSettings points at the vector store.
type QdrantSettings struct {
	// URL defaults to http://localhost:6333.
	URL string `toml:"url"`

	// Prefix namespaces collection names (default "librarian").
	Prefix string `toml:"prefix"`
}

// OCRSettings tunes the PDF extraction fallback.
type OCRSettings struct {
	// Enabled turns the OCR fallback on (default true).
	Enabled *bool `toml:"enabled"`

	// MinCharsPerPage is the native-text threshold (default 200).
	MinCharsPerPage int `toml:"min_chars_per_page"`

	// Zoom is the render zoom factor (default 2.0).
	Zoom float64 `toml:"zoom"`

	// Language is the tesseract language code (default eng).
	Language string `toml:"language"`
}

// OCREnabled reports whether the OCR fallback is on.
func (o OCRSettings) OCREnabled() bool {
	return o.Enabled == nil || *o.Enabled
}

// DefaultLibraryRoot returns ~/.librarian.
func DefaultLibraryRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".librarian"), nil
}

// LoadSettings reads config.toml from the given directory. A missing
// file yields zero-valued settings; every consumer applies defaults.
// If configDir is empty the default library root is used.
func LoadSettings(configDir string) (*Settings, error) {
	if configDir == "" {
		root, err := DefaultLibraryRoot()
		if err != nil {
			return nil, err
		}
		configDir = root
	}

	settings := &Settings{}
	path := filepath.Join(configDir, "config.toml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			settings.LibraryRoot = configDir
			return settings, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if settings.LibraryRoot == "" {
		settings.LibraryRoot = configDir
	}
	return settings, nil
}

// SaveSettings writes config.toml to the given directory, creating it
// if needed.
func SaveSettings(configDir string, settings *Settings) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
