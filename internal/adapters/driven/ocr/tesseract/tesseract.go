// Package tesseract provides an OCR service backed by the tesseract
// command line tool.
package tesseract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// DefaultLanguage is the tesseract language pack used when none is set.
const DefaultLanguage = "eng"

// Ensure Service implements the interface.
var _ driven.OCRService = (*Service)(nil)

// Config holds configuration for the tesseract OCR service.
type Config struct {
	// Language is the tesseract language code (default: eng).
	Language string
}

// Service runs tesseract over rendered page images. Tesseract reads
// its input from a file, so each call writes the image to a temp file.
type Service struct {
	runner   driven.CommandRunner
	language string
}

// NewService creates a tesseract OCR service.
func NewService(runner driven.CommandRunner, cfg Config) *Service {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	return &Service{runner: runner, language: cfg.Language}
}

// Recognise extracts text from a PNG page image.
func (s *Service) Recognise(ctx context.Context, image []byte) (string, error) {
	dir, err := os.MkdirTemp("", "librarian-ocr-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "page.png")
	if err := os.WriteFile(path, image, 0o600); err != nil {
		return "", fmt.Errorf("writing page image: %w", err)
	}

	out, err := s.runner.Run(ctx, "tesseract", path, "stdout", "-l", s.language)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}
