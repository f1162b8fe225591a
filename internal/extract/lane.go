// Package extract converts file bytes into plain text. Plain text and
// code are read directly; PDFs are extracted page by page with a
// per-page OCR fallback when the native text layer is too sparse.
package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
	"github.com/custodia-labs/librarian/internal/logger"
)

// Defaults for the OCR trigger heuristic.
const (
	// DefaultMinCharsPerPage is the native-text character count below
	// which a page is re-extracted via OCR.
	DefaultMinCharsPerPage = 200

	// DefaultOCRZoom is the render zoom factor for OCR input.
	DefaultOCRZoom = 2.0
)

// Config tunes the OCR fallback heuristic.
type Config struct {
	// MinCharsPerPage triggers OCR for pages whose native text, with
	// whitespace stripped, is shorter than this.
	MinCharsPerPage int

	// OCRZoom is the page render zoom factor passed to the PDF engine.
	OCRZoom float64
}

// Ensure Lane implements the interface.
var _ driven.Extractor = (*Lane)(nil)

// Lane dispatches extraction by content class. The OCR service is
// optional; without it sparse PDF pages keep their native text.
type Lane struct {
	pdf driven.PDFEngine
	ocr driven.OCRService
	cfg Config
}

// NewLane creates an extraction lane.
func NewLane(pdf driven.PDFEngine, ocr driven.OCRService, cfg Config) *Lane {
	if cfg.MinCharsPerPage <= 0 {
		cfg.MinCharsPerPage = DefaultMinCharsPerPage
	}
	if cfg.OCRZoom <= 0 {
		cfg.OCRZoom = DefaultOCRZoom
	}
	return &Lane{pdf: pdf, ocr: ocr, cfg: cfg}
}

// Extract converts one file into text plus extraction metadata.
func (l *Lane) Extract(ctx context.Context, path string, class domain.ContentClass) (*driven.ExtractResult, error) {
	switch class {
	case domain.ClassText, domain.ClassCode:
		return l.extractPlain(path)
	case domain.ClassPDF:
		return l.extractPDF(ctx, path)
	default:
		return nil, fmt.Errorf("%w: content class %q", domain.ErrUnsupportedType, class)
	}
}

// extractPlain reads the file bytes as UTF-8 text. No fallback.
func (l *Lane) extractPlain(path string) (*driven.ExtractResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &driven.ExtractResult{
		Text:     string(data),
		Metadata: map[string]any{"source_type": "plain"},
	}, nil
}

// extractPDF walks the document page by page. Native extraction runs
// first; a page whose stripped text falls below the threshold is
// re-rendered and recognised via OCR, and the OCR text replaces the
// native result for that page only. Partial OCR is not a failure.
func (l *Lane) extractPDF(ctx context.Context, path string) (*driven.ExtractResult, error) {
	doc, err := l.pdf.Open(ctx, path)
	if err != nil {
		return nil, domain.Permanent(fmt.Errorf("open pdf %s: %w", path, err))
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	pages := make([]string, 0, pageCount)
	var ocrPages []int

	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := doc.PageText(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("page %d of %s: %w", page, path, err)
		}

		if l.ocr != nil && strippedLen(text) < l.cfg.MinCharsPerPage {
			logger.Info("Page %d/%d has low text count, attempting OCR", page, pageCount)
			if ocrText, ok := l.ocrPage(ctx, doc, page); ok {
				text = ocrText
				ocrPages = append(ocrPages, page)
			}
		}

		pages = append(pages, text)
	}

	metadata := map[string]any{
		"source_type":    "pdf",
		"page_count":     pageCount,
		"ocr_applied":    len(ocrPages) > 0,
		"ocr_page_count": len(ocrPages),
		"ocr_pages":      ocrPages,
	}

	// Document-level metadata comes from the native layer when present.
	if info, err := doc.Info(ctx); err == nil {
		if info.Title != "" {
			metadata["title"] = info.Title
		}
		if info.Author != "" {
			metadata["author"] = info.Author
		}
	}

	return &driven.ExtractResult{
		Text:     strings.Join(pages, "\f"),
		Metadata: metadata,
	}, nil
}

// ocrPage renders one page and runs OCR. OCR failure is non-fatal: the
// native text stands.
func (l *Lane) ocrPage(ctx context.Context, doc driven.PDFDocument, page int) (string, bool) {
	image, err := doc.RenderPage(ctx, page, l.cfg.OCRZoom)
	if err != nil {
		logger.Warn("Render failed for page %d: %v", page, err)
		return "", false
	}

	text, err := l.ocr.Recognise(ctx, image)
	if err != nil {
		logger.Warn("OCR failed for page %d: %v", page, err)
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	logger.Info("OCR extracted %d chars from page %d", len(text), page)
	return text, true
}

// strippedLen counts characters excluding all whitespace.
func strippedLen(text string) int {
	n := 0
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
		default:
			n++
		}
	}
	return n
}
