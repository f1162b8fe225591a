package driven

import "context"

// PDFInfo is document-level metadata from the native layer.
type PDFInfo struct {
	Title  string
	Author string
}

// PDFDocument is an open PDF exposing per-page operations.
// Pages are 1-based.
type PDFDocument interface {
	// PageCount returns the number of pages.
	PageCount() int

	// PageText extracts the native text layer of one page.
	PageText(ctx context.Context, page int) (string, error)

	// RenderPage rasterises one page to a PNG image at the given zoom
	// factor (1.0 = 72 dpi).
	RenderPage(ctx context.Context, page int, zoom float64) ([]byte, error)

	// Info returns document metadata, if available.
	Info(ctx context.Context) (PDFInfo, error)

	// Close releases resources.
	Close() error
}

// PDFEngine opens PDF files for extraction.
type PDFEngine interface {
	// Open opens and validates a PDF. A structurally broken file is a
	// permanent per-file failure.
	Open(ctx context.Context, path string) (PDFDocument, error)
}

// OCRService recognises text in a rendered page image.
type OCRService interface {
	// Recognise runs OCR over a PNG image and returns the text.
	Recognise(ctx context.Context, image []byte) (string, error)
}

// CommandRunner executes an external command and returns its stdout.
// Adapters that shell out (poppler, tesseract) depend on this so tests
// can substitute a double.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
