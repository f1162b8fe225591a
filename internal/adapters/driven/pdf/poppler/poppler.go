// Package poppler provides a PDF engine backed by the poppler command
// line tools (pdftotext, pdftoppm, pdfinfo), with pdfcpu handling
// validation and page counting in-process.
package poppler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.PDFEngine = (*Engine)(nil)

// Engine opens PDF documents for page-level extraction.
type Engine struct {
	runner driven.CommandRunner
}

// NewEngine creates a poppler-backed PDF engine.
func NewEngine(runner driven.CommandRunner) *Engine {
	return &Engine{runner: runner}
}

// Open validates the file and reads its page count. A file pdfcpu
// rejects is reported as unreadable before any page work starts.
func (e *Engine) Open(_ context.Context, path string) (driven.PDFDocument, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("counting pages of %s: %w", path, err)
	}

	return &document{
		path:      path,
		pageCount: pageCount,
		runner:    e.runner,
	}, nil
}

// document is one open PDF file.
type document struct {
	path      string
	pageCount int
	runner    driven.CommandRunner
}

// PageCount returns the number of pages.
func (d *document) PageCount() int {
	return d.pageCount
}

// PageText extracts the native text layer of one page (1-based).
func (d *document) PageText(ctx context.Context, page int) (string, error) {
	if page < 1 || page > d.pageCount {
		return "", fmt.Errorf("page %d out of range 1..%d", page, d.pageCount)
	}

	p := strconv.Itoa(page)
	out, err := d.runner.Run(ctx, "pdftotext", "-f", p, "-l", p, d.path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext page %d: %w", page, err)
	}
	return string(out), nil
}

// RenderPage rasterises one page to PNG at the given zoom factor.
// Poppler's base resolution is 72 DPI, so zoom 2.0 renders at 144 DPI.
func (d *document) RenderPage(ctx context.Context, page int, zoom float64) ([]byte, error) {
	if page < 1 || page > d.pageCount {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, d.pageCount)
	}
	if zoom <= 0 {
		zoom = 1.0
	}

	p := strconv.Itoa(page)
	dpi := strconv.Itoa(int(72 * zoom))
	// With no output root pdftoppm writes the single page to stdout.
	out, err := d.runner.Run(ctx, "pdftoppm", "-png", "-f", p, "-l", p, "-r", dpi, d.path)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w", page, err)
	}
	return out, nil
}

// Info reads document metadata from pdfinfo output.
func (d *document) Info(ctx context.Context) (driven.PDFInfo, error) {
	out, err := d.runner.Run(ctx, "pdfinfo", d.path)
	if err != nil {
		return driven.PDFInfo{}, fmt.Errorf("pdfinfo: %w", err)
	}

	var info driven.PDFInfo
	for _, line := range strings.Split(string(out), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Title":
			info.Title = value
		case "Author":
			info.Author = value
		}
	}
	return info, nil
}

// Close releases resources.
func (d *document) Close() error {
	return nil
}
