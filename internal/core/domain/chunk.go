package domain

// Metadata keys attached to chunks for citation back to the source.
const (
	// MetaPage is the 1-based page number (documents).
	MetaPage = "page"

	// MetaLineStart and MetaLineEnd are the 1-based line range (code).
	MetaLineStart = "line_start"
	MetaLineEnd   = "line_end"

	// MetaSymbol is the enclosing symbol name (code).
	MetaSymbol = "symbol"

	// MetaOCR is true when the chunk text came from OCR pages.
	MetaOCR = "ocr"

	// MetaFileName is the base name of the source file.
	MetaFileName = "file_name"
)

// ChunkDraft is a chunker's output before id assignment: content, an
// ordinal index, and lineage metadata appropriate to the source.
type ChunkDraft struct {
	Content  string
	Index    int
	Metadata map[string]any
}

// Chunk is a bounded, independently embeddable and citable segment of
// extracted text. IDs are deterministic over (file hash, strategy,
// index) so re-ingestion of unchanged input reproduces the same id set.
type Chunk struct {
	// ID is the deterministic chunk identifier.
	ID string

	// FileHash links to the owning FileRecord.
	FileHash string

	// CorpusID is the owning corpus.
	CorpusID string

	// Index is the ordinal position within the file. Strictly
	// increasing and stable across re-runs of the same strategy.
	Index int

	// Content is the chunk text.
	Content string

	// Metadata carries lineage (page, line range, symbol).
	Metadata map[string]any
}
