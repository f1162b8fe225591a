// Package domain contains the core business entities for librarian:
// corpora, file records with their processing lifecycle, chunks, and
// ingest jobs. It has no dependencies on adapters or external services.
package domain
