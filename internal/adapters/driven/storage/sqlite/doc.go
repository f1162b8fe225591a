// Package sqlite provides the SQLite-backed state store. It is the
// durable source of truth for file records, chunk text, corpus
// registrations, and ingest job history. Vector collections are a
// derivative that can always be rebuilt from this store.
package sqlite
