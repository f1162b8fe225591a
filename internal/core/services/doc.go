// Package services contains the core application services: the ingest
// pipeline orchestrator and the query engine. Services depend only on
// the driven ports; adapters are wired in at startup.
package services
