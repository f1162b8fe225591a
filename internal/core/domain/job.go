package domain

import "time"

// JobStatus is the terminal state of an ingest run.
type JobStatus string

const (
	// JobRunning marks a run in progress.
	JobRunning JobStatus = "RUNNING"

	// JobCompleted marks a run that finished, possibly with per-file
	// failures recorded in the summary.
	JobCompleted JobStatus = "COMPLETED"

	// JobAborted marks a run cancelled or failed before completion.
	JobAborted JobStatus = "ABORTED"
)

// RunSummary aggregates the outcome of one ingest run.
type RunSummary struct {
	Scanned   int `json:"scanned"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// IngestJob is the audit record of one pipeline run. Jobs are append
// only: created at run start, finalised once at run end, never mutated
// afterwards.
type IngestJob struct {
	ID         string
	CorpusID   string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     JobStatus
	Summary    RunSummary
}
