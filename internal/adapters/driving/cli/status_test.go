package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driving"
)

func TestStatusCmd_Reports(t *testing.T) {
	cleanup := setupIngestTest(&mockIngestOrchestrator{status: &driving.IngestStatus{
		CorpusID: "handbook",
		Counts: map[domain.FileStatus]int{
			domain.StatusSuccess: 4,
			domain.StatusFailed:  1,
		},
		DeadLetters: []domain.FileRecord{
			{Path: "/docs/broken.pdf", FailureCount: 3, LastError: "extract: bad xref"},
		},
		LastJob: &domain.IngestJob{
			Status:    domain.JobCompleted,
			StartedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			Summary:   domain.RunSummary{Succeeded: 4, Failed: 1},
		},
	}})
	defer cleanup()

	out, err := execute("status", "handbook")
	assert.NoError(t, err)
	assert.Contains(t, out, "Corpus: handbook")
	assert.Contains(t, out, "4")
	assert.Contains(t, out, "Dead letters:")
	assert.Contains(t, out, "/docs/broken.pdf (3 failures): extract: bad xref")
	assert.Contains(t, out, "Last run:")
	assert.Contains(t, out, "2026-08-30 12:00:00")
}

func TestStatusCmd_EmptyCorpus(t *testing.T) {
	cleanup := setupIngestTest(&mockIngestOrchestrator{status: &driving.IngestStatus{
		CorpusID: "handbook",
		Counts:   map[domain.FileStatus]int{},
	}})
	defer cleanup()

	out, err := execute("status", "handbook")
	assert.NoError(t, err)
	assert.Contains(t, out, "none")
}

func TestStatusCmd_UnknownCorpus(t *testing.T) {
	cleanup := setupIngestTest(&mockIngestOrchestrator{})
	defer cleanup()

	_, err := execute("status", "ghost")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status failed")
}
