package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driving"
)

// mockIngestOrchestrator implements driving.IngestOrchestrator for testing.
type mockIngestOrchestrator struct {
	runErr error
	status *driving.IngestStatus
}

func (m *mockIngestOrchestrator) RunOnce(_ context.Context, _ string) (*domain.RunSummary, error) {
	if m.runErr != nil {
		return nil, m.runErr
	}
	return &domain.RunSummary{Scanned: 3, Succeeded: 2, Skipped: 1}, nil
}

func (m *mockIngestOrchestrator) RunAll(_ context.Context) (map[string]*domain.RunSummary, error) {
	if m.runErr != nil {
		return nil, m.runErr
	}
	return map[string]*domain.RunSummary{
		"handbook": {Scanned: 1, Succeeded: 1},
	}, nil
}

func (m *mockIngestOrchestrator) Status(_ context.Context, _ string) (*driving.IngestStatus, error) {
	if m.status == nil {
		return nil, domain.ErrNotFound
	}
	return m.status, nil
}

func setupIngestTest(mock *mockIngestOrchestrator) func() {
	old := ingestOrchestrator
	ingestOrchestrator = mock
	ingestAll = false
	return func() {
		ingestOrchestrator = old
		ingestAll = false
	}
}

func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [corpus-id]", ingestCmd.Use)
}

func TestIngestCmd_SingleCorpus(t *testing.T) {
	cleanup := setupIngestTest(&mockIngestOrchestrator{})
	defer cleanup()

	out, err := execute("ingest", "handbook")
	assert.NoError(t, err)
	assert.Contains(t, out, "Ingesting corpus: handbook")
	assert.Contains(t, out, "handbook: 3 scanned, 2 succeeded, 0 failed, 1 skipped")
}

func TestIngestCmd_All(t *testing.T) {
	cleanup := setupIngestTest(&mockIngestOrchestrator{})
	defer cleanup()

	out, err := execute("ingest", "--all")
	assert.NoError(t, err)
	assert.Contains(t, out, "Ingesting all corpora...")
	assert.Contains(t, out, "handbook: 1 scanned, 1 succeeded")
}

func TestIngestCmd_NoArgs(t *testing.T) {
	cleanup := setupIngestTest(&mockIngestOrchestrator{})
	defer cleanup()

	_, err := execute("ingest")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "corpus id")
}

func TestIngestCmd_RunInProgress(t *testing.T) {
	cleanup := setupIngestTest(&mockIngestOrchestrator{runErr: domain.ErrRunInProgress})
	defer cleanup()

	_, err := execute("ingest", "handbook")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already being ingested")
}

func TestIngestCmd_ServiceError(t *testing.T) {
	cleanup := setupIngestTest(&mockIngestOrchestrator{runErr: errors.New("boom")})
	defer cleanup()

	_, err := execute("ingest", "handbook")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ingest failed")
}

func TestIngestCmd_ServiceNotConfigured(t *testing.T) {
	old := ingestOrchestrator
	ingestOrchestrator = nil
	defer func() { ingestOrchestrator = old }()

	_, err := execute("ingest", "handbook")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
