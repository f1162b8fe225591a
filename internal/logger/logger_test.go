package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture redirects output to a buffer for one test.
func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug(t *testing.T) {
	buf := capture(t, true)
	Debug("ingested %s", "handbook.pdf")
	assert.Equal(t, "[DEBUG] ingested handbook.pdf\n", buf.String())
}

func TestQuietByDefault(t *testing.T) {
	buf := capture(t, false)
	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")
	assert.Zero(t, buf.Len())
}

func TestSection(t *testing.T) {
	buf := capture(t, true)
	Section("Ingest handbook")
	assert.Equal(t, "\n=== Ingest handbook ===\n", buf.String())
}

func TestInfo(t *testing.T) {
	buf := capture(t, true)
	Info("scanned %d files", 12)
	assert.Equal(t, "[INFO] scanned 12 files\n", buf.String())
}

func TestWarn(t *testing.T) {
	buf := capture(t, true)
	Warn("vector cleanup failed")
	assert.Equal(t, "[WARN] vector cleanup failed\n", buf.String())
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(true)
			Debug("concurrent %d", i)
			IsVerbose()
			SetVerbose(false)
		}()
	}
	wg.Wait()
}
