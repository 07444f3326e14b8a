package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanCmd_PlainOutput(t *testing.T) {
	// Given: a documents folder holding notes.md and an unsupported file
	ws := newWorkspace(t)
	ws.write(t, "photo.jpg", "not a document")

	// When: scanning without a terminal
	stdout, stderr, err := execute(t, "scan", "--config", ws.config, "--no-tui")

	// Then: progress and a summary are printed
	require.NoError(t, err)
	assert.Contains(t, stdout, "Scanning "+ws.docs+"\n")
	assert.Contains(t, stdout, "[SCAN] 1/1 notes.md (2 chunks)\n")
	assert.Contains(t, stdout, "Complete: 1 of 1 files indexed, 2 chunks in ")
	assert.NotContains(t, stdout, "photo.jpg")
	assert.Empty(t, stderr)
}

func TestScanCmd_ReportsUnreadableFiles(t *testing.T) {
	// Given: a PDF that cannot be parsed
	ws := newWorkspace(t)
	ws.write(t, "broken.pdf", "this is not a pdf")

	// When: scanning
	stdout, stderr, err := execute(t, "scan", "--config", ws.config, "--no-tui")

	// Then: the scan completes and the failure is reported
	require.NoError(t, err)
	assert.Contains(t, stdout, "ERROR: broken.pdf: ")
	assert.Contains(t, stdout, "(0 skipped, 1 failed)")
	assert.Contains(t, stderr, "1 of 2 files could not be read")
}

func TestScanCmd_CreatesMissingDocumentsDir(t *testing.T) {
	ws := newWorkspace(t)
	cfg := ws.root + "/other.yaml"
	writeConfig(t, cfg, "documents:\n  dir: ./empty\n")

	stdout, _, err := execute(t, "scan", "--config", cfg, "--no-tui")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Complete: 0 of 0 files indexed")
	assert.DirExists(t, ws.root+"/empty")
}
