package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brainerrors "github.com/Aman-CERP/brainlib/internal/errors"
)

const notesContent = "Meeting about project Alpha.\n\nBudget review for Alpha Q1."

// workspace is a temporary project with a config file and a documents folder.
type workspace struct {
	root   string
	docs   string
	config string
}

// newWorkspace creates a project holding documents/notes.md and isolates the
// test from user configuration, BRAINLIB_* variables and the real log dir.
func newWorkspace(t *testing.T) workspace {
	t.Helper()
	for _, key := range []string{
		"BRAINLIB_DOCUMENTS_DIR", "BRAINLIB_EXTENSIONS", "BRAINLIB_TOP_K", "BRAINLIB_CACHE_SIZE",
		"BRAINLIB_TRANSPORT", "BRAINLIB_PORT", "BRAINLIB_LOG_LEVEL", "BRAINLIB_WATCH_DISABLED",
		"BRAINLIB_WATCH_DEBOUNCE", "BRAINLIB_MIN_CHUNK_LENGTH", "BRAINLIB_WORKERS",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("BRAINLIB_LOG_DIR", t.TempDir())

	root := t.TempDir()
	ws := workspace{
		root:   root,
		docs:   filepath.Join(root, "documents"),
		config: filepath.Join(root, "brainlib.yaml"),
	}
	require.NoError(t, os.MkdirAll(ws.docs, 0o755))
	ws.write(t, "notes.md", notesContent)
	require.NoError(t, os.WriteFile(ws.config, []byte("documents:\n  dir: ./documents\n"), 0o644))
	return ws
}

func (ws workspace) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(ws.docs, name), []byte(content), 0o644))
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(context.Background(), t, args...)
}

func executeContext(ctx context.Context, t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	closeLogging()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"serve", "search", "scan", "logs", "config", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := root.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	root := NewRootCmd()

	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	// Given: a --config path that does not exist
	newWorkspace(t)
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	// When: running a command that loads configuration
	_, _, err := execute(t, "search", "--config", missing, "alpha")

	// Then: a configuration error is returned
	require.Error(t, err)
	assert.Equal(t, brainerrors.ErrCodeConfigInvalid, brainerrors.GetCode(err))
}

func TestRootCmd_InvalidConfigValue(t *testing.T) {
	ws := newWorkspace(t)
	require.NoError(t, os.WriteFile(ws.config, []byte("search:\n  top_k: -1\n"), 0o644))

	_, _, err := execute(t, "search", "--config", ws.config, "alpha")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "top_k")
}

func TestRootCmd_DebugLogsToFile(t *testing.T) {
	// Given: a workspace whose log dir is isolated
	ws := newWorkspace(t)
	logDir := os.Getenv("BRAINLIB_LOG_DIR")

	// When: running a command with --debug
	_, _, err := execute(t, "--debug", "search", "--config", ws.config, "alpha")

	// Then: the scan is logged to the server log
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(logDir, "server.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "index_initialized")
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
