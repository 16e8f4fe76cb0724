package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestConfig writes a minimal config rooted in a temp dir and
// returns its path.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
data_dir: %q
export_dir: %q
log_level: warn
`, filepath.Join(dir, "data"), filepath.Join(dir, "exports"))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	return cfgPath
}

func TestLoadConfig_ValidFile(t *testing.T) {
	cfgPath := writeTestConfig(t)

	cfg, err := loadConfig(cfgPath, logrus.New())

	require.NoError(t, err)
	assert.Contains(t, cfg.DataDir, "data")
	assert.Equal(t, "127.0.0.1:8787", cfg.ListenAddr)
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := loadConfig("", logrus.New())

	require.NoError(t, err)
	assert.Equal(t, "./angelhub_data", cfg.DataDir)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := loadConfig("/nonexistent/path/config.yaml", logrus.New())

	require.Error(t, err)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := newLogger("chatty", &bytes.Buffer{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestDoImport_Markdown(t *testing.T) {
	cfgPath := writeTestConfig(t)
	mdPath := filepath.Join(t.TempDir(), "evening walk.md")
	require.NoError(t, os.WriteFile(mdPath, []byte("The river keeps its own time.\n"), 0644))

	var stdout, stderr bytes.Buffer
	exitCode := doImport(cfgPath, mdPath, "", &stdout, &stderr)

	assert.Equal(t, 0, exitCode, stderr.String())
	assert.Contains(t, stdout.String(), `Imported "evening walk"`)
}

func TestDoImport_UnsupportedExtension(t *testing.T) {
	cfgPath := writeTestConfig(t)
	txtPath := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("hi"), 0644))

	var stdout, stderr bytes.Buffer
	exitCode := doImport(cfgPath, txtPath, "", &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "unsupported file type")
}

func TestDoImport_MissingPath(t *testing.T) {
	cfgPath := writeTestConfig(t)

	var stdout, stderr bytes.Buffer
	exitCode := doImport(cfgPath, "/nonexistent/file.md", "", &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error")
}

func TestDoExport_Backup(t *testing.T) {
	cfgPath := writeTestConfig(t)
	mdPath := filepath.Join(t.TempDir(), "poem.md")
	require.NoError(t, os.WriteFile(mdPath, []byte("A line.\n"), 0644))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, doImport(cfgPath, mdPath, "Poem", &stdout, &stderr), stderr.String())

	stdout.Reset()
	stderr.Reset()
	exitCode := doExport(cfgPath, "", "", true, &stdout, &stderr)

	assert.Equal(t, 0, exitCode, stderr.String())
	assert.Contains(t, stdout.String(), "Wrote backup of 1 works")
}

func TestDoExport_RequiresTarget(t *testing.T) {
	cfgPath := writeTestConfig(t)

	var stdout, stderr bytes.Buffer
	exitCode := doExport(cfgPath, "", "markdown", false, &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "-work or -all")
}

func TestDoExport_UnknownWork(t *testing.T) {
	cfgPath := writeTestConfig(t)

	var stdout, stderr bytes.Buffer
	exitCode := doExport(cfgPath, "no-such-id", "markdown", false, &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
}

func TestPrintUsageTo(t *testing.T) {
	var buf bytes.Buffer
	printUsageTo(&buf)

	out := buf.String()
	assert.Contains(t, out, "serve")
	assert.Contains(t, out, "mcp-server")
	assert.Contains(t, out, "export")
	assert.Contains(t, out, "import")
	assert.Contains(t, out, "version")
}
