package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trita-a/ricerca/internal/adapters/driven/audit"
	"github.com/trita-a/ricerca/internal/adapters/driven/config/memory"
	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/services"
	"github.com/trita-a/ricerca/internal/extractors"
)

// setupTestServices wires a real engine and an in-memory settings store
// and returns a function restoring the previous services and flags.
func setupTestServices() func() {
	origEngine, origSettings := searchEngine, settingsService

	registry := extractors.NewDefaultRegistry(nil, domain.DefaultExtractLimits())
	searchEngine = services.NewSearchEngine(registry, audit.NewMemoryLog())
	settingsService = services.NewSettingsService(memory.NewConfigStore())

	return func() {
		_ = searchEngine.Reset()
		searchEngine, settingsService = origEngine, origSettings
		searchFlags = searchOptions{}
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		searchFlags = searchOptions{}
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
