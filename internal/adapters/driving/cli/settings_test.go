package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsCmd_Show(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	settings := settingsService.GetDefaults()
	settings.Limits.MaxResults = 500
	settings.Limits.Timeout = 2 * time.Minute
	settings.ExcludedPaths = []string{"/proc"}
	settings.DepthExtensions = map[int][]string{1: {".txt", ".md"}}
	require.NoError(t, settingsService.Save(settings))

	out, _, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "File: :memory:")
	assert.Contains(t, out, "Ignore hidden: yes")
	assert.Contains(t, out, "Max results: 500")
	assert.Contains(t, out, "Max files: unlimited")
	assert.Contains(t, out, "Timeout: 2m0s")
	assert.Contains(t, out, "  /proc")
	assert.Contains(t, out, "1: .txt, .md")
}

func TestSettingsCmd_DefaultsToShow(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "(none)")
}

func TestSettingsCmd_PathAndInit(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "settings", "path")
	require.NoError(t, err)
	assert.Equal(t, ":memory:\n", out)

	out, _, err = execute(t, "settings", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote default settings to :memory:")
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	orig := settingsService
	settingsService = nil
	defer func() { settingsService = orig }()

	_, _, err := execute(t, "settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "yes", yesNo(true))
	assert.Equal(t, "no", yesNo(false))
	assert.Equal(t, "unlimited", orUnlimited(0))
	assert.Equal(t, "7", orUnlimited(7))
	assert.Equal(t, "none", durationOrNone(0))
	assert.Equal(t, "all", listOrAll(nil))
}
