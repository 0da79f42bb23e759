package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStatusConfigMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slp_config.json")

	cfg, err := LoadStatusConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultStatusConfig(), cfg)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var written StatusConfig
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, DefaultStatusConfig(), written)
}

func TestLoadStatusConfigValidFileRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slp_config.json")

	want := StatusConfig{
		IP:          "127.0.0.1",
		Port:        25566,
		Protocol:    765,
		Motd:        "custom motd",
		VersionText: "custom version",
		KickMessage: "custom kick",
		ServerIcon:  "icon.png",
		Samples:     []string{"one", "two"},
	}
	data, err := json.Marshal(want)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := LoadStatusConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadStatusConfigMalformedJSONFallsBackWithoutTouchingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slp_config.json")
	original := []byte("{not valid json")
	require.NoError(t, os.WriteFile(path, original, 0o644))

	got, err := LoadStatusConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultStatusConfig(), got)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, onDisk)
}

func TestLoadStatusConfigMissingFieldFallsBackEntirely(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slp_config.json")

	// "port" is missing and "protocol" has the wrong kind; a single bad
	// field falls the whole record back to defaults, not just that field.
	raw := map[string]interface{}{
		"ip":           "127.0.0.1",
		"protocol":     "not-a-number",
		"motd":         "custom motd",
		"version_text": "custom version",
		"kick_message": "custom kick",
		"server_icon":  "icon.png",
		"samples":      []string{"one"},
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := LoadStatusConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultStatusConfig(), got)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)
}

func TestLoadStatusConfigWrongKindStringList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slp_config.json")

	raw := map[string]interface{}{
		"ip":           "127.0.0.1",
		"port":         25565,
		"protocol":     2,
		"motd":         "custom motd",
		"version_text": "custom version",
		"kick_message": "custom kick",
		"server_icon":  "icon.png",
		"samples":      "not-a-list",
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := LoadStatusConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultStatusConfig(), got)
}
