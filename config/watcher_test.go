package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchStatusConfigReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slp_config.json")
	initial := DefaultStatusConfig()
	data, err := json.Marshal(initial)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan StatusConfig, 4)
	require.NoError(t, WatchStatusConfig(ctx, path, func(cfg StatusConfig) {
		reloads <- cfg
	}))

	updated := initial
	updated.Motd = "new motd after reload"
	data, err = json.Marshal(updated)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	select {
	case cfg := <-reloads:
		assert.Equal(t, "new motd after reload", cfg.Motd)
	case <-time.After(5 * time.Second):
		t.Fatal("status config was not reloaded after a debounced write")
	}
}
