package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/inkforge/quillcore/internal/document"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := Load(path)
	require.NoError(t, err)
	defer store.Close()

	cfg := store.Snapshot()
	require.Equal(t, Default(), cfg)
}

func TestStore_SaveTriggersReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := Load(path)
	require.NoError(t, err)
	defer store.Close()

	reloaded := make(chan Config, 1)
	store.Subscribe(func(cfg Config) { reloaded <- cfg })

	cfg := Default()
	cfg.Completion.Mode = document.CompletionManualAI
	cfg.Completion.DebounceMs = 750
	require.NoError(t, store.Save(cfg))

	select {
	case got := <-reloaded:
		require.Equal(t, document.CompletionManualAI, got.Completion.Mode)
		require.Equal(t, 750, got.Completion.DebounceMs)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload notification")
	}
}
