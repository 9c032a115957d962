package main

import (
	"context"
	"path/filepath"
	"testing"

	"chirp/internal/apperr"
	"chirp/internal/config"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) error {
	t.Helper()
	return newApp().Run(context.Background(), append([]string{"chirp"}, args...))
}

func TestUnknownCommand(t *testing.T) {
	err := runApp(t, "bogus")
	require.ErrorIs(t, err, apperr.ErrUnknownCommand)
	require.Equal(t, 14, apperr.ExitCode(err))
}

// writeConfig saves defaults without a journal so tests stay off the home directory.
func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chirp.yaml")
	cfg := config.Default()
	cfg.Storage.DBPath = ""
	require.NoError(t, config.Save(path, cfg))
	return path
}

func TestInvalidCountIsCommandLineError(t *testing.T) {
	path := writeConfig(t)
	err := runApp(t, "--config", path, "--count", "0", "home")
	require.ErrorIs(t, err, apperr.ErrCommandLine)
	require.Equal(t, 13, apperr.ExitCode(err))
}

func TestMissingConsumerKeyIsRequiredOption(t *testing.T) {
	t.Setenv("CHIRP_CONSUMER_KEY", "")
	t.Setenv("CHIRP_CONSUMER_SECRET", "")
	path := writeConfig(t)

	err := runApp(t, "--config", path, "mentions")
	require.Equal(t, 15, apperr.ExitCode(err))
}
