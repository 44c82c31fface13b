package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robmorgan/cadence/profile"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cadence.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := GetCadenceConfig()
	require.Equal(t, 4, cfg.BeatsPerBar)
	require.Equal(t, 24, cfg.TicksPerBeat)
	require.True(t, cfg.DoErrorLog)
	require.False(t, cfg.DoLog)
	require.False(t, cfg.Tickless())
	require.NoError(t, cfg.Validate())
	require.Contains(t, cfg.MeterNames(), profile.MeterWaltz)
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "beats_per_bar: 3\nticks_per_beat: 8\ndo_log: true\ntempo: 90\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.BeatsPerBar)
	require.Equal(t, 8, cfg.TicksPerBeat)
	require.True(t, cfg.DoLog)
	require.True(t, cfg.DoErrorLog)
	require.Equal(t, 90.0, cfg.Tempo)
}

func TestLoadMeterProfile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "meter: \"meter:tickless\"\n"))
	require.NoError(t, err)
	require.True(t, cfg.Tickless())

	cfg, err = Load(writeConfig(t, "meter: \"meter:waltz\"\n"))
	require.NoError(t, err)
	require.Equal(t, 3, cfg.BeatsPerBar)

	_, err = Load(writeConfig(t, "meter: polka\n"))
	require.Error(t, err)
}

func TestLoadRejectsHalfGrid(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "beats_per_bar: 0\nticks_per_beat: 24\n"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "tempo: -1\n"))
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
