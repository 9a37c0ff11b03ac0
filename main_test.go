package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robmorgan/legopi/effect"
	"github.com/robmorgan/legopi/engine"
	"github.com/robmorgan/legopi/logger"
)

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(options{
		oscAddr:  "127.0.0.1:9100",
		httpAddr: "127.0.0.1:7200",
		pattern:  effect.NamePulse,
	})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.OSC.Addr)
	assert.Equal(t, "127.0.0.1:7200", cfg.HTTP.Addr)
	for _, cb := range cfg.Channels {
		assert.Equal(t, effect.NamePulse, cb.Pattern)
	}
}

func TestLoadConfigRejectsUnknownPattern(t *testing.T) {
	_, err := loadConfig(options{pattern: "disco"})
	require.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legopi.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[engine]
tick = "20ms"
`), 0644))

	cfg, err := loadConfig(options{configPath: path})
	require.NoError(t, err)
	assert.Equal(t, "20ms", cfg.Engine.Tick)
	assert.Len(t, cfg.PatchedFixtures, 3)

	_, err = loadConfig(options{configPath: filepath.Join(t.TempDir(), "missing.toml")})
	require.Error(t, err)
}

func TestRunUntilCanceled(t *testing.T) {
	cfg, err := loadConfig(options{oscAddr: "127.0.0.1:0", httpAddr: "127.0.0.1:0"})
	require.NoError(t, err)

	hook := test.NewLocal(logger.GetProjectLogger())
	defer hook.Reset()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, Run(ctx, cfg, ""))

	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
	}
	require.GreaterOrEqual(t, len(messages), 2)
	assert.Equal(t, []string{engine.Banner, engine.StartedMessage}, messages[:2])
}
