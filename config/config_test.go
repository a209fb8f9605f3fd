package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Equal(t, err, nil)
	assert.Equal(t, cfg, Default())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[chain]
difficulty = 2
inclusion_check = false

[miner]
workers = 4

[simulator]
block_interval = "250ms"

[log]
log_level = "debug"
levels = { miner = "warn" }

[bot]
chat_id = -100123
`
	assert.Equal(t, os.WriteFile(path, []byte(content), 0o644), nil)

	cfg, err := LoadFile(path)
	assert.Equal(t, err, nil)
	assert.Equal(t, cfg.Chain.Difficulty, uint64(2))
	assert.Equal(t, cfg.Chain.InclusionCheck, false)
	assert.Equal(t, cfg.Chain.Reward, uint64(1))
	assert.Equal(t, cfg.Miner.Workers, 4)
	assert.Equal(t, cfg.Miner.Attempts, uint64(1_000_000))
	assert.Equal(t, cfg.Simulator.Interval(), 250*time.Millisecond)
	assert.Equal(t, cfg.Log.Level, "debug")
	assert.Equal(t, cfg.Log.Levels["miner"], "warn")
	assert.Equal(t, cfg.Bot.ChatID, int64(-100123))
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.toml")
	assert.Equal(t, os.WriteFile(path, []byte("[server]\nhttp_port = 9090\n"), 0o644), nil)
	t.Setenv(PathEnv, path)

	cfg, err := LoadConfig()
	assert.Equal(t, err, nil)
	assert.Equal(t, cfg.Server.HttpPort, 9090)
}

func TestMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	assert.Equal(t, os.WriteFile(path, []byte("[chain\n"), 0o644), nil)

	_, err := LoadFile(path)
	assert.NotEqual(t, err, nil)
}

func TestIntervalFallsBackToZero(t *testing.T) {
	cfg := SimulatorConfig{BlockInterval: "soon"}
	assert.Equal(t, cfg.Interval(), time.Duration(0))
}
