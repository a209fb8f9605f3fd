package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"bfs-chain/log"
)

const (
	DefaultPath = "./config.toml"
	PathEnv     = "BFS_CONFIG"
)

type ChainConfig struct {
	Difficulty          uint64 `toml:"difficulty"`
	Reward              uint64 `toml:"reward"`
	GenesisBalanceCheck bool   `toml:"genesis_balance_check"`
	InclusionCheck      bool   `toml:"inclusion_check"`
}

type MinerConfig struct {
	Attempts    uint64 `toml:"attempts"`
	Workers     int    `toml:"workers"`
	RandomStart bool   `toml:"random_start"`
}

type SimulatorConfig struct {
	GenesisTxs    int    `toml:"genesis_txs"`
	GenesisAmount uint64 `toml:"genesis_amount"`
	TxsPerBlock   int    `toml:"txs_per_block"`
	BlockInterval string `toml:"block_interval"`
	ExportDir     string `toml:"export_dir"`
	MinerKeyFile  string `toml:"miner_key_file"`
	ReportSpec    string `toml:"report_spec"`
}

// Interval parses BlockInterval, treating an empty or invalid value as no pause.
func (c *SimulatorConfig) Interval() time.Duration {
	d, err := time.ParseDuration(c.BlockInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

type ServerConfig struct {
	HttpPort int `toml:"http_port"`
}

type BotConfig struct {
	Token  string `toml:"token"`
	ChatID int64  `toml:"chat_id"`
}

type NetConfig struct {
	NodeURL string `toml:"node_url"`
}

type Config struct {
	Chain     ChainConfig     `toml:"chain"`
	Miner     MinerConfig     `toml:"miner"`
	Simulator SimulatorConfig `toml:"simulator"`
	Server    ServerConfig    `toml:"server"`
	Log       log.Config      `toml:"log"`
	Bot       BotConfig       `toml:"bot"`
	Net       NetConfig       `toml:"net"`
}

func Default() *Config {
	return &Config{
		Chain: ChainConfig{
			Difficulty:     3,
			Reward:         1,
			InclusionCheck: true,
		},
		Miner: MinerConfig{
			Attempts: 1_000_000,
			Workers:  1,
		},
		Simulator: SimulatorConfig{
			GenesisTxs:    10,
			GenesisAmount: 1_000,
			TxsPerBlock:   5,
			BlockInterval: "1s",
			ReportSpec:    "@every 1m",
		},
		Server: ServerConfig{
			HttpPort: 8080,
		},
		Log: log.Config{
			Level: "info",
		},
		Net: NetConfig{
			NodeURL: "http://localhost:8080",
		},
	}
}

// LoadConfig reads the file named by BFS_CONFIG, or ./config.toml. A missing
// file yields the defaults; keys absent from the file keep their default.
func LoadConfig() (*Config, error) {
	path := os.Getenv(PathEnv)
	if path == "" {
		path = DefaultPath
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
