package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Balance query modes.
const (
	ModeReplay     = "replay"
	ModeProjection = "projection"
)

// Projection store backends.
const (
	BackendBadger = "badger"
	BackendCosmos = "cosmos"
)

// Config holds the configuration settings for the application.
type Config struct {
	Server   *ServerConfig   `yaml:"server"`
	LogLevel string          `yaml:"log_level"`
	BadgerDB *BadgerDBConfig `yaml:"badger_db"`
	DB       *DBConfig       `yaml:"db"`
	RPC      *NodeRPCConfig  `yaml:"rpc"`
	Indexer  *IndexerConfig  `yaml:"indexer"`
	Wallet   *WalletConfig   `yaml:"wallet"`
}

// ServerConfig holds the configuration settings for the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// BadgerDBConfig holds the configuration settings for BadgerDB.
type BadgerDBConfig struct {
	Directory string `yaml:"directory"`
	InMemory  bool   `yaml:"in_memory"`
}

// DBConfig selects a cosmos-db backend (goleveldb, memdb, ...).
type DBConfig struct {
	Name   string `yaml:"name"`
	Dir    string `yaml:"dir"`
	DBType string `yaml:"db_type"`
}

// NodeRPCConfig points at the consensus node's RPC endpoint.
type NodeRPCConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type IndexerConfig struct {
	Mode          string        `yaml:"mode"`           // replay | projection
	Backend       string        `yaml:"backend"`        // badger | cosmos
	Workers       int           `yaml:"workers"`        // concurrent block fetchers for a replay
	RetryAttempts uint          `yaml:"retry_attempts"` // per block, transport errors only
	RetryDelay    time.Duration `yaml:"retry_delay"`
	BatchSize     int           `yaml:"batch_size"`     // store once this many qualifying txs are pending
	BlockChanBuf  int           `yaml:"block_chan_buf"` // heights that may be scanned ahead of the store
	PollInterval  time.Duration `yaml:"poll_interval"`
}

// WalletConfig locates the external collaborators of the send flow.
type WalletConfig struct {
	UTXOURL      string `yaml:"utxo_url"`
	SignerURL    string `yaml:"signer_url"`
	BroadcastURL string `yaml:"broadcast_url"`
	Fee          uint64 `yaml:"fee"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}

	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8082
	}
	if c.BadgerDB == nil {
		c.BadgerDB = &BadgerDBConfig{Directory: "./data/badger"}
	}
	if c.DB == nil {
		c.DB = &DBConfig{}
	}
	if c.DB.Name == "" {
		c.DB.Name = "projection"
	}
	if c.DB.DBType == "" {
		c.DB.DBType = "goleveldb"
	}
	if c.DB.Dir == "" {
		c.DB.Dir = "./data"
	}
	if c.RPC == nil {
		c.RPC = &NodeRPCConfig{}
	}
	if c.RPC.URL == "" {
		c.RPC.URL = "http://localhost:26657"
	}
	if c.RPC.Timeout == 0 {
		c.RPC.Timeout = 10 * time.Second
	}
	if c.Indexer == nil {
		c.Indexer = &IndexerConfig{}
	}
	if c.Indexer.Mode == "" {
		c.Indexer.Mode = ModeReplay
	}
	if c.Indexer.Backend == "" {
		c.Indexer.Backend = BackendBadger
	}
	if c.Indexer.Workers == 0 {
		c.Indexer.Workers = 1
	}
	if c.Indexer.RetryAttempts == 0 {
		c.Indexer.RetryAttempts = 3
	}
	if c.Indexer.RetryDelay == 0 {
		c.Indexer.RetryDelay = 200 * time.Millisecond
	}
	if c.Indexer.BatchSize == 0 {
		c.Indexer.BatchSize = 1000
	}
	if c.Indexer.BlockChanBuf == 0 {
		c.Indexer.BlockChanBuf = 64
	}
	if c.Indexer.PollInterval == 0 {
		c.Indexer.PollInterval = 5 * time.Second
	}
	if c.Wallet == nil {
		c.Wallet = &WalletConfig{}
	}
	if c.Wallet.Fee == 0 {
		c.Wallet.Fee = 100000
	}
}

func (c *Config) Validate() error {
	switch c.Indexer.Mode {
	case ModeReplay, ModeProjection:
	default:
		return fmt.Errorf("config: unknown indexer mode %q", c.Indexer.Mode)
	}
	switch c.Indexer.Backend {
	case BackendBadger, BackendCosmos:
	default:
		return fmt.Errorf("config: unknown indexer backend %q", c.Indexer.Backend)
	}
	if c.Indexer.Workers < 0 {
		return errors.New("config: indexer workers must be positive")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	return nil
}
