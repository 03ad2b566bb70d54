package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

const (
	DefaultConfigPath = "config/config.yaml"
	EnvPrefix         = "PARITY_STAKE"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Session   SessionConfig   `mapstructure:"session"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Host         string          `mapstructure:"host"`
	Port         string          `mapstructure:"port"`
	Endpoint     string          `mapstructure:"endpoint"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	Websocket    WebsocketConfig `mapstructure:"websocket"`
}

type WebsocketConfig struct {
	WriteWait      time.Duration `mapstructure:"write_wait"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type EthereumConfig struct {
	RPC            string        `mapstructure:"rpc"`
	WSRPC          string        `mapstructure:"ws_rpc"`
	ChainID        int64         `mapstructure:"chain_id"`
	StakingAddress string        `mapstructure:"staking_address"`
	TokenSymbol    string        `mapstructure:"token_symbol"`
	TokenDecimals  int           `mapstructure:"token_decimals"`
	RPCTimeout     time.Duration `mapstructure:"rpc_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type TelemetryConfig struct {
	Enabled       bool                `mapstructure:"enabled"`
	ServiceName   string              `mapstructure:"service_name"`
	OTELCollector OTELCollectorConfig `mapstructure:"otel_collector"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

type OTELCollectorConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type MetricsConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Address returns the listen address of the HTTP server.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// StakingContract returns the configured staking contract address.
func (e EthereumConfig) StakingContract() common.Address {
	return common.HexToAddress(e.StakingAddress)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.endpoint", "/api/v1")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.websocket.write_wait", 10*time.Second)
	v.SetDefault("server.websocket.pong_wait", 60*time.Second)
	v.SetDefault("server.websocket.max_message_size", 512)

	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.token_symbol", "TOKEN")
	v.SetDefault("ethereum.token_decimals", 18)
	v.SetDefault("ethereum.rpc_timeout", 10*time.Second)
	v.SetDefault("ethereum.poll_interval", 12*time.Second)

	v.SetDefault("session.ttl", 24*time.Hour)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "parity-stake")
	v.SetDefault("telemetry.otel_collector.host", "localhost")
	v.SetDefault("telemetry.otel_collector.port", 4317)
	v.SetDefault("telemetry.metrics.interval", 15*time.Second)
}

// LoadConfig reads the config file at path, applies defaults and environment
// overrides (PARITY_STAKE_ETHEREUM_RPC and so on) and validates the result.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the fields every command depends on.
func (c *Config) Validate() error {
	if c.Ethereum.RPC == "" {
		return errors.New("ethereum.rpc is required")
	}
	if c.Ethereum.ChainID <= 0 {
		return fmt.Errorf("ethereum.chain_id must be positive, got %d", c.Ethereum.ChainID)
	}
	if !common.IsHexAddress(c.Ethereum.StakingAddress) {
		return fmt.Errorf("ethereum.staking_address %q is not a hex address", c.Ethereum.StakingAddress)
	}
	if c.Ethereum.TokenDecimals < 0 || c.Ethereum.TokenDecimals > 77 {
		return fmt.Errorf("ethereum.token_decimals out of range: %d", c.Ethereum.TokenDecimals)
	}
	if c.Session.Secret == "" {
		return errors.New("session.secret is required")
	}
	return nil
}
