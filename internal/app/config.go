package app

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"offrecord/internal/protocol/policy"
)

// ConfigFile is the default config file name inside Home.
const ConfigFile = "config.yaml"

// EnvFile holds OFFRECORD_* assignments inside Home. The process
// environment wins over it.
const EnvFile = ".env"

// Config holds runtime wiring options for building the app.
type Config struct {
	Home             string // config directory, e.g. $HOME/.offrecord
	Account          string
	Protocol         string
	Policy           policy.Policy
	ProtocolPolicies map[string]policy.Policy
	RelayURL         string // relay base URL, e.g. http://127.0.0.1:8080
	PollInterval     time.Duration
	LogLevel         zerolog.Level
	LogFormat        string // "console" or "json"
	ErrorQueryRPS    float64 // 0 answers every Error with a Query
	ErrorQueryBurst  int
	MetricsAddr      string       // optional listen address for /metrics
	HTTP             *http.Client // optional; defaults to http.DefaultClient
}

// DefaultConfig returns the built-in settings rooted at home.
func DefaultConfig(home string) Config {
	return Config{
		Home:            home,
		Protocol:        "relay",
		Policy:          policy.Opportunistic,
		RelayURL:        "http://127.0.0.1:8080",
		PollInterval:    2 * time.Second,
		LogLevel:        zerolog.InfoLevel,
		LogFormat:       "console",
		ErrorQueryBurst: 1,
	}
}

// PolicyFor returns the policy for protocol, falling back to Policy.
func (c Config) PolicyFor(protocol string) policy.Policy {
	if p, ok := c.ProtocolPolicies[protocol]; ok {
		return p
	}
	return c.Policy
}

// FileConfig is the YAML layout of the config file.
type FileConfig struct {
	Account          string            `yaml:"account"`
	Protocol         string            `yaml:"protocol"`
	Policy           string            `yaml:"policy"`
	ProtocolPolicies map[string]string `yaml:"protocolPolicies"`
	RelayURL         string            `yaml:"relayURL"`
	PollInterval     time.Duration     `yaml:"pollInterval"`
	Log              struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	ErrorQuery struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"errorQuery"`
	MetricsAddr string `yaml:"metricsAddr"`
}

// LoadConfig reads path (or Home/config.yaml when path is empty) over the
// defaults and applies environment overrides, including those in Home/.env.
// Missing files are not an error.
func LoadConfig(home, path string) (Config, error) {
	cfg := DefaultConfig(home)
	if path == "" {
		path = filepath.Join(home, ConfigFile)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, err
	default:
		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := Merge(&cfg, parsed); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}

	dotenv, err := godotenv.Read(filepath.Join(home, EnvFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", EnvFile, err)
	}
	lookup := func(name string) string {
		if v := os.Getenv(name); v != "" {
			return v
		}
		return dotenv[name]
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Merge copies the set fields of src into dst.
func Merge(dst *Config, src FileConfig) error {
	if src.Account != "" {
		dst.Account = src.Account
	}
	if src.Protocol != "" {
		dst.Protocol = src.Protocol
	}
	if src.Policy != "" {
		p, err := policy.Parse(src.Policy)
		if err != nil {
			return err
		}
		dst.Policy = p
	}
	if len(src.ProtocolPolicies) > 0 {
		dst.ProtocolPolicies = make(map[string]policy.Policy, len(src.ProtocolPolicies))
		for proto, raw := range src.ProtocolPolicies {
			p, err := policy.Parse(raw)
			if err != nil {
				return fmt.Errorf("protocolPolicies.%s: %w", proto, err)
			}
			dst.ProtocolPolicies[proto] = p
		}
	}
	if src.RelayURL != "" {
		dst.RelayURL = src.RelayURL
	}
	if src.PollInterval != 0 {
		dst.PollInterval = src.PollInterval
	}
	if src.Log.Level != "" {
		lvl, err := zerolog.ParseLevel(src.Log.Level)
		if err != nil {
			return err
		}
		dst.LogLevel = lvl
	}
	if src.Log.Format != "" {
		dst.LogFormat = src.Log.Format
	}
	if src.ErrorQuery.RPS != 0 {
		dst.ErrorQueryRPS = src.ErrorQuery.RPS
	}
	if src.ErrorQuery.Burst != 0 {
		dst.ErrorQueryBurst = src.ErrorQuery.Burst
	}
	if src.MetricsAddr != "" {
		dst.MetricsAddr = src.MetricsAddr
	}
	return nil
}

// applyEnv applies OFFRECORD_* variables read through getenv.
func applyEnv(cfg *Config, getenv func(string) string) error {
	if raw := strings.TrimSpace(getenv("OFFRECORD_POLICY")); raw != "" {
		p, err := policy.Parse(raw)
		if err != nil {
			return fmt.Errorf("OFFRECORD_POLICY: %w", err)
		}
		cfg.Policy = p
	}
	if raw := strings.TrimSpace(getenv("OFFRECORD_LOG_LEVEL")); raw != "" {
		lvl, err := zerolog.ParseLevel(raw)
		if err != nil {
			return fmt.Errorf("OFFRECORD_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}
	if raw := strings.TrimSpace(getenv("OFFRECORD_RELAY")); raw != "" {
		cfg.RelayURL = raw
	}
	if raw := strings.TrimSpace(getenv("OFFRECORD_ERROR_QUERY_RPS")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("OFFRECORD_ERROR_QUERY_RPS: %w", err)
		}
		cfg.ErrorQueryRPS = v
	}
	return nil
}
