// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Bridge BridgeConfig `yaml:"bridge" validate:"required"`
}

type BridgeConfig struct {
	Redundant   bool              `yaml:"redundant"`
	Primary     EndpointConfig    `yaml:"primary"`
	Secondary   *EndpointConfig   `yaml:"secondary"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Feedback    FeedbackConfig    `yaml:"feedback"`
	Timeouts    TimeoutConfig     `yaml:"timeouts"`
	Mirror      *MirrorConfig     `yaml:"mirror"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Log         LogConfig         `yaml:"log"`
	Verbose     bool              `yaml:"verbose"`
}

// ---- ENDPOINT ----

// EndpointConfig is immutable once a session starts.
// An empty Host is legal here: the session reports bad_config at runtime.
type EndpointConfig struct {
	Host string `yaml:"host" validate:"omitempty,hostname|ip"`
	Port int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// ---- CREDENTIALS ----

type CredentialsConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// HasLogin reports whether both halves of the login are present.
func (c CredentialsConfig) HasLogin() bool {
	return c.User != "" && c.Password != ""
}

// ---- FEEDBACK / POLLING ----

type FeedbackConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Bundle         bool     `yaml:"bundle"`
	PollIntervalMs int      `yaml:"poll_interval_ms" validate:"omitempty,min=30,max=60000"`
	Variables      []string `yaml:"variables" validate:"dive,required"`
}

// ---- TIMEOUTS ----

type TimeoutConfig struct {
	DialMs  int `yaml:"dial_ms" validate:"omitempty,min=1"`
	WriteMs int `yaml:"write_ms" validate:"omitempty,min=1"`
}

// ---- STATUS MIRROR (optional, opt-in) ----

// MirrorConfig places the status block. Slot selects a 20-register block
// and the last block must end by register 65535.
type MirrorConfig struct {
	Endpoint  string `yaml:"endpoint" validate:"required,hostname_port"`
	UnitID    uint8  `yaml:"unit_id"`
	Slot      uint16 `yaml:"slot" validate:"max=3275"`
	Name      string `yaml:"name"`
	TimeoutMs int    `yaml:"timeout_ms" validate:"omitempty,min=1"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// Load reads and parses a YAML config file.
// It does not validate or normalize.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &cfg, nil
}

// LoadValid is Load + Validate + Normalize, the sequence every caller wants.
func LoadValid(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	Normalize(cfg)
	return cfg, nil
}
