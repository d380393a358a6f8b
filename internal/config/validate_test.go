// internal/config/validate_test.go
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// helper to build a bridge config quickly
func bridge(redundant bool, priHost, secHost string) *Config {
	cfg := &Config{
		Bridge: BridgeConfig{
			Redundant: redundant,
			Primary:   EndpointConfig{Host: priHost, Port: 1710},
		},
	}
	if redundant {
		cfg.Bridge.Secondary = &EndpointConfig{Host: secHost, Port: 1710}
	}
	return cfg
}

// ---- tests ----

func TestValidate_SingleCoreOK(t *testing.T) {
	if err := Validate(bridge(false, "10.0.0.10", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_EmptyHostAllowed(t *testing.T) {
	// missing host is a runtime status, not a config error
	if err := Validate(bridge(false, "", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RedundantNeedsSecondary(t *testing.T) {
	cfg := bridge(false, "10.0.0.10", "")
	cfg.Bridge.Redundant = true

	err := Validate(cfg)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate_IdenticalEndpointsRejected(t *testing.T) {
	if err := Validate(bridge(true, "core-a", "core-a")); err == nil {
		t.Fatalf("expected identical endpoint error, got nil")
	}
}

func TestValidate_BadPort(t *testing.T) {
	cfg := bridge(false, "core-a", "")
	cfg.Bridge.Primary.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected port error, got nil")
	}
}

func TestValidate_PollIntervalRange(t *testing.T) {
	cfg := bridge(false, "core-a", "")
	cfg.Bridge.Feedback.PollIntervalMs = 5

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected poll interval error, got nil")
	}
}

func TestValidate_DuplicateVariables(t *testing.T) {
	cfg := bridge(false, "core-a", "")
	cfg.Bridge.Feedback.Variables = []string{"Gain1", " Gain1"}

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected duplicate variable error, got nil")
	}
}

func TestValidate_MirrorNameASCII(t *testing.T) {
	cfg := bridge(false, "core-a", "")
	cfg.Bridge.Mirror = &MirrorConfig{Endpoint: "10.0.0.50:502", Name: "CORE-Ä"}

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected ascii error, got nil")
	}
}

func TestValidate_MirrorSlotFitsRegisterSpace(t *testing.T) {
	cfg := bridge(false, "core-a", "")
	// the block at 3275 ends at register 65519; 3276 would run past 65535
	cfg.Bridge.Mirror = &MirrorConfig{Endpoint: "10.0.0.50:502", Slot: 3275}
	if err := Validate(cfg); err != nil {
		t.Fatalf("last slot rejected: %v", err)
	}

	cfg.Bridge.Mirror.Slot = 3276
	err := Validate(cfg)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for slot 3276, got %v", err)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := bridge(true, " core-a ", "core-b")
	cfg.Bridge.Primary.Port = 0
	cfg.Bridge.Feedback.Variables = []string{" Gain1 ", "", "Mute1"}
	cfg.Bridge.Mirror = &MirrorConfig{Endpoint: "10.0.0.50:502", Name: "A-VERY-LONG-CORE-NAME"}

	Normalize(cfg)

	b := cfg.Bridge
	if b.Primary.Host != "core-a" || b.Primary.Port != DefaultPort {
		t.Fatalf("primary not normalized: %+v", b.Primary)
	}
	if b.Feedback.PollIntervalMs != DefaultPollIntervalMs {
		t.Fatalf("poll interval: got=%d want=%d", b.Feedback.PollIntervalMs, DefaultPollIntervalMs)
	}
	if len(b.Feedback.Variables) != 2 || b.Feedback.Variables[0] != "Gain1" {
		t.Fatalf("variables not trimmed: %q", b.Feedback.Variables)
	}
	if len(b.Mirror.Name) != MirrorNameMaxChars {
		t.Fatalf("mirror name not truncated: %q", b.Mirror.Name)
	}
	if b.DialTimeout() <= 0 || b.WriteTimeout() <= 0 {
		t.Fatalf("timeouts not defaulted")
	}
}

func TestLoadValid_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	data := []byte(`
bridge:
  redundant: true
  primary: {host: 10.0.0.10}
  secondary: {host: 10.0.0.11, port: 1711}
  credentials: {user: ops, password: secret}
  feedback:
    enabled: true
    bundle: true
    poll_interval_ms: 250
    variables: [Gain1, Mute1]
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadValid(path)
	if err != nil {
		t.Fatalf("LoadValid: %v", err)
	}
	if cfg.Bridge.Secondary.Port != 1711 || cfg.Bridge.Primary.Port != DefaultPort {
		t.Fatalf("ports: %+v %+v", cfg.Bridge.Primary, cfg.Bridge.Secondary)
	}
	if !cfg.Bridge.Credentials.HasLogin() {
		t.Fatalf("expected credentials")
	}
	if cfg.Bridge.PollInterval().Milliseconds() != 250 {
		t.Fatalf("poll interval: %v", cfg.Bridge.PollInterval())
	}
}
