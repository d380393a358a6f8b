// internal/config/normalize.go
package config

import (
	"strings"
	"time"
)

const (
	DefaultPort           = 1710
	DefaultPollIntervalMs = 100
	MinPollIntervalMs     = 30
	MaxPollIntervalMs     = 60000
	DefaultDialMs         = 5000
	DefaultWriteMs        = 2000
	DefaultMirrorTimeout  = 2000

	// MirrorNameMaxChars matches the register space reserved for the name.
	MirrorNameMaxChars = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	b := &cfg.Bridge

	// ------------------------------------------------------------
	// ENDPOINTS
	// ------------------------------------------------------------

	b.Primary.Host = strings.TrimSpace(b.Primary.Host)
	if b.Primary.Port == 0 {
		b.Primary.Port = DefaultPort
	}
	if b.Secondary != nil {
		b.Secondary.Host = strings.TrimSpace(b.Secondary.Host)
		if b.Secondary.Port == 0 {
			b.Secondary.Port = DefaultPort
		}
	}

	// ------------------------------------------------------------
	// POLLING
	// ------------------------------------------------------------

	switch {
	case b.Feedback.PollIntervalMs == 0:
		b.Feedback.PollIntervalMs = DefaultPollIntervalMs
	case b.Feedback.PollIntervalMs < MinPollIntervalMs:
		b.Feedback.PollIntervalMs = MinPollIntervalMs
	case b.Feedback.PollIntervalMs > MaxPollIntervalMs:
		b.Feedback.PollIntervalMs = MaxPollIntervalMs
	}

	vars := b.Feedback.Variables[:0]
	for _, v := range b.Feedback.Variables {
		if v = strings.TrimSpace(v); v != "" {
			vars = append(vars, v)
		}
	}
	b.Feedback.Variables = vars

	// ------------------------------------------------------------
	// TIMEOUTS
	// ------------------------------------------------------------

	if b.Timeouts.DialMs == 0 {
		b.Timeouts.DialMs = DefaultDialMs
	}
	if b.Timeouts.WriteMs == 0 {
		b.Timeouts.WriteMs = DefaultWriteMs
	}

	// ------------------------------------------------------------
	// STATUS MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if m := b.Mirror; m != nil {
		if len(m.Name) > MirrorNameMaxChars {
			m.Name = m.Name[:MirrorNameMaxChars]
		}
		if m.TimeoutMs == 0 {
			m.TimeoutMs = DefaultMirrorTimeout
		}
	}

	if b.Log.Level == "" {
		b.Log.Level = "info"
	}
	if b.Log.Format == "" {
		b.Log.Format = "console"
	}
}

// PollInterval returns the configured poll interval as a duration.
func (b BridgeConfig) PollInterval() time.Duration {
	return time.Duration(b.Feedback.PollIntervalMs) * time.Millisecond
}

// DialTimeout returns the configured dial timeout as a duration.
func (b BridgeConfig) DialTimeout() time.Duration {
	return time.Duration(b.Timeouts.DialMs) * time.Millisecond
}

// WriteTimeout returns the configured write timeout as a duration.
func (b BridgeConfig) WriteTimeout() time.Duration {
	return time.Duration(b.Timeouts.WriteMs) * time.Millisecond
}
