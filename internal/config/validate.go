// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

var configValidate = validator.New()

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}

	// ------------------------------------------------------------
	// FIELD-LEVEL (struct tags)
	// ------------------------------------------------------------

	if err := configValidate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	b := cfg.Bridge

	// ------------------------------------------------------------
	// REDUNDANCY
	// ------------------------------------------------------------

	// secondary block required when redundant; its host may still be empty
	// (reported as bad_config at runtime, same as an empty primary host).
	if b.Redundant && b.Secondary == nil {
		return fmt.Errorf("%w: bridge.redundant is set but no secondary endpoint is defined", ErrInvalid)
	}
	if b.Redundant && b.Secondary != nil && b.Secondary.Host != "" && b.Secondary.Host == b.Primary.Host &&
		portOrDefault(b.Secondary.Port) == portOrDefault(b.Primary.Port) {
		return fmt.Errorf("%w: primary and secondary endpoints are identical (%s)", ErrInvalid, b.Primary.Host)
	}

	// ------------------------------------------------------------
	// FEEDBACK VARIABLES
	// ------------------------------------------------------------

	seen := make(map[string]struct{}, len(b.Feedback.Variables))
	for _, v := range b.Feedback.Variables {
		name := strings.TrimSpace(v)
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: feedback variable %q listed twice", ErrInvalid, name)
		}
		seen[name] = struct{}{}
	}

	// ------------------------------------------------------------
	// STATUS MIRROR
	// ------------------------------------------------------------

	if m := b.Mirror; m != nil {
		for i := 0; i < len(m.Name); i++ {
			if m.Name[i] > 0x7F {
				return fmt.Errorf("%w: mirror name must contain ASCII characters only", ErrInvalid)
			}
		}
	}

	return nil
}

func portOrDefault(p int) int {
	if p == 0 {
		return DefaultPort
	}
	return p
}
