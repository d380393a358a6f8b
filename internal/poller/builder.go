// internal/poller/builder.go
package poller

import (
	cfg "github.com/tamzrod/qrc-bridge/internal/config"
)

// Build constructs the feedback poller for one bridge configuration.
// Returns nil, nil when feedback polling is disabled.
func Build(b cfg.BridgeConfig, names Names, submit Submit) (*Poller, error) {
	if !b.Feedback.Enabled {
		return nil, nil
	}
	return New(
		Config{
			Interval: b.PollInterval(),
			Bundle:   b.Feedback.Bundle,
		},
		names,
		submit,
	)
}
