// cmd/qrc-bridge/oneshot.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/qrc-bridge/internal/config"
	"github.com/tamzrod/qrc-bridge/internal/manager"
	"github.com/tamzrod/qrc-bridge/internal/status"
)

// oneShot is a short-lived manager for commands that connect, act once
// and leave.
type oneShot struct {
	mgr    *manager.Manager
	ctx    context.Context
	cancel context.CancelFunc
}

// connect applies the config file through a fresh manager and waits for
// the cores to report. Mirroring is always off; polling stays on only
// when feedback is asked for.
func (c *commandContext) connect(cmd *cobra.Command, wait time.Duration, feedback bool) (*oneShot, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, err
	}
	cfg.Bridge.Mirror = nil
	cfg.Bridge.Feedback.Enabled = feedback && cfg.Bridge.Feedback.Enabled

	logger, err := c.logger(cfg)
	if err != nil {
		return nil, err
	}

	settled := make(chan status.Snapshot, 1)
	watch := manager.Funcs{OnStatus: func(s status.Snapshot) {
		if s.Module.Code == status.Connecting {
			return
		}
		select {
		case settled <- s:
		default:
		}
	}}
	o := &oneShot{mgr: manager.New(manager.Options{Logger: logger, Observer: watch})}
	o.ctx, o.cancel = context.WithTimeout(cmd.Context(), wait)

	if err := o.apply(cfg, settled, wait); err != nil {
		o.close()
		return nil, err
	}
	return o, nil
}

func (o *oneShot) apply(cfg *config.Config, settled <-chan status.Snapshot, wait time.Duration) error {
	if err := o.mgr.Apply(o.ctx, cfg); err != nil {
		return err
	}
	select {
	case s := <-settled:
		if s.Module.Code != status.OK && s.Module.Code != status.UnknownWarning {
			return fmt.Errorf("cores not reachable: %s", s.Module.Message)
		}
		return nil
	case <-o.ctx.Done():
		return fmt.Errorf("no status within %s", wait)
	}
}

func (o *oneShot) close() {
	o.mgr.Shutdown()
	o.cancel()
}
