// cmd/qrc-bridge/set_command.go
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/qrc-bridge/internal/manager"
)

func newSetCommand(ctx *commandContext) *cobra.Command {
	var (
		wait     time.Duration
		typ      string
		relative bool
		lo, hi   float64
		ramp     float64
	)

	cmd := &cobra.Command{
		Use:   "set <control> <value>",
		Short: "Write one named control, optionally relative to its current value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			change := manager.ControlChange{
				Name:     args[0],
				Value:    args[1],
				Type:     typ,
				Relative: relative,
			}
			flags := cmd.Flags()
			if flags.Changed("min") {
				change.Min = &lo
			}
			if flags.Changed("max") {
				change.Max = &hi
			}
			if flags.Changed("ramp") {
				change.Ramp = &ramp
			}

			o, err := ctx.connect(cmd, wait, relative)
			if err != nil {
				return err
			}
			defer o.close()

			if relative {
				// learn the current value before adding to it
				o.mgr.Subscribe(change.Name, "cli")
				if err := waitForValue(o, change.Name); err != nil {
					return err
				}
			}

			ok, err := o.mgr.SetControl(o.ctx, change)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: no core accepted the change", change.Name)
			}
			c, _ := o.mgr.Control(change.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "%s set\n", formatControl(change.Name, c.Value, args[1]))
			return nil
		},
	}

	f := cmd.Flags()
	f.DurationVar(&wait, "timeout", 10*time.Second, "How long to wait for the cores")
	f.StringVar(&typ, "type", "number", "Value type: number, boolean or string")
	f.BoolVar(&relative, "relative", false, "Add value to the current value (needs feedback enabled)")
	f.Float64Var(&lo, "min", 0, "Lower bound for a relative change")
	f.Float64Var(&hi, "max", 0, "Upper bound for a relative change")
	f.Float64Var(&ramp, "ramp", 0, "Ramp time in seconds")
	return cmd
}

func waitForValue(o *oneShot, name string) error {
	t := time.NewTicker(20 * time.Millisecond)
	defer t.Stop()
	for {
		if c, ok := o.mgr.Control(name); ok && c.Value != nil {
			return nil
		}
		select {
		case <-o.ctx.Done():
			return fmt.Errorf("%s: no current value (is feedback enabled?)", name)
		case <-t.C:
		}
	}
}

func formatControl(name string, cached any, entered string) string {
	if cached != nil {
		return fmt.Sprintf("%s=%v", name, cached)
	}
	return fmt.Sprintf("%s=%s", name, entered)
}
