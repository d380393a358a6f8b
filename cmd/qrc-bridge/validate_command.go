// cmd/qrc-bridge/validate_command.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file and print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.load()
			if err != nil {
				return err
			}
			b := cfg.Bridge
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config ok: %s\n", ctx.configPath)
			fmt.Fprintf(out, "  primary:   %s:%d\n", b.Primary.Host, b.Primary.Port)
			if b.Redundant && b.Secondary != nil {
				fmt.Fprintf(out, "  secondary: %s:%d\n", b.Secondary.Host, b.Secondary.Port)
			}
			fmt.Fprintf(out, "  feedback:  enabled=%t bundle=%t poll=%s variables=%d\n",
				b.Feedback.Enabled, b.Feedback.Bundle, b.PollInterval(), len(b.Feedback.Variables))
			if b.Mirror != nil {
				fmt.Fprintf(out, "  mirror:    %s unit=%d slot=%d\n", b.Mirror.Endpoint, b.Mirror.UnitID, b.Mirror.Slot)
			}
			return nil
		},
	}
}
