// cmd/qrc-bridge/send_command.go
package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSendCommand(ctx *commandContext) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "send <method> [json-params]",
		Short: "Connect, send one command and report whether any core accepted it",
		Long: "Send any method verbatim, for example Component.Set, ChangeGroup.*,\n" +
			"Snapshot.Load, Mixer.*, LoopPlayer.* or PA.PageSubmit.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params any
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
					return fmt.Errorf("params: %w", err)
				}
			}

			o, err := ctx.connect(cmd, wait, false)
			if err != nil {
				return err
			}
			defer o.close()

			ok, err := o.mgr.Send(o.ctx, args[0], params)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: no core accepted the command", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s sent\n", args[0])
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "timeout", 10*time.Second, "How long to wait for the cores")
	return cmd
}
