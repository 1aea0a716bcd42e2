package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func recvCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Fetch queued messages from the relay and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAccount(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			svc := deps.Messages(passphrase, out)

			msgs, err := svc.Drain(cmd.Context(), deps.Relay, deps.Config.Account, deps.Config.Protocol, limit)
			for _, m := range msgs {
				ts := time.Unix(m.Timestamp, 0).Format(time.Kitchen)
				fmt.Fprintf(out, "[%s] %s: %s\n", ts, m.From, m.Text)
			}
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				fmt.Fprintln(out, "No messages.")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum envelopes to fetch")
	return cmd
}
