package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"offrecord/internal/domain"
)

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <peer> <message...>",
		Short: "Send one line to a peer through the relay",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAccount(); err != nil {
				return err
			}
			key := conversationWith(args[0])
			svc := deps.Messages(passphrase, cmd.OutOrStdout())

			text, err := svc.SendMessage(key, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := deps.Relay.SendMessage(ctx, domain.Envelope{
				From:      key.Account,
				To:        key.User,
				Protocol:  key.Protocol,
				Body:      text,
				Timestamp: time.Now().Unix(),
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent to %s.\n", key.User)
			return nil
		},
	}
}
