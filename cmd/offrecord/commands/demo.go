package commands

import (
	"github.com/spf13/cobra"

	"offrecord/internal/app"
)

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run two in-process peers through a handshake and print the transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunDemo(cmd.OutOrStdout(), deps.Log, deps.Config.PolicyFor(deps.Config.Protocol))
		},
	}
}
