package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"offrecord/internal/protocol/wire"
)

func queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query",
		Short: "Print the Query message advertising the configured policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			pol := deps.Config.PolicyFor(deps.Config.Protocol)
			if !pol.Enabled() {
				return fmt.Errorf("policy %s allows no protocol version", pol)
			}
			fmt.Fprintln(cmd.OutOrStdout(), wire.Query(pol.Versions()))
			return nil
		},
	}
}
