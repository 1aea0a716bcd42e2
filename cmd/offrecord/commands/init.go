package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a signing identity and store it securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireAccount(); err != nil {
				return err
			}
			_, fp, err := deps.Identity.GenerateIdentity(passphrase, deps.Config.Account, deps.Config.Protocol)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity created for %s on %s.\nFingerprint: %s\n",
				deps.Config.Account, deps.Config.Protocol, fp)
			return nil
		},
	}
}
