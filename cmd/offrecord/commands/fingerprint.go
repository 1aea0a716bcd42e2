package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func fingerprintCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print identity fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if all {
				recs, err := deps.Store.List()
				if err != nil {
					return err
				}
				for _, r := range recs {
					fmt.Fprintf(out, "%s\t%s\t%s\n", r.Account, r.Protocol, r.Fingerprint)
				}
				return nil
			}
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireAccount(); err != nil {
				return err
			}
			fp, err := deps.Identity.FingerprintIdentity(passphrase, deps.Config.Account, deps.Config.Protocol)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Fingerprint: %s\n", fp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every stored identity without unlocking")
	return cmd
}
