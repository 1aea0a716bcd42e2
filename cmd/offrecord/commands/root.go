package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"offrecord/internal/app"
	"offrecord/internal/domain"
	"offrecord/internal/protocol/policy"
)

var (
	home       string
	configPath string
	passphrase string
	deps       *app.Wire

	relayURL   string
	account    string
	protocol   string
	policyFlag string
)

func Execute() error {
	root := &cobra.Command{
		Use:           "offrecord",
		Short:         "Off-the-record key exchange over a text relay",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".offrecord")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			cfg, err := app.LoadConfig(home, configPath)
			if err != nil {
				return err
			}
			if relayURL != "" {
				cfg.RelayURL = relayURL
			}
			if account != "" {
				cfg.Account = account
			}
			if protocol != "" {
				cfg.Protocol = protocol
			}
			if policyFlag != "" {
				p, err := policy.Parse(policyFlag)
				if err != nil {
					return err
				}
				cfg.Policy = p
			}

			logger := app.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			deps, err = app.NewWire(cfg, logger)
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.offrecord)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <home>/config.yaml)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the signing identity")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVarP(&account, "account", "a", "", "local account name")
	root.PersistentFlags().StringVar(&protocol, "protocol", "", "transport protocol name")
	root.PersistentFlags().StringVar(&policyFlag, "policy", "", "policy preset or flag list, e.g. opportunistic or allow_v2|error_start_ake")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		queryCmd(),
		sendCmd(),
		recvCmd(),
		chatCmd(),
		demoCmd(),
	)
	return root.Execute()
}

func requireAccount() error {
	if deps.Config.Account == "" {
		return fmt.Errorf("account required (--account or config)")
	}
	return nil
}

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return nil
}

func conversationWith(peer string) domain.ConversationKey {
	return domain.ConversationKey{User: peer, Account: deps.Config.Account, Protocol: deps.Config.Protocol}
}
