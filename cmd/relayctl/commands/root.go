package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Cypherspark/sms-relay/internal/client"
)

var (
	relayURL string
	timeout  time.Duration
	api      *client.Client
)

func Execute() error {
	return NewRoot().Execute()
}

// NewRoot builds the relayctl command tree.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "relayctl",
		Short:        "Command line client for the SMS relay",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			api = client.New(relayURL)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&relayURL, "url", "http://127.0.0.1:8080", "relay base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(sendCmd(), healthCmd())
	return root
}
