package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// send -c <contact>... -m <message>: relay one message to every contact.
func sendCmd() *cobra.Command {
	var (
		contacts []string
		message  string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to one or more contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := api.Send(ctx, contacts, message)
			if err != nil {
				return err
			}
			for _, r := range resp.Results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", r.To, r.SID, r.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&contacts, "contact", "c", nil, "destination phone number (repeatable)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "message body")
	_ = cmd.MarkFlagRequired("contact")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
