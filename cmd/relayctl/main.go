package main

import (
	"os"

	"github.com/Cypherspark/sms-relay/cmd/relayctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
