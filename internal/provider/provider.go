package provider

import (
	"context"
	"fmt"
)

// Provider delivers a single SMS and reports the provider's receipt.
type Provider interface {
	Send(ctx context.Context, from, to, body string) (Receipt, error)
}

// Receipt is what the provider hands back for an accepted message.
type Receipt struct {
	SID    string
	Status string
}

// Credentials identify the provider account and the sender number.
type Credentials struct {
	AccountSID string
	AuthToken  string
	From       string
}

// Complete reports whether every credential value is present. Format is
// left for the provider to judge.
func (c Credentials) Complete() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

// Factory builds a provider client bound to one set of credentials.
type Factory func(Credentials) (Provider, error)

// Error is a failure reported by the provider API itself.
type Error struct {
	Provider string
	Code     int // provider-specific error code, 0 if unknown
	Status   int // HTTP status returned by the provider, 0 if unknown
	Message  string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: error %d: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
