package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cypherspark/sms-relay/internal/metrics"
	"github.com/Cypherspark/sms-relay/internal/provider"
)

// ErrProviderNotConfigured means one of the provider credentials is missing.
var ErrProviderNotConfigured = errors.New("SMS provider not configured")

// CredentialSource hands out the provider credentials. It is consulted on
// every request so rotated values take effect without a restart.
type CredentialSource interface {
	Credentials() provider.Credentials
}

// StaticCredentials is a CredentialSource with fixed values.
type StaticCredentials provider.Credentials

func (s StaticCredentials) Credentials() provider.Credentials { return provider.Credentials(s) }

// SendError reports the recipient whose send failed. Index is -1 when the
// provider client could not be built and nothing was attempted. Delivered
// lists the recipients that were messaged before the failure; those sends
// are not rolled back.
type SendError struct {
	Index     int
	To        string
	Delivered []Outcome
	Err       error
}

func (e *SendError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("no send attempted: %v", e.Err)
	}
	return fmt.Sprintf("send to %s (#%d): %v", e.To, e.Index, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Relay fans one message out to a list of contacts, one provider call at a
// time.
type Relay struct {
	Credentials CredentialSource
	Providers   provider.Factory
	Log         zerolog.Logger
}

func NewRelay(creds CredentialSource, providers provider.Factory, log zerolog.Logger) *Relay {
	return &Relay{Credentials: creds, Providers: providers, Log: log}
}

// Configured reports whether the provider credentials are currently present.
func (r *Relay) Configured() bool {
	return r.Credentials != nil && r.Credentials.Credentials().Complete()
}

// Send delivers req.Message to every contact in order and returns one
// Outcome per contact. The first failure aborts the loop; remaining contacts
// are never attempted.
func (r *Relay) Send(ctx context.Context, req SendRequest) ([]Outcome, error) {
	if len(req.Contacts) == 0 {
		return nil, ErrContactsRequired
	}
	if req.Message == "" {
		return nil, ErrMessageRequired
	}
	if r.Credentials == nil {
		return nil, ErrProviderNotConfigured
	}
	creds := r.Credentials.Credentials()
	if !creds.Complete() {
		return nil, ErrProviderNotConfigured
	}

	prov, err := r.Providers(creds)
	if err != nil {
		return nil, &SendError{Index: -1, Err: fmt.Errorf("provider client: %w", err)}
	}

	results := make([]Outcome, 0, len(req.Contacts))
	for i, to := range req.Contacts {
		start := time.Now()
		rcpt, err := prov.Send(ctx, creds.From, to, req.Message)
		metrics.ProviderSendDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.ProviderSendTotal.WithLabelValues("failed").Inc()
			if len(results) > 0 {
				metrics.PartialSendTotal.Inc()
			}
			return nil, &SendError{Index: i, To: to, Delivered: results, Err: err}
		}
		metrics.ProviderSendTotal.WithLabelValues("sent").Inc()
		r.Log.Debug().Str("to", to).Str("sid", rcpt.SID).Str("status", rcpt.Status).Msg("sms sent")
		results = append(results, Outcome{To: to, SID: rcpt.SID, Status: rcpt.Status})
	}
	return results, nil
}
