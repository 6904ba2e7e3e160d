package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio REST API the relay needs.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Twilio sends messages through Twilio's Programmable Messaging API.
type Twilio struct {
	api messageCreator
}

// NewTwilio returns a client authenticated with the given account.
func NewTwilio(creds Credentials) (*Twilio, error) {
	if !creds.Complete() {
		return nil, errors.New("twilio: incomplete credentials")
	}
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: creds.AccountSID,
		Password: creds.AuthToken,
	})
	return &Twilio{api: rc.Api}, nil
}

// TwilioFactory is a Factory producing Twilio clients.
func TwilioFactory(creds Credentials) (Provider, error) {
	return NewTwilio(creds)
}

func (t *Twilio) Send(ctx context.Context, from, to, body string) (Receipt, error) {
	// The SDK call is not context aware; at least honour cancellation up front.
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	params := &openapi.CreateMessageParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)

	msg, err := t.api.CreateMessage(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			return Receipt{}, &Error{
				Provider: "twilio",
				Code:     restErr.Code,
				Status:   restErr.Status,
				Message:  restErr.Message,
			}
		}
		return Receipt{}, fmt.Errorf("twilio: create message: %w", err)
	}
	if msg == nil {
		return Receipt{}, errors.New("twilio: empty response")
	}

	var r Receipt
	if msg.Sid != nil {
		r.SID = *msg.Sid
	}
	if msg.Status != nil {
		r.Status = *msg.Status
	}
	return r, nil
}
