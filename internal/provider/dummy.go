package provider

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dummy pretends to be an SMS provider. Useful for local runs.
type Dummy struct {
	Latency        time.Duration
	FailurePercent int
}

func NewDummy(latency time.Duration, failurePercent int) *Dummy {
	return &Dummy{Latency: latency, FailurePercent: failurePercent}
}

// Factory ignores the credentials; every request shares the same Dummy.
func (d *Dummy) Factory() Factory {
	return func(Credentials) (Provider, error) { return d, nil }
}

func (d *Dummy) Send(ctx context.Context, from, to, body string) (Receipt, error) {
	if d.Latency > 0 {
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-time.After(d.Latency):
		}
	}
	if d.FailurePercent > 0 && rand.IntN(100) < d.FailurePercent {
		return Receipt{}, errors.New("provider_temporary_error")
	}
	return Receipt{SID: "SM" + strings.ReplaceAll(uuid.NewString(), "-", ""), Status: "queued"}, nil
}
