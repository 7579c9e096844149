// Package email delivers team notices through an external mail provider.
package email

import (
	"context"
	"time"
)

// SendRequest is one rendered notice addressed to its recipients.
type SendRequest struct {
	To      []string
	From    string // empty uses the sender's default
	ReplyTo string // empty uses the sender's default, if any
	Subject string
	HTML    string
}

// SendResult identifies an accepted message at the provider.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender hands notices to a provider. Implementations do not retry; the
// outbox worker owns retries and backoff.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
	// SendBatch returns results in request order.
	SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error)
}
