package domain

import (
	"context"
	"time"
)

// Outcome classifies a single gateway call.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeProviderError  Outcome = "provider_error"
	OutcomeTransportError Outcome = "transport_error"
)

// GatewayCall describes one outbound provider request after it completed.
type GatewayCall struct {
	Kind     string // weather | forecast | news
	City     string
	Outcome  Outcome
	Detail   string // provider message or error text; empty on success
	Duration time.Duration
	At       time.Time
}

// CallRecorder persists or aggregates completed gateway calls.
type CallRecorder interface {
	Record(ctx context.Context, call GatewayCall) error
}
