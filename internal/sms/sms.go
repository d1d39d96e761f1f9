// Package sms sends text messages through the Aakash SMS HTTP gateway.
package sms

import (
	"context"
)

// Status is the outcome class of a send.
type Status string

const (
	// StatusSent means the gateway accepted the message.
	StatusSent Status = "sent"
	// StatusSimulated means no gateway token is configured; the message was only logged.
	StatusSimulated Status = "simulated"
	// StatusFailed means a network error or gateway rejection.
	StatusFailed Status = "failed"
)

// Result describes one send. Response carries the gateway's decoded reply when there is one.
type Result struct {
	Status   Status `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Response any    `json:"response,omitempty"`
}

// OK reports whether the flow can treat the send as delivered (sent or simulated).
func (r Result) OK() bool {
	return r.Status == StatusSent || r.Status == StatusSimulated
}

// Sender delivers a text message to one or more comma-separated numbers. Send never returns an
// error; failures are reported in the Result so callers never roll back committed state.
type Sender interface {
	Send(ctx context.Context, to, text string) Result
}

// Failed builds a failed Result.
func Failed(reason string) Result {
	return Result{Status: StatusFailed, Reason: reason}
}
