// Package domain defines the intake ports and the acknowledgement returned to batch callers
package domain

import (
	"context"

	"cdrflow/internal/core/cdr"
)

// Ack acknowledges a batch once parsing is done. Accepted means the payload
// was consumed; it says nothing about enrichment or persistence, which run
// later. Diagnostics are informational and do not make a batch unaccepted.
type Ack struct {
	Accepted    bool                  `json:"accepted"`
	Error       string                `json:"error,omitempty"`
	BatchID     string                `json:"batchId,omitempty"`
	Records     int                   `json:"records"`
	Diagnostics []cdr.ParseDiagnostic `json:"diagnostics"`
}

// Rejected builds an unaccepted Ack
func Rejected(msg string) Ack {
	return Ack{Accepted: false, Error: msg, Diagnostics: []cdr.ParseDiagnostic{}}
}

// IntakePort is the batch intake boundary
type IntakePort interface {
	HandleBatch(ctx context.Context, payload string) Ack
	HandleBatchFrom(ctx context.Context, payload, source string) Ack
}

// HandoffPort submits a parsed batch for asynchronous processing.
// Fire and forget: at most once, no result.
type HandoffPort interface {
	Submit(ctx context.Context, batch cdr.Batch)
}

// SubmitRequest is the JSON form of a batch upload
type SubmitRequest struct {
	Payload string `json:"payload"`
	Source  string `json:"source" validate:"omitempty,max=64"`
}
