// Package http provides the HTTP transport for batch intake
package http

import (
	"context"
	"errors"
	"io"
	"mime"
	stdhttp "net/http"

	"cdrflow/internal/modkit/httpkit"
	perr "cdrflow/internal/platform/errors"
	"cdrflow/internal/platform/logger"
	"cdrflow/internal/services/intake/domain"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Options configures the intake endpoints
type Options struct {
	// MaxBytes caps the request body
	MaxBytes int64

	// Health is pinged by /healthz; nil reports ok
	Health interface {
		Guard(ctx context.Context) error
	}
}

// Register mounts POST /batches and GET /healthz
func Register(r httpkit.Router, svc domain.IntakePort, opts Options) {
	h := &handlers{svc: svc, opts: opts}
	httpkit.Post(r, "/batches", h.submit)
	httpkit.GetJSON(r, "/healthz", h.healthz)
}

type handlers struct {
	svc  domain.IntakePort
	opts Options
}

// submit accepts text/csv, text/plain or application/json {"payload","source"}
func (h *handlers) submit(r *stdhttp.Request) httpkit.Response {
	payload, source, err := h.read(r)
	if err != nil {
		msg := "unreadable body"
		if perr.IsCode(err, perr.ErrorCodeTooLarge) {
			msg = "payload too large"
		}
		logger.C(r.Context()).Warn().Err(err).Msg("batch rejected before parsing")
		return httpkit.ErrorWith(err, domain.Rejected(msg))
	}

	ack := h.svc.HandleBatchFrom(r.Context(), payload, source)
	if !ack.Accepted {
		return httpkit.ErrorWith(perr.Internalf("%s", ack.Error), ack)
	}
	resp := httpkit.Accepted(ack)
	if ack.BatchID != "" {
		resp = resp.WithHeader("X-Batch-ID", ack.BatchID)
	}
	return resp
}

func (h *handlers) read(r *stdhttp.Request) (payload, source string, err error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		in, err := httpkit.ParseJSON[domain.SubmitRequest](r, httpkit.JSONOptions{MaxBytes: h.opts.MaxBytes, DisallowUnknown: true})
		if err != nil {
			return "", "", err
		}
		return in.Payload, in.Source, nil
	}

	defer func() { _ = r.Body.Close() }()
	var body io.Reader = r.Body
	if h.opts.MaxBytes > 0 {
		body = stdhttp.MaxBytesReader(nil, r.Body, h.opts.MaxBytes)
	}
	b, err := io.ReadAll(transform.NewReader(body, unicode.BOMOverride(transform.Nop)))
	if err != nil {
		var mbe *stdhttp.MaxBytesError
		if errors.As(err, &mbe) {
			return "", "", perr.TooLargef("body exceeds %d bytes", mbe.Limit)
		}
		return "", "", perr.Wrap(err, perr.ErrorCodeValidation, "unreadable body")
	}
	return string(b), r.URL.Query().Get("source"), nil
}

type health struct {
	Status string `json:"status"`
}

func (h *handlers) healthz(r *stdhttp.Request) (any, error) {
	out := health{Status: "ok"}
	if h.opts.Health != nil {
		if err := h.opts.Health.Guard(r.Context()); err != nil {
			out.Status = "degraded"
			return httpkit.ErrorWith(perr.Wrap(err, perr.ErrorCodeUnavailable, "backend unavailable"), out), nil
		}
	}
	return out, nil
}
