package module

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"cdrflow/internal/core/cdr"
	"cdrflow/internal/modkit"
	"cdrflow/internal/modkit/httpkit"
	"cdrflow/internal/platform/config"
	phttp "cdrflow/internal/platform/net/http"
	kit "cdrflow/internal/platform/testkit"
	"cdrflow/internal/services/intake/domain"

	"github.com/go-chi/chi/v5"
)

const hdr = "id,callStartTime,callEndTime,fromNumber,toNumber,callType,region"

const row = "c-1,2024-01-01T10:00:00Z,2024-01-01T10:05:30Z,+14155552671,+442071838750,voice,us-west"

type fakeHandoff struct {
	mu      sync.Mutex
	batches []cdr.Batch
}

func (f *fakeHandoff) Submit(_ context.Context, b cdr.Batch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, b)
}

type fakeHealth struct{ err error }

func (f fakeHealth) Guard(context.Context) error { return f.err }

type envelope struct {
	StatusCode int             `json:"status_code"`
	Code       string          `json:"code"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
}

func mount(t *testing.T, deps modkit.Deps, h domain.HandoffPort, o Options) http.Handler {
	t.Helper()
	if deps.Cfg == (config.Conf{}) {
		deps.Cfg = config.New().Prefix("INTAKETEST_")
	}
	m := New(deps, o, modkit.WithPorts(h))
	r := phttp.AdaptChi(chi.NewRouter())
	httpkit.MountVersion(r, "v1", nil, m.MountRoutes)
	return r.Mux()
}

func do(t *testing.T, h http.Handler, method, path, ct, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func ackOf(t *testing.T, env envelope) domain.Ack {
	t.Helper()
	var ack domain.Ack
	if err := json.Unmarshal(env.Data, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	return ack
}

func TestNew_RequiresHandoff(t *testing.T) {
	t.Parallel()
	kit.MustPanic(t, func() { New(modkit.Deps{Cfg: config.New()}, Options{}) })
}

func TestFromConfig(t *testing.T) {
	t.Setenv("OPTS_INTAKE_MAX_BYTES", "1024")
	if got := FromConfig(config.New().Prefix("OPTS_")).MaxBytes; got != 1024 {
		t.Fatalf("max bytes = %d", got)
	}
	if got := FromConfig(config.New().Prefix("NOPE_")).MaxBytes; got != 16<<20 {
		t.Fatalf("default max bytes = %d", got)
	}
}

func TestSubmit_CSVAccepted(t *testing.T) {
	t.Parallel()
	h := &fakeHandoff{}
	srv := mount(t, modkit.Deps{}, h, Options{})

	rec, env := do(t, srv, http.MethodPost, "/v1/batches?source=switch-a", "text/csv", kit.CSV(hdr, row))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	ack := ackOf(t, env)
	if !ack.Accepted || ack.Records != 1 || ack.BatchID == "" {
		t.Fatalf("ack = %+v", ack)
	}
	if rec.Header().Get("X-Batch-ID") != ack.BatchID {
		t.Fatalf("X-Batch-ID = %q", rec.Header().Get("X-Batch-ID"))
	}
	if len(h.batches) != 1 || h.batches[0].Source != "switch-a" {
		t.Fatalf("handoff = %+v", h.batches)
	}
}

func TestSubmit_StripsByteOrderMark(t *testing.T) {
	t.Parallel()
	h := &fakeHandoff{}
	srv := mount(t, modkit.Deps{}, h, Options{})

	rec, env := do(t, srv, http.MethodPost, "/v1/batches", "text/plain; charset=utf-8", "\ufeff"+kit.CSV(hdr, row))
	ack := ackOf(t, env)
	if rec.Code != http.StatusAccepted || ack.Records != 1 || len(ack.Diagnostics) != 0 {
		t.Fatalf("status %d ack %+v", rec.Code, ack)
	}
}

func TestSubmit_DiagnosticsStillAccepted(t *testing.T) {
	t.Parallel()
	h := &fakeHandoff{}
	srv := mount(t, modkit.Deps{}, h, Options{})

	rec, env := do(t, srv, http.MethodPost, "/v1/batches", "text/csv", kit.CSV("a,b", row))
	ack := ackOf(t, env)
	if rec.Code != http.StatusAccepted || !ack.Accepted || ack.Records != 0 || len(ack.Diagnostics) != 1 {
		t.Fatalf("status %d ack %+v", rec.Code, ack)
	}
	if ack.Diagnostics[0].Row != 1 {
		t.Fatalf("row = %d", ack.Diagnostics[0].Row)
	}
	if len(h.batches) != 0 {
		t.Fatalf("unexpected handoff")
	}
}

func TestSubmit_TooLarge(t *testing.T) {
	t.Parallel()
	h := &fakeHandoff{}
	srv := mount(t, modkit.Deps{}, h, Options{MaxBytes: 32})

	for _, ct := range []string{"text/csv", "application/json"} {
		body := kit.CSV(hdr, row)
		if ct == "application/json" {
			body = `{"payload":"` + strings.Repeat("x", 64) + `"}`
		}
		rec, env := do(t, srv, http.MethodPost, "/v1/batches", ct, body)
		if rec.Code != http.StatusRequestEntityTooLarge || env.Code != "too_large" {
			t.Fatalf("%s: status %d env %+v", ct, rec.Code, env)
		}
		ack := ackOf(t, env)
		if ack.Accepted || ack.Error != "payload too large" {
			t.Fatalf("%s: ack %+v", ct, ack)
		}
	}
	if len(h.batches) != 0 {
		t.Fatalf("unexpected handoff")
	}
}

func TestSubmit_JSON(t *testing.T) {
	t.Parallel()
	h := &fakeHandoff{}
	srv := mount(t, modkit.Deps{}, h, Options{})

	body, _ := json.Marshal(domain.SubmitRequest{Payload: kit.CSV(hdr, row), Source: "sftp"})
	rec, env := do(t, srv, http.MethodPost, "/v1/batches", "application/json", string(body))
	if rec.Code != http.StatusAccepted || ackOf(t, env).Records != 1 {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	if h.batches[0].Source != "sftp" {
		t.Fatalf("source = %q", h.batches[0].Source)
	}

	rec, env = do(t, srv, http.MethodPost, "/v1/batches", "application/json", `{"payload":"x","extra":1}`)
	if rec.Code != http.StatusBadRequest || ackOf(t, env).Accepted {
		t.Fatalf("unknown field: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, _ = do(t, srv, http.MethodPost, "/v1/batches", "application/json", `{"payload":"x","source":"`+strings.Repeat("s", 65)+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("long source: status %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	h := &fakeHandoff{}

	rec, env := do(t, mount(t, modkit.Deps{Health: fakeHealth{}}, h, Options{}), http.MethodGet, "/v1/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	kit.MustContain(t, string(env.Data), `"status":"ok"`)

	rec, env = do(t, mount(t, modkit.Deps{Health: fakeHealth{errors.New("pg down")}}, h, Options{}), http.MethodGet, "/v1/healthz", "", "")
	if rec.Code != http.StatusServiceUnavailable || env.Code != "unavailable" {
		t.Fatalf("status %d env %+v", rec.Code, env)
	}
	kit.MustContain(t, string(env.Data), `"status":"degraded"`)
}

func TestModule_PrefixAndPorts(t *testing.T) {
	t.Parallel()
	m := New(modkit.Deps{Cfg: config.New()}, Options{}, modkit.WithPorts(domain.HandoffPort(&fakeHandoff{})), modkit.WithPrefix("/intake"))
	if m.Name() != "intake" {
		t.Fatalf("name = %q", m.Name())
	}
	if _, ok := modkit.PortsOf[domain.IntakePort](m); !ok {
		t.Fatalf("intake port missing")
	}
	r := phttp.AdaptChi(chi.NewRouter())
	m.MountRoutes(r)
	rec, _ := do(t, r.Mux(), http.MethodPost, "/intake/batches", "text/csv", kit.CSV(hdr, row))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
}
