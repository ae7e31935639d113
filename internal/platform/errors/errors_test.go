package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ErrorCodeDuplicateKey, http.StatusConflict},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeJSON, http.StatusBadRequest},
		{ErrorCodeTooLarge, http.StatusRequestEntityTooLarge},
		{ErrorCodeTooManyRequests, http.StatusTooManyRequests},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeTimeout, http.StatusGatewayTimeout},
		{ErrorCodeDB, http.StatusInternalServerError},
		{ErrorCodeUnknown, http.StatusInternalServerError},
		{9999, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("HTTPStatusCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestFromHTTPStatus(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorCode
	}{
		{404, ErrorCodeNotFound},
		{429, ErrorCodeTooManyRequests},
		{400, ErrorCodeInvalidArgument},
		{422, ErrorCodeInvalidArgument},
		{504, ErrorCodeTimeout},
		{500, ErrorCodeUnavailable},
		{503, ErrorCodeUnavailable},
		{418, ErrorCodeUnknown},
	}
	for _, c := range cases {
		if got := FromHTTPStatus(c.status); got != c.want {
			t.Fatalf("FromHTTPStatus(%d) = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestErrorRendering(t *testing.T) {
	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil render = %q", nilErr.Error())
	}

	e := Newf(ErrorCodeNotFound, "no operator for %s", "+15550001111")
	if e.Error() != "no operator for +15550001111" {
		t.Fatalf("Newf render = %q", e.Error())
	}

	w := WithOp(Wrap(stderrs.New("dial tcp: refused"), ErrorCodeUnavailable, "lookup"), "operators.get")
	if got := w.Error(); got != "operators.get: lookup: dial tcp: refused" {
		t.Fatalf("wrapped render = %q", got)
	}
	if Root(w).Error() != "dial tcp: refused" {
		t.Fatalf("Root = %v", Root(w))
	}
}

func TestCodeOfThroughForeignWrap(t *testing.T) {
	inner := New(ErrorCodeTooManyRequests, "slow down")
	outer := fmt.Errorf("batch 7: %w", inner)
	if !IsCode(outer, ErrorCodeTooManyRequests) {
		t.Fatalf("IsCode through fmt wrap failed: %v", CodeOf(outer))
	}
	if HTTPStatus(outer) != http.StatusTooManyRequests {
		t.Fatalf("HTTPStatus = %d", HTTPStatus(outer))
	}
	if CodeOf(stderrs.New("plain")) != ErrorCodeUnknown {
		t.Fatalf("foreign error must be Unknown")
	}
}

func TestWireAndMutators(t *testing.T) {
	if (WireFrom(nil) != Wire{}) {
		t.Fatalf("WireFrom(nil) must be zero")
	}
	e := WithField(Validationf("bad source"), "source")
	w := WireFrom(e)
	if w.Code != ErrorCodeValidation || w.Field != "source" || w.Message != "bad source" {
		t.Fatalf("wire = %+v", w)
	}
	plain := stderrs.New("x")
	if WithField(plain, "f") != plain || WithOp(plain, "o") != plain {
		t.Fatalf("mutators must pass foreign errors through")
	}
	if w := WireFrom(plain); w.Code != ErrorCodeUnknown || w.Message != "x" {
		t.Fatalf("foreign wire = %+v", w)
	}

	status, wire := HTTP(TooLargef("payload too large"))
	if status != http.StatusRequestEntityTooLarge || wire.Code != ErrorCodeTooLarge {
		t.Fatalf("HTTP() = %d %+v", status, wire)
	}
	if s, _ := HTTP(nil); s != http.StatusOK {
		t.Fatalf("HTTP(nil) = %d", s)
	}
}

func TestWrapIf(t *testing.T) {
	if WrapIf(nil, ErrorCodeDB, "x") != nil {
		t.Fatalf("WrapIf(nil) must be nil")
	}
	if !IsCode(WrapIf(stderrs.New("y"), ErrorCodeDB, "x"), ErrorCodeDB) {
		t.Fatalf("WrapIf must wrap")
	}
}

func TestErrorCodeString(t *testing.T) {
	if ErrorCodeTooLarge.String() != "too_large" {
		t.Fatalf("String = %q", ErrorCodeTooLarge.String())
	}
	if ErrorCode(999).String() != "code(999)" {
		t.Fatalf("unknown String = %q", ErrorCode(999).String())
	}
}
