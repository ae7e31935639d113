package httpkit

import (
	"net/http"

	phttp "cdrflow/internal/platform/net/http"
	"cdrflow/internal/platform/net/http/bind"
)

// JSONOptions re-exports the bind options
type JSONOptions = bind.JSONOptions

// GetJSON mounts a body-less handler under GET
func GetJSON(r Router, path string, h func(*http.Request) (any, error)) {
	phttp.GetJSON(r, path, h)
}

// PostJSON mounts a JSON handler under POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error), opts ...JSONOptions) {
	phttp.PostJSON(r, path, h, opts...)
}

// Post mounts a Response-returning handler under POST; the handler reads the body itself
func Post(r Router, path string, h func(*http.Request) Response) {
	r.Post(path, Handle(h))
}

// ParseJSON binds and validates T from the request body
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	return bind.ParseJSON[T](r, opts...)
}
