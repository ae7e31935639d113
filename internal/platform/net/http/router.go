package http

import "net/http"

// Handler is the plain handler func every route takes
type Handler = func(http.ResponseWriter, *http.Request)

// Router is the seam modules mount routes on, so they never import chi
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Method(method, path string, h Handler)
	Handle(path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Group(fn func(Router))
	Route(pattern string, fn func(Router))
	Mux() http.Handler
}
