package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cdrflow/internal/modkit/httpkit"
	phttp "cdrflow/internal/platform/net/http"
	"cdrflow/internal/platform/store"
	kit "cdrflow/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
)

type Greeter interface{ Greet() string }

type hello struct{}

func (hello) Greet() string { return "hi" }

type fakeModule struct{ ports any }

func (f fakeModule) MountRoutes(phttp.Router) {}
func (f fakeModule) Ports() any              { return f.ports }
func (f fakeModule) Name() string            { return "fake" }

func TestPortsOf(t *testing.T) {
	t.Parallel()
	type bundle struct {
		G       Greeter
		private Greeter
	}
	cases := []struct {
		name  string
		ports any
		ok    bool
	}{
		{"direct", hello{}, true},
		{"struct field", bundle{G: hello{}}, true},
		{"pointer to struct", &bundle{G: hello{}}, true},
		{"unexported only", bundle{private: hello{}}, false},
		{"nil", nil, false},
		{"scalar", 3, false},
	}
	for _, tc := range cases {
		g, ok := PortsOf[Greeter](fakeModule{ports: tc.ports})
		if ok != tc.ok {
			t.Fatalf("%s: ok = %v", tc.name, ok)
		}
		if ok && g.Greet() != "hi" {
			t.Fatalf("%s: wrong port", tc.name)
		}
	}
	kit.MustPanic(t, func() { MustPortsOf[Greeter](fakeModule{}) })
}

func TestBuild_DefaultsAndOverrides(t *testing.T) {
	t.Parallel()
	b := Build()
	if b.Subrouter == nil || b.Register == nil {
		t.Fatalf("default hooks missing")
	}

	mw := func(next http.Handler) http.Handler { return next }
	registered := false
	b = Build(
		WithName("intake"),
		WithPrefix("/batches"),
		WithMiddlewares(mw, mw),
		WithPorts(hello{}),
		WithRegister(func(httpkit.Router) { registered = true }),
	)
	if b.Name != "intake" || b.Prefix != "/batches" || len(b.Mw) != 2 {
		t.Fatalf("built = %+v", b)
	}
	if g, ok := Injected[Greeter](b); !ok || g.Greet() != "hi" {
		t.Fatalf("ports not injected")
	}
	if _, ok := Injected[interface{ Nope() }](b); ok {
		t.Fatalf("unexpected port match")
	}
	r := phttp.AdaptChi(chi.NewRouter())
	if b.Subrouter(r) != r {
		t.Fatalf("default subrouter should be identity")
	}
	b.Register(r)
	if !registered {
		t.Fatalf("register not called")
	}
}

func TestFromStore(t *testing.T) {
	t.Parallel()
	d := FromStore(Deps{}.Log, Deps{}.Cfg, nil)
	if d.PG != nil || d.Health != nil {
		t.Fatalf("nil store should leave backends empty")
	}
	st := &store.Store{}
	d = FromStore(d.Log, d.Cfg, st)
	if d.Health == nil {
		t.Fatalf("health not wired")
	}
}

func TestMountVersion(t *testing.T) {
	t.Parallel()
	r := phttp.AdaptChi(chi.NewRouter())
	httpkit.MountVersion(r, "/v1/", nil, func(v1 httpkit.Router) {
		httpkit.GetJSON(v1, "/ping", func(*http.Request) (any, error) { return "pong", nil })
	})
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
