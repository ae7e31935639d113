package httpkit

import (
	"net/http"
	"strings"
)

// MountVersion mounts a subrouter under /{version}, applies mw, then calls
// mount to register module routes on it
//
//	httpkit.MountVersion(r, "v1", nil, func(v1 httpkit.Router) {
//	  intake.MountRoutes(v1)
//	})
func MountVersion(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountUnder(r, "/"+strings.Trim(version, "/"), mw, mount)
}
