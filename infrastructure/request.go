package infrastructure

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// PathUint parses a numeric path variable registered on the route.
func PathUint(r *http.Request, name string) (uint, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, Validation("missing path parameter %q", name)
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, Validation("invalid %q: %s", name, raw)
	}
	return uint(v), nil
}

// QueryInt parses an optional integer query parameter.
func QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
