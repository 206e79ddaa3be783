package registry

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Errors returned when building a registry.
var (
	ErrUnknownModel = errors.New("model has no field projection")
	ErrMissingRoute = errors.New("model has no route")
	ErrInvalidURL   = errors.New("subservice URL must be an absolute http(s) URL")
)

// defaultRoutes are the addresses of the local subservices.
var defaultRoutes = map[ModelID]string{
	LLM: "http://localhost:8001/generate",
	TTI: "http://localhost:8002/generate",
	TTA: "http://localhost:8003/generate",
	ITV: "http://localhost:8004/generate",
}

// Route is one registry entry.
type Route struct {
	Model  ModelID  `json:"model_id"`
	URL    string   `json:"url"`
	Fields []string `json:"fields"`
}

// Registry maps model identifiers to subservice URLs. It is built once and
// never modified, so it can be shared between goroutines without locking.
type Registry struct {
	routes map[ModelID]string
}

// DefaultRoutes returns a copy of the built-in routing table.
func DefaultRoutes() map[ModelID]string {
	out := make(map[ModelID]string, len(defaultRoutes))
	for k, v := range defaultRoutes {
		out[k] = v
	}
	return out
}

// New builds a registry from routes. Its key set must match the projection
// table exactly and every URL must be absolute.
func New(routes map[ModelID]string) (*Registry, error) {
	r := &Registry{routes: make(map[ModelID]string, len(routes))}
	for id, raw := range routes {
		if _, ok := projections[id]; !ok {
			return nil, fmt.Errorf("registry: %w: %q", ErrUnknownModel, id)
		}
		u, err := normalizeURL(raw)
		if err != nil {
			return nil, fmt.Errorf("registry: model %q: %w", id, err)
		}
		r.routes[id] = u
	}
	for id := range projections {
		if _, ok := r.routes[id]; !ok {
			return nil, fmt.Errorf("registry: %w: %q", ErrMissingRoute, id)
		}
	}
	return r, nil
}

// Default builds the registry from the built-in routing table.
func Default() *Registry {
	r, err := New(defaultRoutes)
	if err != nil {
		panic(err)
	}
	return r
}

// WithOverrides returns a copy of routes where every non-empty override
// replaces the matching entry.
func WithOverrides(routes map[ModelID]string, overrides map[ModelID]string) map[ModelID]string {
	out := make(map[ModelID]string, len(routes))
	for k, v := range routes {
		out[k] = v
	}
	for k, v := range overrides {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}

// Lookup returns the subservice URL for id.
func (r *Registry) Lookup(id ModelID) (string, bool) {
	u, ok := r.routes[id]
	return u, ok
}

// Has reports whether id is routable.
func (r *Registry) Has(id ModelID) bool {
	_, ok := r.routes[id]
	return ok
}

// Len returns the number of routes.
func (r *Registry) Len() int {
	return len(r.routes)
}

// Routes lists all entries sorted by model identifier.
func (r *Registry) Routes() []Route {
	out := make([]Route, 0, len(r.routes))
	for id, u := range r.routes {
		fields, _ := ProjectedFields(id)
		out = append(out, Route{Model: id, URL: u, Fields: fields})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u.String(), nil
}
