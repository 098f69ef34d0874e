// Package hxmountecho provides Echo framework integration for hxmount.
//
// Mount serves component state, default properties and metrics on an Echo
// instance or group:
//
//	e := echo.New()
//	reg := hxmountecho.Mount(e)
//	reg.Defaults.Set(hxmount.Props{"verbose": true}, "my-card")
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	reg := hxmountecho.MountGroup(g, hxmountecho.WithRegistry(reg))
package hxmountecho

import (
	"encoding/json"
	"maps"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm/hxmount"
)

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	reg      *hxmount.Registry
	path     string
	gatherer prometheus.Gatherer
}

// WithRegistry serves reg instead of a new registry.
func WithRegistry(reg *hxmount.Registry) Option {
	return func(o *options) {
		o.reg = reg
	}
}

// WithPath sets the URL path prefix of the routes. Defaults to "/_hx/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithMetrics serves the metrics of g under "{path}metrics".
func WithMetrics(g prometheus.Gatherer) Option {
	return func(o *options) {
		o.gatherer = g
	}
}

// router is the subset of *echo.Echo and *echo.Group Mount needs.
type router interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// Mount registers the hxmount routes on an Echo instance and makes the
// served registry the default one.
//
//	GET  {path}state/:key        persisted state of key
//	PUT  {path}state/:key        merge a JSON object into the state of key
//	                             (POST is accepted too), announced through
//	                             an HX-Trigger header
//	GET  {path}defaults/:selector default properties of selector
//	GET  {path}metrics           Prometheus metrics, with WithMetrics
func Mount(e *echo.Echo, opts ...Option) *hxmount.Registry {
	return mount(e, opts)
}

// MountGroup registers the hxmount routes on an Echo group. This allows the
// routes to share middleware with the group (auth, logging, etc.).
func MountGroup(g *echo.Group, opts ...Option) *hxmount.Registry {
	return mount(g, opts)
}

func mount(r router, opts []Option) *hxmount.Registry {
	o := &options{path: "/_hx/"}
	for _, opt := range opts {
		opt(o)
	}
	if !strings.HasSuffix(o.path, "/") {
		o.path += "/"
	}
	if o.reg == nil {
		o.reg = hxmount.NewRegistry()
	}
	hxmount.SetDefault(o.reg)

	h := &handlers{reg: o.reg}
	r.GET(o.path+"state/:key", h.getState)
	r.PUT(o.path+"state/:key", h.putState, requireHXRequest)
	r.POST(o.path+"state/:key", h.putState, requireHXRequest)
	r.GET(o.path+"defaults/:selector", h.getDefaults)
	if o.gatherer != nil {
		r.GET(o.path+"metrics", echo.WrapHandler(promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})))
	}
	return o.reg
}

// requireHXRequest rejects mutating requests that do not carry the
// HX-Request header htmx sends, which cross-origin forms can not set.
func requireHXRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsHTMX(c) {
			return echo.NewHTTPError(http.StatusForbidden, "missing HX-Request header")
		}
		return next(c)
	}
}

type handlers struct {
	reg *hxmount.Registry
}

func (h *handlers) store(key string) (*hxmount.StateStore, error) {
	s := hxmount.NewStateStore(h.reg.Storage(), h.reg.Codec())
	if err := s.Bind(true, key); err != nil {
		return nil, err
	}
	return s, nil
}

func (h *handlers) getState(c echo.Context) error {
	s, err := h.store(c.Param("key"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, s.Get(c.Request().Context()))
}

func (h *handlers) putState(c echo.Context) error {
	// Decoded directly: c.Bind would also copy the path params into the map.
	var partial hxmount.State
	if err := json.NewDecoder(c.Request().Body).Decode(&partial); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "state must be a JSON object")
	}
	s, err := h.store(c.Param("key"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	merged := s.Get(ctx)
	maps.Copy(merged, partial)
	if err := s.Set(ctx, merged); err != nil {
		return err
	}
	state := s.Get(ctx)
	c.Response().Header().Set("HX-Trigger", BuildTriggerHeader(StateEvent, map[string]any{
		"key":    c.Param("key"),
		"status": state.Status(),
	}))
	return c.JSON(http.StatusOK, state)
}

func (h *handlers) getDefaults(c echo.Context) error {
	return c.JSON(http.StatusOK, h.reg.Defaults.Get(c.Param("selector")))
}

// Render writes a templ component, typically a dom.Document, to the Echo
// response.
//
//	func handler(c echo.Context) error {
//	    return hxmountecho.Render(c, doc)
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
