package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evan-idocoding/clientkit/geo"
	"github.com/evan-idocoding/clientkit/httpx"
	"github.com/evan-idocoding/clientkit/ops"
)

type errorResponse struct {
	Error string `json:"error"`
	IP    string `json:"ip,omitempty"`
}

type ipResponse struct {
	IP string `json:"ip"`
}

func newRouter(resolver *geo.Resolver, reg *prometheus.Registry, lv *slog.LevelVar, logger *slog.Logger, timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(
		httpx.Recover(httpx.WithRecoverLogger(logger)),
		httpx.RequestID(),
	)

	r.Method(http.MethodGet, "/healthz", ops.HealthzHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Handle("/admin/log-level", ops.LogLevelHandler(lv))

	r.Route("/v1", func(r chi.Router) {
		r.Use(
			httpx.Timeout(timeout, httpx.WithTimeoutLogger(logger)),
			render.SetContentType(render.ContentTypeJSON),
		)
		r.With(geo.ClientIPMiddleware(resolver)).Get("/ip", handleIP)
		r.With(geo.Middleware(resolver)).Get("/whoami", handleWhoami)
	})
	return r
}

func handleIP(w http.ResponseWriter, r *http.Request) {
	ip, ok := geo.ClientIPFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: "client ip unavailable"})
		return
	}
	render.JSON(w, r, ipResponse{IP: ip})
}

func handleWhoami(w http.ResponseWriter, r *http.Request) {
	ip, _ := geo.ClientIPFromContext(r.Context())
	loc, ok := geo.LocationFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: "location unavailable", IP: ip})
		return
	}
	render.JSON(w, r, loc)
}
