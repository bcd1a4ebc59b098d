// Package http wires the chi router that fronts the websocket upgrade
// endpoints plus the operator-facing /healthz and /metrics routes
// (SUPPLEMENTED FEATURES).
package http

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/netio/ws"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/observability"
)

// HealthStatus is the JSON body returned by /healthz.
type HealthStatus struct {
	Tick        int    `json:"tick"`
	Connections int    `json:"connections"`
	LogEvents   uint64 `json:"logEvents"`
	LogDropped  uint64 `json:"logDropped"`
}

// NewRouter builds the full HTTP mux: websocket upgrades at / and
// /spectator, plus /healthz and /metrics.
func NewRouter(handler *ws.Handler, health func() HealthStatus, obs observability.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET"},
		AllowCredentials: false,
		MaxAge:           int(time.Hour / time.Second),
	}))

	r.Get("/", handler.ServePlayer)
	r.Get("/spectator", handler.ServeSpectator)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health())
	})
	r.Handle("/metrics", promhttp.Handler())

	if obs.EnablePprofTrace {
		r.HandleFunc("/debug/pprof/*", pprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	return r
}
