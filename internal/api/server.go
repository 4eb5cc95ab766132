// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of the gateway: the USSD webhook,
// internal notification hooks and the health probes.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/abiahub/abiahub-gateway/internal/config"
	"github.com/abiahub/abiahub-gateway/internal/health"
	"github.com/abiahub/abiahub-gateway/internal/log"
	"github.com/abiahub/abiahub-gateway/internal/notify"
	"github.com/abiahub/abiahub-gateway/internal/reports"
	"github.com/abiahub/abiahub-gateway/internal/ussd"
)

// Server holds the gateway's HTTP handlers and their collaborators.
type Server struct {
	cfg      config.AppConfig
	machine  *ussd.Machine
	reports  *reports.Store
	notifier *notify.Dispatcher
	sms      notify.Sender
	health   *health.Manager
	logger   zerolog.Logger
}

// Deps bundles the collaborators the server is wired with.
type Deps struct {
	Config   config.AppConfig
	Machine  *ussd.Machine
	Reports  *reports.Store
	Notifier *notify.Dispatcher
	SMS      notify.Sender
	Health   *health.Manager
}

// New creates the API server.
func New(deps Deps) *Server {
	return &Server{
		cfg:      deps.Config,
		machine:  deps.Machine,
		reports:  deps.Reports,
		notifier: deps.Notifier,
		sms:      deps.SMS,
		health:   deps.Health,
		logger:   log.WithComponent("api"),
	}
}

// Handler builds the router with the canonical middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(Metrics())
	r.Use(log.Middleware())
	if s.cfg.RateLimitRPM > 0 {
		r.Use(httprate.Limit(
			s.cfg.RateLimitRPM,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(rateLimited),
		))
	}

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Post("/ussd/callback", s.handleUSSDCallback)

	r.Route("/internal", func(r chi.Router) {
		r.Post("/sms/send", s.handleSendSMS)
		r.Post("/reports/{id}/status", s.handleStatusUpdate)
		r.Post("/reports/{id}/reward", s.handleReward)
	})

	return r
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","detail":"Too many requests. Please try again later."}`))
}
