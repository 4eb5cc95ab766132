// SPDX-License-Identifier: MIT

// Package health provides health and readiness probes for the gateway.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Status represents the overall health/readiness status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one component check.
type CheckResult struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Checker is one probeable component (session store, report store, ...).
type Checker struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Manager aggregates component checks behind /healthz and /readyz.
type Manager struct {
	version  string
	checkers []Checker
}

// NewManager creates a health check manager.
func NewManager(version string) *Manager {
	return &Manager{version: version}
}

// Register adds a component checker.
func (m *Manager) Register(c Checker) {
	m.checkers = append(m.checkers, c)
}

type response struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

func (m *Manager) runChecks(ctx context.Context) (map[string]CheckResult, bool) {
	if len(m.checkers) == 0 {
		return nil, true
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	checks := make(map[string]CheckResult, len(m.checkers))
	ok := true
	for _, c := range m.checkers {
		if err := c.Probe(ctx); err != nil {
			checks[c.Name] = CheckResult{Status: StatusUnhealthy, Error: err.Error()}
			ok = false
			continue
		}
		checks[c.Name] = CheckResult{Status: StatusHealthy}
	}
	return checks, ok
}

// ServeHealth is the liveness probe: the process is up, so it answers 200.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{
		Status:    StatusHealthy,
		Version:   m.version,
		Timestamp: time.Now().UTC(),
	})
}

// ServeReady is the readiness probe: 200 only when every registered
// component answers its ping.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	checks, ok := m.runChecks(r.Context())
	status := StatusHealthy
	code := http.StatusOK
	if !ok {
		status = StatusUnhealthy
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response{
		Status:    status,
		Version:   m.version,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
