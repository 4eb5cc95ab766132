// SPDX-License-Identifier: MIT

// Package reports persists citizen reports created through the gateway.
package reports

import (
	"errors"
	"time"
)

// Submission channels. The gateway only ever writes USSD; the value is kept
// open for parity with the wider platform.
const ChannelUSSD = "USSD"

// Report lifecycle statuses.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
	StatusRejected   = "REJECTED"
)

var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusResolved:   true,
	StatusRejected:   true,
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s string) bool { return validStatuses[s] }

// ErrNotFound is returned when a report id or reference does not exist.
var ErrNotFound = errors.New("report not found")

// Report is a persisted citizen report.
type Report struct {
	ID            string    `json:"id"`
	Reference     string    `json:"reference"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	Channel       string    `json:"channel"`
	ReporterPhone string    `json:"reporterPhone,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewReport carries the fields of a report about to be created.
type NewReport struct {
	Category      string
	Description   string
	Address       string
	Channel       string
	ReporterPhone string
}
