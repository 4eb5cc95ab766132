// SPDX-License-Identifier: MIT

// Package notify composes and sends SMS notifications for report lifecycle
// events. Everything here is best-effort: a lost notification is logged and
// forgotten, it never fails the operation that triggered it.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/abiahub/abiahub-gateway/internal/at"
	"github.com/abiahub/abiahub-gateway/internal/log"
	"github.com/abiahub/abiahub-gateway/internal/reports"
)

// Sender delivers a single SMS. Satisfied by *at.Client.
type Sender interface {
	SendSMS(ctx context.Context, to []string, message, senderID string) at.Result
}

// Dispatcher formats report lifecycle messages and hands them to the gateway,
// pacing outbound sends so a burst of status updates cannot trip provider
// throttling.
type Dispatcher struct {
	sender    Sender
	officials []string // fallback official contacts when none are supplied
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

// Config tunes the dispatcher.
type Config struct {
	// Officials are the default official phone numbers notified about new
	// reports when the caller does not resolve a jurisdiction-specific list.
	Officials []string
	// SendsPerSecond caps outbound SMS throughput. Zero means 10/s.
	SendsPerSecond float64
}

// New creates a dispatcher around sender.
func New(sender Sender, cfg Config) *Dispatcher {
	perSecond := cfg.SendsPerSecond
	if perSecond <= 0 {
		perSecond = 10
	}
	return &Dispatcher{
		sender:    sender,
		officials: cfg.Officials,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), int(perSecond)),
		logger:    log.WithComponent("notify"),
	}
}

// ReportCreated confirms a submission to the reporter.
func (d *Dispatcher) ReportCreated(ctx context.Context, r reports.Report) {
	if r.ReporterPhone == "" {
		return
	}
	msg := fmt.Sprintf(
		"Your report has been received.\nReport ID: %s\nCategory: %s\nWe will keep you updated by SMS.",
		r.Reference, r.Category)
	d.send(ctx, r.ReporterPhone, msg, "report_created")
}

// StatusChanged tells the reporter about a lifecycle transition.
func (d *Dispatcher) StatusChanged(ctx context.Context, r reports.Report) {
	if r.ReporterPhone == "" {
		return
	}
	msg := fmt.Sprintf("Update on report %s: status is now %s.", r.Reference, r.Status)
	d.send(ctx, r.ReporterPhone, msg, "status_changed")
}

// RewardPaid tells the reporter the outcome of reward processing.
func (d *Dispatcher) RewardPaid(ctx context.Context, r reports.Report, amount, status string) {
	if r.ReporterPhone == "" {
		return
	}
	msg := fmt.Sprintf("Thank you for your report %s. Your reward of NGN %s is %s.",
		r.Reference, amount, status)
	d.send(ctx, r.ReporterPhone, msg, "reward")
}

// NotifyOfficials alerts officials about a new report, one message per
// official. When officials is empty the configured default list is used.
// An unreachable official never aborts delivery to the rest.
func (d *Dispatcher) NotifyOfficials(ctx context.Context, r reports.Report, officials []string) {
	if len(officials) == 0 {
		officials = d.officials
	}
	if len(officials) == 0 {
		return
	}
	msg := fmt.Sprintf("New %s report %s:\n%s\nLocation: %s",
		r.Category, r.Reference, r.Description, r.Address)
	for _, phone := range officials {
		d.send(ctx, phone, msg, "official_alert")
	}
}

func (d *Dispatcher) send(ctx context.Context, to, message, kind string) {
	if err := d.limiter.Wait(ctx); err != nil {
		d.logger.Warn().Err(err).Str("kind", kind).Msg("notification dropped before send")
		return
	}
	res := d.sender.SendSMS(ctx, []string{to}, message, "")
	if !res.OK() {
		d.logger.Warn().
			Str("kind", kind).
			Str("recipient", to).
			Str("reason", res.Error).
			Msg("notification not delivered")
		return
	}
	d.logger.Debug().
		Str("kind", kind).
		Str("recipient", to).
		Str("message_id", res.MessageID).
		Msg("notification sent")
}
