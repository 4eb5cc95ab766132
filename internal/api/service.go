// SPDX-License-Identifier: MIT

package api

import (
	"context"

	"github.com/abiahub/abiahub-gateway/internal/notify"
	"github.com/abiahub/abiahub-gateway/internal/reports"
	"github.com/abiahub/abiahub-gateway/internal/ussd"
)

// reportService adapts the report store and dispatcher to the state
// machine's collaborator interface. Report creation is the primary flow;
// the notifications hanging off it are best-effort.
type reportService struct {
	store    *reports.Store
	notifier *notify.Dispatcher
}

// NewReportService wires the USSD machine's reporting collaborator.
func NewReportService(store *reports.Store, notifier *notify.Dispatcher) ussd.ReportService {
	return &reportService{store: store, notifier: notifier}
}

func (s *reportService) CreateFromUSSD(ctx context.Context, phone, category, description, location string) (ussd.Report, error) {
	r, err := s.store.Create(ctx, reports.NewReport{
		Category:      category,
		Description:   description,
		Address:       location,
		Channel:       reports.ChannelUSSD,
		ReporterPhone: phone,
	})
	if err != nil {
		return ussd.Report{}, err
	}

	s.notifier.ReportCreated(ctx, r)
	s.notifier.NotifyOfficials(ctx, r, nil)

	return ussd.Report{Reference: r.Reference}, nil
}

func (s *reportService) StatusByReference(ctx context.Context, reference string) (string, bool) {
	r, err := s.store.ByReference(ctx, reference)
	if err != nil {
		return "", false
	}
	return r.Status, true
}
