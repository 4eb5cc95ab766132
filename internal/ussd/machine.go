// SPDX-License-Identifier: MIT

package ussd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/abiahub/abiahub-gateway/internal/log"
	"github.com/abiahub/abiahub-gateway/internal/session"
)

// Report is what the machine needs back from report creation.
type Report struct {
	Reference string
}

// ReportService is the reporting collaborator. The machine owns nothing past
// Create returning; the reporting subsystem does.
type ReportService interface {
	CreateFromUSSD(ctx context.Context, phone, category, description, location string) (Report, error)
	StatusByReference(ctx context.Context, reference string) (status string, found bool)
}

// Machine walks the report-submission menu. It is stateless compute over the
// session store: each webhook callback loads the session, applies one input
// and stores the result.
type Machine struct {
	sessions session.Store
	reports  ReportService
	logger   zerolog.Logger
}

// NewMachine wires the menu over its collaborators.
func NewMachine(sessions session.Store, reports ReportService) *Machine {
	return &Machine{
		sessions: sessions,
		reports:  reports,
		logger:   log.WithComponent("ussd"),
	}
}

// Handle applies one input to the session and returns the next reply.
// An empty input always restarts at the root menu, which is also the default
// for unknown session ids (first callback of a conversation).
func (m *Machine) Handle(ctx context.Context, sessionID, phone, text string) Reply {
	data, found := m.sessions.Get(ctx, sessionID)
	if !found {
		data = session.Data{State: StateMainMenu}
		sessionsStarted.Inc()
	}

	if text == "" {
		reply := Continue(StateMainMenu, mainMenuText)
		m.persist(ctx, sessionID, data, reply)
		return reply
	}

	input := strings.TrimSpace(text)

	var reply Reply
	switch data.State {
	case StateMainMenu:
		reply = m.handleMainMenu(input)
	case StateReportCategory:
		reply = m.handleCategory(input, &data)
	case StateReportDescription:
		reply = m.handleDescription(text, &data)
	case StateReportLocation:
		reply = m.handleLocation(text, &data)
	case StateReportConfirm:
		reply = m.handleConfirm(ctx, input, phone, data)
	case StateCheckStatus:
		reply = m.handleCheckStatus(ctx, input)
	default:
		// Unknown stored state (schema drift, terminal re-entry): restart.
		data = session.Data{State: StateMainMenu}
		reply = Continue(StateMainMenu, mainMenuText)
	}

	m.persist(ctx, sessionID, data, reply)
	return reply
}

// persist stores the session for continuation replies. Ended sessions are
// left to age out with the TTL.
func (m *Machine) persist(ctx context.Context, sessionID string, data session.Data, reply Reply) {
	if reply.End {
		return
	}
	data.State = reply.State
	m.sessions.Put(ctx, sessionID, data)
}

func (m *Machine) handleMainMenu(input string) Reply {
	switch input {
	case "1":
		return Continue(StateReportCategory, categoryMenuText)
	case "2":
		return Continue(StateCheckStatus, statusPrompt)
	case "3":
		// Informational detour; the session stays at the root menu.
		return Continue(StateMainMenu, emergencyMenuText)
	case "4":
		return End(goodbyeText)
	default:
		// Bad input at the root menu re-shows the menu without an error
		// message. Category selection below does show one; the asymmetry
		// matches the production UX and stays until product says otherwise.
		return Continue(StateMainMenu, mainMenuText)
	}
}

func (m *Machine) handleCategory(input string, data *session.Data) Reply {
	if input == "0" {
		return Continue(StateMainMenu, mainMenuText)
	}
	category, ok := categories[input]
	if !ok {
		return Continue(StateReportCategory, invalidCategory)
	}
	data.Category = category
	return Continue(StateReportDescription, descriptionPrompt)
}

func (m *Machine) handleDescription(text string, data *session.Data) Reply {
	if len(strings.TrimSpace(text)) < 10 {
		return Continue(StateReportDescription, descriptionTooShort)
	}
	data.Description = text
	return Continue(StateReportLocation, locationPrompt)
}

func (m *Machine) handleLocation(text string, data *session.Data) Reply {
	if len(strings.TrimSpace(text)) < 5 {
		return Continue(StateReportLocation, locationTooShort)
	}
	data.Location = text
	return Continue(StateReportConfirm, confirmSummary(data.Category, data.Description, data.Location))
}

func (m *Machine) handleConfirm(ctx context.Context, input, phone string, data session.Data) Reply {
	if input != "1" {
		reportsCancelled.Inc()
		return End(cancelledText)
	}

	report, err := m.reports.CreateFromUSSD(ctx, phone, data.Category, data.Description, data.Location)
	if err != nil {
		m.logger.Error().Err(err).
			Str("phone", phone).
			Str("category", data.Category).
			Msg("failed to create report via ussd")
		return End(submitFailedText)
	}

	reportsSubmitted.Inc()
	return End(fmt.Sprintf("Report submitted successfully.\nReport ID: %s", report.Reference))
}

func (m *Machine) handleCheckStatus(ctx context.Context, reference string) Reply {
	status, found := m.reports.StatusByReference(ctx, reference)
	if !found {
		return End(fmt.Sprintf("No report found for ID %s.", reference))
	}
	return End(fmt.Sprintf("Report %s status: %s", reference, status))
}
