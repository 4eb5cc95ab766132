// SPDX-License-Identifier: MIT

package ussd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abiahub_ussd_sessions_started_total",
		Help: "Number of new USSD conversations",
	})

	reportsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abiahub_ussd_reports_submitted_total",
		Help: "Number of reports created over USSD",
	})

	reportsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abiahub_ussd_reports_cancelled_total",
		Help: "Number of report submissions cancelled at the confirm step",
	})
)
