// SPDX-License-Identifier: MIT

package at

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	smsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abiahub_sms_sent_total",
		Help: "Number of SMS recipients successfully handed to the gateway",
	})

	smsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abiahub_sms_failed_total",
		Help: "Number of SMS send attempts that failed",
	})
)
