// SPDX-License-Identifier: MIT

// Package at wraps the Africa's Talking messaging gateway.
package at

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abiahub/abiahub-gateway/internal/log"
)

// Result is the outcome of a send attempt. Status is "success" or "error";
// callers must check it instead of a Go error. Transport and provider
// failures never escape this package as errors so that a failed notification
// cannot abort the flow that triggered it.
type Result struct {
	Status     string `json:"status"`
	MessageID  string `json:"messageId,omitempty"`
	Cost       string `json:"cost,omitempty"`
	Recipients int    `json:"recipients,omitempty"`
	Error      string `json:"error,omitempty"`
}

// OK reports whether the send succeeded.
func (r Result) OK() bool { return r.Status == StatusSuccess }

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Config holds gateway credentials and endpoint.
type Config struct {
	BaseURL  string
	Username string
	APIKey   string
	SenderID string // default sender id, overridable per call
	Timeout  time.Duration
}

// Client is an HTTP client for the Africa's Talking SMS API.
type Client struct {
	base     string
	username string
	apiKey   string
	senderID string
	http     *http.Client
	logger   zerolog.Logger
}

// New creates a gateway client with a fixed request timeout.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		apiKey:   cfg.APIKey,
		senderID: cfg.SenderID,
		http:     &http.Client{Timeout: timeout},
		logger:   log.WithComponent("at"),
	}
}

// smsResponse mirrors the provider's reply envelope.
type smsResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			Number     string `json:"number"`
			Status     string `json:"status"`
			StatusCode int    `json:"statusCode"`
			MessageID  string `json:"messageId"`
			Cost       string `json:"cost"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// SendSMS delivers message to one or more phone numbers in international
// format. senderID overrides the configured default when non-empty. Message
// length is the provider's concern; none is enforced here.
func (c *Client) SendSMS(ctx context.Context, to []string, message, senderID string) Result {
	if len(to) == 0 {
		return c.fail("", "no recipients")
	}
	if strings.TrimSpace(message) == "" {
		return c.fail(to[0], "empty message")
	}

	form := url.Values{}
	form.Set("username", c.username)
	form.Set("to", strings.Join(to, ","))
	form.Set("message", message)
	if from := firstNonEmpty(senderID, c.senderID); from != "" {
		form.Set("from", from)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/version1/messaging", strings.NewReader(form.Encode()))
	if err != nil {
		return c.fail(to[0], fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", c.apiKey)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return c.fail(to[0], fmt.Sprintf("gateway request failed: %v", err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return c.fail(to[0], fmt.Sprintf("gateway returned HTTP %d", res.StatusCode))
	}

	var payload smsResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return c.fail(to[0], fmt.Sprintf("decode gateway response: %v", err))
	}
	recipients := payload.SMSMessageData.Recipients
	if len(recipients) == 0 {
		return c.fail(to[0], firstNonEmpty(payload.SMSMessageData.Message, "gateway accepted no recipients"))
	}

	first := recipients[0]
	if first.StatusCode >= 400 || (first.StatusCode == 0 && !strings.EqualFold(first.Status, "Success")) {
		return c.fail(first.Number, fmt.Sprintf("recipient rejected: %s", first.Status))
	}

	smsSentTotal.Add(float64(len(recipients)))
	c.logger.Debug().
		Int("recipients", len(recipients)).
		Dur("duration", time.Since(start)).
		Msg("sms sent")

	return Result{
		Status:     StatusSuccess,
		MessageID:  first.MessageID,
		Cost:       first.Cost,
		Recipients: len(recipients),
	}
}

func (c *Client) fail(recipient, reason string) Result {
	smsFailedTotal.Inc()
	c.logger.Error().
		Str("recipient", recipient).
		Str("reason", reason).
		Msg("sms send failed")
	return Result{Status: StatusError, Error: reason}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
