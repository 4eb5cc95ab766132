// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strings"

	"github.com/abiahub/abiahub-gateway/internal/log"
	"github.com/abiahub/abiahub-gateway/internal/ussd"
)

// handleUSSDCallback serves the telco gateway webhook. The contract is
// rigid: every request, whatever happens inside, gets a 200 with a
// "CON ..."/"END ..." plain-text body.
func (s *Server) handleUSSDCallback(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	if err := r.ParseForm(); err != nil {
		logger.Warn().Err(err).Msg("malformed ussd callback")
		writeReply(w, ussd.ServiceUnavailable())
		return
	}

	sessionID := strings.TrimSpace(r.PostForm.Get("sessionId"))
	phone := strings.TrimSpace(r.PostForm.Get("phoneNumber"))
	text := r.PostForm.Get("text")

	if sessionID == "" || phone == "" {
		logger.Warn().
			Bool("has_session", sessionID != "").
			Bool("has_phone", phone != "").
			Msg("ussd callback missing identifiers")
		writeReply(w, ussd.ServiceUnavailable())
		return
	}

	reply := s.step(r, sessionID, phone, lastSegment(text))
	writeReply(w, reply)
}

// step runs one machine transition under a recovery barrier so that no
// failure mode can leak a stack trace into the webhook response.
func (s *Server) step(r *http.Request, sessionID, phone, input string) (reply ussd.Reply) {
	defer func() {
		if p := recover(); p != nil {
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Error().
				Interface("panic", p).
				Str("session_id", sessionID).
				Msg("ussd step panicked")
			reply = ussd.ServiceUnavailable()
		}
	}()
	return s.machine.Handle(r.Context(), sessionID, phone, input)
}

// lastSegment extracts the newest keystroke from the gateway's cumulative
// "*"-delimited input history.
func lastSegment(text string) string {
	if idx := strings.LastIndex(text, "*"); idx >= 0 {
		return text[idx+1:]
	}
	return text
}

func writeReply(w http.ResponseWriter, reply ussd.Reply) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(reply.Render()))
}
