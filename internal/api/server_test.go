// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abiahub/abiahub-gateway/internal/at"
	"github.com/abiahub/abiahub-gateway/internal/config"
	"github.com/abiahub/abiahub-gateway/internal/health"
	"github.com/abiahub/abiahub-gateway/internal/notify"
	"github.com/abiahub/abiahub-gateway/internal/reports"
	"github.com/abiahub/abiahub-gateway/internal/session"
	"github.com/abiahub/abiahub-gateway/internal/ussd"
)

// atStub records SMS sends the way the Africa's Talking API would.
type atStub struct {
	mu       sync.Mutex
	messages []url.Values
}

func (a *atStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		a.mu.Lock()
		a.messages = append(a.messages, r.PostForm)
		a.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"SMSMessageData":{"Recipients":[{"number":"+2348012345678","status":"Success","statusCode":101,"messageId":"ATXid_1","cost":"NGN 2.2000"}]}}`))
	})
}

func (a *atStub) sent() []url.Values {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]url.Values(nil), a.messages...)
}

type testEnv struct {
	srv     *httptest.Server
	gateway *atStub
	reports *reports.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)
	sessions := session.NewRedisStoreWithClient(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}), 2*time.Minute)

	store, err := reports.Open(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	gateway := &atStub{}
	gwSrv := httptest.NewServer(gateway.handler())
	t.Cleanup(gwSrv.Close)

	smsClient := at.New(at.Config{
		BaseURL:  gwSrv.URL,
		Username: "sandbox",
		APIKey:   "test-key",
		SenderID: "ABIAHUB",
	})
	dispatcher := notify.New(smsClient, notify.Config{SendsPerSecond: 1000})
	machine := ussd.NewMachine(sessions, NewReportService(store, dispatcher))

	hm := health.NewManager("test")
	hm.Register(health.Checker{Name: "sessions", Probe: sessions.Ping})
	hm.Register(health.Checker{Name: "reports", Probe: store.Ping})

	cfg := config.Defaults()
	cfg.RateLimitRPM = 0 // not under test here

	server := New(Deps{
		Config:   cfg,
		Machine:  machine,
		Reports:  store,
		Notifier: dispatcher,
		SMS:      smsClient,
		Health:   hm,
	})
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, gateway: gateway, reports: store}
}

func (e *testEnv) ussd(t *testing.T, sessionID, text string) string {
	t.Helper()
	form := url.Values{
		"sessionId":   {sessionID},
		"phoneNumber": {"+2348012345678"},
		"text":        {text},
	}
	res, err := http.PostForm(e.srv.URL+"/ussd/callback", form)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(body)
}

func TestUSSDSubmissionOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	const sid = "ATUid_http_1"

	// The gateway sends cumulative *-joined input; only the last segment
	// is the new keystroke.
	body := env.ussd(t, sid, "")
	assert.True(t, strings.HasPrefix(body, "CON Welcome to AbiaHub"), body)

	body = env.ussd(t, sid, "1")
	assert.Contains(t, body, "Select Report Category:")

	body = env.ussd(t, sid, "1*1")
	assert.Contains(t, body, "Enter report description:")

	body = env.ussd(t, sid, "1*1*Pothole on Main Street near market")
	assert.Contains(t, body, "Enter location (LGA, Area):")

	body = env.ussd(t, sid, "1*1*Pothole on Main Street near market*Aba South, Ariaria")
	assert.Contains(t, body, "Confirm Report Details:")
	assert.Contains(t, body, "Category: INFRASTRUCTURE")

	body = env.ussd(t, sid, "1*1*Pothole on Main Street near market*Aba South, Ariaria*1")
	require.True(t, strings.HasPrefix(body, "END "), body)
	assert.Contains(t, body, "Report submitted successfully")

	// The report landed in the store with channel USSD.
	ref := strings.TrimSpace(strings.Split(body, "Report ID:")[1])
	stored, err := env.reports.ByReference(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, reports.ChannelUSSD, stored.Channel)
	assert.Equal(t, "INFRASTRUCTURE", stored.Category)
	assert.Equal(t, "+2348012345678", stored.ReporterPhone)

	// A confirmation SMS went through the gateway.
	sent := env.gateway.sent()
	require.NotEmpty(t, sent)
	assert.Equal(t, "+2348012345678", sent[0].Get("to"))
	assert.Contains(t, sent[0].Get("message"), ref)
}

func TestUSSDCancellationOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	const sid = "ATUid_http_2"

	env.ussd(t, sid, "")
	env.ussd(t, sid, "1")
	env.ussd(t, sid, "1*2")
	env.ussd(t, sid, "1*2*No patrols in our area at night")
	env.ussd(t, sid, "1*2*No patrols in our area at night*Ohafia")

	body := env.ussd(t, sid, "1*2*No patrols in our area at night*Ohafia*2")
	assert.Equal(t, "END Report cancelled.", body)
	assert.Empty(t, env.gateway.sent())
}

func TestUSSDMalformedCallbackKeepsContract(t *testing.T) {
	env := newTestEnv(t)

	res, err := http.PostForm(env.srv.URL+"/ussd/callback", url.Values{"text": {"1"}})
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()

	// Even garbage gets a 200 with a well-formed END body.
	assert.Equal(t, http.StatusOK, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	assert.True(t, strings.HasPrefix(string(body), "END "), string(body))
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	res, err := http.Get(env.srv.URL + "/healthz")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(env.srv.URL + "/readyz")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestInternalSendSMS(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"to":["+2348012345678"],"message":"Town hall meeting on Friday"}`
	res, err := http.Post(env.srv.URL+"/internal/sms/send", "application/json",
		bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var result at.Result
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	assert.Equal(t, at.StatusSuccess, result.Status)
	assert.Equal(t, "ATXid_1", result.MessageID)
}

func TestInternalSendSMSValidation(t *testing.T) {
	env := newTestEnv(t)

	res, err := http.Post(env.srv.URL+"/internal/sms/send", "application/json",
		bytes.NewBufferString(`{"message":"no recipients"}`))
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestStatusUpdateNotifiesReporter(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.reports.Create(context.Background(), reports.NewReport{
		Category:      "HEALTH",
		Description:   "No nurses at the health centre",
		Address:       "Ohafia, Amaekpu",
		ReporterPhone: "+2348012345678",
	})
	require.NoError(t, err)

	res, err := http.Post(env.srv.URL+"/internal/reports/"+created.ID+"/status",
		"application/json", bytes.NewBufferString(`{"status":"IN_PROGRESS"}`))
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var updated reports.Report
	require.NoError(t, json.NewDecoder(res.Body).Decode(&updated))
	assert.Equal(t, reports.StatusInProgress, updated.Status)

	sent := env.gateway.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Get("message"), "IN_PROGRESS")
}

func TestStatusUpdateUnknownReport(t *testing.T) {
	env := newTestEnv(t)

	res, err := http.Post(env.srv.URL+"/internal/reports/nope/status",
		"application/json", bytes.NewBufferString(`{"status":"RESOLVED"}`))
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRewardNotification(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.reports.Create(context.Background(), reports.NewReport{
		Category:      "ENVIRONMENT",
		Description:   "Refuse heap blocking the drainage",
		Address:       "Osisioma, Aba",
		ReporterPhone: "+2348012345678",
	})
	require.NoError(t, err)

	res, err := http.Post(env.srv.URL+"/internal/reports/"+created.ID+"/reward",
		"application/json", bytes.NewBufferString(`{"amount":"500.00","status":"PAID"}`))
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusAccepted, res.StatusCode)

	sent := env.gateway.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Get("message"), "NGN 500.00")
}
