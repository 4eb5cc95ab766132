// SPDX-License-Identifier: MIT

package at

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(baseURL string) *Client {
	return New(Config{
		BaseURL:  baseURL,
		Username: "sandbox",
		APIKey:   "test-key",
		SenderID: "ABIAHUB",
	})
}

func TestSendSMS_Success(t *testing.T) {
	var gotPath, gotAPIKey, gotTo, gotFrom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("apiKey")
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotTo = r.PostForm.Get("to")
		gotFrom = r.PostForm.Get("from")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"SMSMessageData": {
				"Message": "Sent to 1/1 Total Cost: NGN 2.2000",
				"Recipients": [{
					"number": "+2348012345678",
					"status": "Success",
					"statusCode": 101,
					"messageId": "ATXid_abc123",
					"cost": "NGN 2.2000"
				}]
			}
		}`))
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).SendSMS(context.Background(),
		[]string{"+2348012345678"}, "Your report has been received.", "")

	if !res.OK() {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.MessageID != "ATXid_abc123" {
		t.Errorf("unexpected message id %q", res.MessageID)
	}
	if res.Cost != "NGN 2.2000" {
		t.Errorf("unexpected cost %q", res.Cost)
	}
	if res.Recipients != 1 {
		t.Errorf("expected 1 recipient, got %d", res.Recipients)
	}
	if gotPath != "/version1/messaging" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("unexpected apiKey header %q", gotAPIKey)
	}
	if gotTo != "+2348012345678" {
		t.Errorf("unexpected to field %q", gotTo)
	}
	if gotFrom != "ABIAHUB" {
		t.Errorf("expected default sender id, got %q", gotFrom)
	}
}

func TestSendSMS_SenderIDOverride(t *testing.T) {
	var gotFrom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotFrom = r.PostForm.Get("from")
		_, _ = w.Write([]byte(`{"SMSMessageData":{"Recipients":[{"number":"+2348012345678","status":"Success","statusCode":101,"messageId":"x","cost":"NGN 2.2000"}]}}`))
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).SendSMS(context.Background(),
		[]string{"+2348012345678"}, "hello there citizen", "ABIAGOV")
	if !res.OK() {
		t.Fatalf("expected success, got %+v", res)
	}
	if gotFrom != "ABIAGOV" {
		t.Errorf("expected per-call sender id, got %q", gotFrom)
	}
}

func TestSendSMS_GatewayHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).SendSMS(context.Background(),
		[]string{"+2348012345678"}, "hello there citizen", "")
	if res.OK() {
		t.Fatal("expected error result")
	}
	if res.Error == "" {
		t.Error("expected non-empty error message")
	}
}

func TestSendSMS_UnreachableGatewayNeverPanics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	res := newTestClient(srv.URL).SendSMS(context.Background(),
		[]string{"+2348012345678"}, "hello there citizen", "")
	if res.Status != StatusError {
		t.Fatalf("expected error status, got %q", res.Status)
	}
	if res.Error == "" {
		t.Error("expected non-empty error message")
	}
}

func TestSendSMS_RecipientRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"SMSMessageData":{"Message":"Sent to 0/1","Recipients":[{"number":"+2348012345678","status":"InvalidPhoneNumber","statusCode":403}]}}`))
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).SendSMS(context.Background(),
		[]string{"+2348012345678"}, "hello there citizen", "")
	if res.OK() {
		t.Fatal("expected error result for rejected recipient")
	}
}

func TestSendSMS_NoRecipients(t *testing.T) {
	res := newTestClient("http://127.0.0.1:0").SendSMS(context.Background(), nil, "hi", "")
	if res.OK() {
		t.Fatal("expected error result for empty recipient list")
	}
}

func TestSendSMS_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).SendSMS(context.Background(),
		[]string{"+2348012345678"}, "hello there citizen", "")
	if res.OK() {
		t.Fatal("expected error result for malformed response")
	}
}
