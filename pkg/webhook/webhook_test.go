package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/logwindow/pkg/config"
	"github.com/ccollicutt/logwindow/pkg/output"
)

func newTestReport() *output.Report {
	return &output.Report{
		Status:  output.StatusCritical,
		Message: `There are 3 instances of "ERROR" in the last 5 minutes`,
		Check: output.Check{
			Logfile:  "/var/log/app.log",
			Pattern:  "ERROR",
			Interval: 5,
			Warning:  1,
			Critical: 2,
		},
		Summary: output.Summary{
			TotalMatches:   3,
			FilesProcessed: 1,
			Candidates:     1,
		},
		Metadata: output.Metadata{
			CheckedAt: time.Now(),
			Duration:  time.Second,
		},
	}
}

func TestClient_Send_Success(t *testing.T) {
	var receivedBody []byte
	var receivedContentType string
	var receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		receivedAuth = r.Header.Get("Authorization")
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewClient()
	report := newTestReport()

	resp := client.Send(context.Background(), report, SendOptions{
		URL: server.URL,
	})

	if !resp.Success() {
		t.Errorf("expected success, got error: %v", resp.Error)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	if resp.Body != `{"status":"ok"}` {
		t.Errorf("unexpected body: %s", resp.Body)
	}

	if receivedContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", receivedContentType)
	}

	if receivedAuth != "" {
		t.Errorf("expected no auth header, got %s", receivedAuth)
	}

	// Verify payload is valid JSON containing expected fields
	var payload map[string]interface{}
	if err := json.Unmarshal(receivedBody, &payload); err != nil {
		t.Errorf("failed to parse received payload: %v", err)
	}

	if _, ok := payload["summary"]; !ok {
		t.Error("payload missing summary field")
	}
	if payload["status"] != "CRITICAL" {
		t.Errorf("payload status = %v, want CRITICAL", payload["status"])
	}
}

func TestClient_Send_CheckHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	tests := []struct {
		name    string
		report  *output.Report
		status  string
		matches string
		logfile string
	}{
		{name: "critical", report: newTestReport(), status: "CRITICAL", matches: "3", logfile: "/var/log/app.log"},
		{
			name:   "config error",
			report: output.NewErrorReport(config.ErrPatternRequired, nil, time.Now()),
			status: "UNKNOWN", matches: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewClient().Send(context.Background(), tt.report, SendOptions{URL: server.URL})
			if !resp.Success() {
				t.Fatalf("Send() error = %v", resp.Error)
			}
			if v := got.Get(HeaderStatus); v != tt.status {
				t.Errorf("%s = %q, want %q", HeaderStatus, v, tt.status)
			}
			if v := got.Get(HeaderMatches); v != tt.matches {
				t.Errorf("%s = %q, want %q", HeaderMatches, v, tt.matches)
			}
			if v := got.Get(HeaderLogfile); v != tt.logfile {
				t.Errorf("%s = %q, want %q", HeaderLogfile, v, tt.logfile)
			}
		})
	}
}

func TestClient_Send_WithBearerToken(t *testing.T) {
	var receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient()
	report := newTestReport()

	resp := client.Send(context.Background(), report, SendOptions{
		URL:   server.URL,
		Token: "secret-token-123",
	})

	if !resp.Success() {
		t.Errorf("expected success, got error: %v", resp.Error)
	}

	if receivedAuth != "Bearer secret-token-123" {
		t.Errorf("expected Bearer token, got %s", receivedAuth)
	}
}

func TestClient_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
	}))
	defer server.Close()

	client := NewClient()
	report := newTestReport()

	resp := client.Send(context.Background(), report, SendOptions{
		URL: server.URL,
	})

	if resp.Success() {
		t.Error("expected failure, got success")
	}

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", resp.StatusCode)
	}

	if resp.Error == nil {
		t.Error("expected error to be set")
	}
}

func TestClient_Send_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient()
	report := newTestReport()

	resp := client.Send(context.Background(), report, SendOptions{
		URL:     server.URL,
		Timeout: 50 * time.Millisecond,
	})

	if resp.Success() {
		t.Error("expected failure due to timeout")
	}

	if resp.Error == nil {
		t.Error("expected error to be set")
	}
}

func TestClient_Send_InvalidURL(t *testing.T) {
	client := NewClient()
	report := newTestReport()

	resp := client.Send(context.Background(), report, SendOptions{
		URL: "://invalid-url",
	})

	if resp.Success() {
		t.Error("expected failure for invalid URL")
	}

	if resp.Error == nil {
		t.Error("expected error to be set")
	}
}

func TestClient_Send_ConnectionRefused(t *testing.T) {
	client := NewClient()
	report := newTestReport()

	resp := client.Send(context.Background(), report, SendOptions{
		URL:     "http://127.0.0.1:59999", // Unlikely to be listening
		Timeout: 100 * time.Millisecond,
	})

	if resp.Success() {
		t.Error("expected failure for connection refused")
	}

	if resp.Error == nil {
		t.Error("expected error to be set")
	}
}

func TestResponse_Success(t *testing.T) {
	tests := []struct {
		name        string
		resp        Response
		wantSuccess bool
	}{
		{"200 OK", Response{StatusCode: 200}, true},
		{"201 Created", Response{StatusCode: 201}, true},
		{"204 No Content", Response{StatusCode: 204}, true},
		{"400 Bad Request", Response{StatusCode: 400}, false},
		{"500 Server Error", Response{StatusCode: 500}, false},
		{"With Error", Response{StatusCode: 200, Error: io.EOF}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resp.Success(); got != tt.wantSuccess {
				t.Errorf("Success() = %v, want %v", got, tt.wantSuccess)
			}
		})
	}
}

func TestShouldFire(t *testing.T) {
	tests := []struct {
		trigger  config.WebhookTrigger
		alerting bool
		want     bool
	}{
		{config.WebhookTriggerAlways, false, true},
		{config.WebhookTriggerAlways, true, true},
		{config.WebhookTriggerNever, true, false},
		{config.WebhookTriggerOnAlert, true, true},
		{config.WebhookTriggerOnAlert, false, false},
		{"", true, true},
	}

	for _, tt := range tests {
		if got := ShouldFire(tt.trigger, tt.alerting); got != tt.want {
			t.Errorf("ShouldFire(%q, %v) = %v, want %v", tt.trigger, tt.alerting, got, tt.want)
		}
	}
}

func TestClient_Dispatch(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	hooks := []config.WebhookConfig{
		{Name: "alerts", URL: server.URL, Trigger: config.WebhookTriggerOnAlert},
		{Name: "audit", URL: server.URL, Trigger: config.WebhookTriggerAlways},
		{Name: "off", URL: server.URL, Trigger: config.WebhookTriggerNever},
		{Name: "broken", URL: failing.URL, Trigger: config.WebhookTriggerAlways},
	}

	report := newTestReport()
	if sent := NewClient().Dispatch(context.Background(), hooks, report, zerolog.Nop()); sent != 2 {
		t.Errorf("Dispatch() sent = %d, want 2", sent)
	}
	if hits != 2 {
		t.Errorf("server hits = %d, want 2", hits)
	}

	hits = 0
	report.Status = output.StatusOK
	if sent := NewClient().Dispatch(context.Background(), hooks, report, zerolog.Nop()); sent != 1 {
		t.Errorf("Dispatch() sent = %d, want 1 for an OK report", sent)
	}
}
