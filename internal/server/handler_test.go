package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
)

type fakeRunner struct {
	analysis string
	err      error
}

func (f *fakeRunner) OnDemand(ctx context.Context) (string, error) {
	return f.analysis, f.err
}

func newTestRouter(runner AnalysisRunner, token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(runner, token, nil)
	r.POST("/intel", h.HandleIntel)
	r.GET("/health", h.HandleHealth)
	return r
}

func postForm(r *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/intel", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

// followUp captures the payload delivered to a slash command response_url.
func followUp(t *testing.T) (*httptest.Server, chan map[string]string) {
	t.Helper()
	got := make(chan map[string]string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("unmarshal follow-up: %v", err)
		}
		got <- payload
	}))
	t.Cleanup(server.Close)
	return server, got
}

func waitFollowUp(t *testing.T, got chan map[string]string) map[string]string {
	t.Helper()
	select {
	case payload := <-got:
		return payload
	case <-time.After(3 * time.Second):
		t.Fatal("no follow-up delivered")
		return nil
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&fakeRunner{}, "tok")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"status":"healthy"}`, w.Body.String())
}

func TestIntelRejectsBadToken(t *testing.T) {
	r := newTestRouter(&fakeRunner{}, "tok")

	w := postForm(r, url.Values{"token": {"wrong"}, "command": {"/intel"}})

	assert.Equal(t, http.StatusForbidden, w.Code)
	if !strings.Contains(w.Body.String(), "Invalid token") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestIntelUnknownCommand(t *testing.T) {
	r := newTestRouter(&fakeRunner{}, "tok")

	w := postForm(r, url.Values{"token": {"tok"}, "command": {"/weather"}})

	assert.Equal(t, http.StatusOK, w.Code)
	if !strings.Contains(w.Body.String(), "Unknown command") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestIntelAcksAndDeliversAnalysis(t *testing.T) {
	callback, got := followUp(t)
	r := newTestRouter(&fakeRunner{analysis: "Acme raised $5M"}, "tok")

	w := postForm(r, url.Values{
		"token":        {"tok"},
		"command":      {"/intel"},
		"response_url": {callback.URL},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	if !strings.Contains(w.Body.String(), "Fetching latest competitive intelligence") {
		t.Fatalf("unexpected ack: %s", w.Body.String())
	}

	payload := waitFollowUp(t, got)
	assert.Equal(t, "in_channel", payload["response_type"])
	assert.Equal(t, "📊 *Latest Competitive Intelligence*\n\nAcme raised $5M", payload["text"])
}

func TestIntelDeliversEmptyResult(t *testing.T) {
	callback, got := followUp(t)
	r := newTestRouter(&fakeRunner{analysis: ""}, "tok")

	postForm(r, url.Values{
		"token":        {"tok"},
		"command":      {"/intel"},
		"response_url": {callback.URL},
	})

	payload := waitFollowUp(t, got)
	if !strings.Contains(payload["text"], "No significant developments detected") {
		t.Fatalf("unexpected text: %s", payload["text"])
	}
}

func TestIntelDeliversServiceIssue(t *testing.T) {
	callback, got := followUp(t)
	r := newTestRouter(&fakeRunner{err: context.DeadlineExceeded}, "tok")

	postForm(r, url.Values{
		"token":        {"tok"},
		"command":      {"/intel"},
		"response_url": {callback.URL},
	})

	payload := waitFollowUp(t, got)
	if !strings.Contains(payload["text"], "Service Issue") {
		t.Fatalf("unexpected text: %s", payload["text"])
	}
}
