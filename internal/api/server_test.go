package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcastillo/inmoalert/internal/config"
	"github.com/jcastillo/inmoalert/internal/entities"
)

type stubRunner struct {
	ranAll    bool
	ranOne    int
	gotNotify bool
}

func (s *stubRunner) RunAll(_ context.Context, notify bool) entities.RunSummary {
	s.ranAll = true
	s.gotNotify = notify
	return entities.RunSummary{AlertsProcessed: 3, Errors: []string{}}
}

func (s *stubRunner) RunOne(_ context.Context, alertID int, notify bool) entities.RunSummary {
	s.ranOne = alertID
	s.gotNotify = notify
	return entities.RunSummary{AlertsProcessed: 1, Errors: []string{}}
}

func newTestServer() (*Server, *stubRunner) {
	runner := &stubRunner{}
	server := NewServer(config.APIConfig{Port: 0, AuthToken: "secret"}, runner)
	return server, runner
}

func doRequest(server *Server, method, path, token, body string) *httptest.ResponseRecorder {

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.http.Handler.ServeHTTP(recorder, req)
	return recorder
}

func Test_Server_Healthz_ShouldBeOpen(t *testing.T) {

	server, _ := newTestServer()

	resp := doRequest(server, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, resp.Code)
}

func Test_Server_TriggerRun_WithoutToken_ShouldBeUnauthorized(t *testing.T) {

	server, runner := newTestServer()

	resp := doRequest(server, http.MethodPost, "/api/v1/run", "", "{}")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.False(t, runner.ranAll)
}

func Test_Server_TriggerRun_WithWrongToken_ShouldBeUnauthorized(t *testing.T) {

	server, runner := newTestServer()

	resp := doRequest(server, http.MethodPost, "/api/v1/run", "wrong", "{}")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.False(t, runner.ranAll)
}

func Test_Server_TriggerRun_WithoutAlertID_ShouldRunAll(t *testing.T) {

	server, runner := newTestServer()

	resp := doRequest(server, http.MethodPost, "/api/v1/run", "secret", "{}")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, runner.ranAll)
	assert.True(t, runner.gotNotify, "notify defaults to true")
	assert.Contains(t, resp.Body.String(), "\"alertsProcessed\":3")
}

func Test_Server_TriggerRun_WithAlertID_ShouldRunOne(t *testing.T) {

	server, runner := newTestServer()

	resp := doRequest(server, http.MethodPost, "/api/v1/run", "secret", `{"alertId": 7, "notify": false}`)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 7, runner.ranOne)
	assert.False(t, runner.gotNotify)
}

func Test_Server_TriggerRun_WithMalformedBody_ShouldBeBadRequest(t *testing.T) {

	server, runner := newTestServer()

	resp := doRequest(server, http.MethodPost, "/api/v1/run", "secret", "{not json")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.False(t, runner.ranAll)
}
