package ui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erhsim/app"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewApp(app.NewSimulationService(nil, nil), nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody(t, resp)["status"])
}

func TestJudgesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/judges")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	judges, ok := decodeBody(t, resp)["judges"].([]interface{})
	require.True(t, ok)
	assert.Len(t, judges, 4)
	assert.Contains(t, judges, "noisy")
}

func TestRunEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/run", `{
		"world": {"num_actions": 300, "seed": 42},
		"judge": {"variant": "noisy"},
		"tau": 0.2
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["run_id"])
	assert.NotEmpty(t, body["fingerprint"])
	require.NotNil(t, body["series"])
	growth, ok := body["growth"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, growth, "estimated_exponent")
}

func TestRunEndpointDegenerateIsNot500(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/run", `{
		"world": {"num_actions": 200, "seed": 42},
		"judge": {"variant": "conservative", "threshold": 1.5},
		"tau": 0.2
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no_primes_found", decodeBody(t, resp)["marker"])
}

func TestRunEndpointConfigError(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/run", `{
		"world": {"num_actions": -1},
		"judge": {"variant": "noisy"},
		"tau": 0.2
	}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, decodeBody(t, resp)["error"])

	resp = postJSON(t, srv.URL+"/api/run", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompareEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/compare", `{
		"world": {"num_actions": 300, "seed": 42},
		"tau": 0.2
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	cmp, ok := body["comparison"].(map[string]interface{})
	require.True(t, ok)
	judges, ok := cmp["judges"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, judges, 4)
	assert.NotEmpty(t, body["rankings"])
}

func TestListRunsWithoutArchive(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/runs?limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	runs, ok := decodeBody(t, resp)["runs"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, runs)
}

func TestGetRunWithoutArchive(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/runs/0198f2a0-0000-7000-8000-000000000000")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, decodeBody(t, resp)["error"])
}
