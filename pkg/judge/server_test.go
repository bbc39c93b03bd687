package judge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxyprobe/pkg/probe"
)

func newJudge(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(nil)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv
}

func TestEchoContract(t *testing.T) {
	_, srv := newJudge(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/get", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "contract-test/1.0")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Headers map[string]string `json:"headers"`
		Origin  string            `json:"origin"`
		URL     string            `json:"url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	// Forwarded chain first, then the peer address, the way httpbin reports it.
	assert.True(t, strings.HasPrefix(body.Origin, "203.0.113.9, "), "origin %q", body.Origin)
	assert.Equal(t, "contract-test/1.0", body.Headers["User-Agent"])
	assert.Equal(t, "203.0.113.9", body.Headers["X-Forwarded-For"])
	assert.NotEmpty(t, body.Headers["Host"])
	assert.Contains(t, body.URL, "/get")
}

func TestEchoWithoutForwarding(t *testing.T) {
	_, srv := newJudge(t)

	resp, err := srv.Client().Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Origin string `json:"origin"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "127.0.0.1", body.Origin)
}

// TestProbeDecodesJudgeResponse closes the loop: the echo probe used during
// checks must understand what this server answers.
func TestProbeDecodesJudgeResponse(t *testing.T) {
	_, srv := newJudge(t)

	echo, err := probe.FetchEcho(context.Background(), srv.Client(), srv.URL+"/get", "probe/1.0")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", echo.Origin)
	assert.Equal(t, "probe/1.0", echo.Headers["User-Agent"])
}

func TestMethodNotAllowed(t *testing.T) {
	s, srv := newJudge(t)

	resp, err := srv.Client().Post(srv.URL+"/get", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.EqualValues(t, 1, s.getStats().FailedRequests)
}

func TestNotFound(t *testing.T) {
	s, srv := newJudge(t)

	resp, err := srv.Client().Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.EqualValues(t, 1, s.getStats().FailedRequests)
}

func TestStatsEndpoint(t *testing.T) {
	_, srv := newJudge(t)

	for i := 0; i < 3; i++ {
		resp, err := srv.Client().Get(srv.URL + "/get")
		require.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := srv.Client().Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		RequestsHandled int64 `json:"requests_handled"`
		FailedRequests  int64 `json:"failed_requests"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 3, body.RequestsHandled)
	assert.EqualValues(t, 0, body.FailedRequests)
}

func TestHealthEndpoint(t *testing.T) {
	_, srv := newJudge(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "OK"))
}

func TestStopWithoutStart(t *testing.T) {
	s := NewServer(&Config{ListenAddr: "127.0.0.1:0"})
	assert.NoError(t, s.Stop(context.Background()))
}
