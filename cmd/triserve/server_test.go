package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtri/webtri/static"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	wasm := fstest.MapFS{
		"main.wasm":    {Data: []byte("\x00asm\x01\x00\x00\x00")},
		"wasm_exec.js": {Data: []byte("// shim")},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newServer(log).router(static.FS, wasm)
}

func get(t *testing.T, h http.Handler, target string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Result()
}

func TestServesPage(t *testing.T) {
	h := testRouter(t)

	resp := get(t, h, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `<canvas id="canvas"`)

	resp = get(t, h, "/main.js")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "wasm loaded")
	assert.Contains(t, string(body), "error loading wasm")
}

func TestServesWasm(t *testing.T) {
	h := testRouter(t)

	resp := get(t, h, "/wasm/main.wasm")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/wasm", resp.Header.Get("Content-Type"))

	resp = get(t, h, "/wasm/missing.wasm")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestID(t *testing.T) {
	h := testRouter(t)

	resp := get(t, h, "/healthz")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc", rr.Header().Get("X-Request-ID"))
}

func TestMetricsCountRequests(t *testing.T) {
	h := testRouter(t)
	get(t, h, "/healthz")
	get(t, h, "/healthz")

	resp := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `triserve_http_requests_total{route="/healthz",status="204"} 2`),
		"metrics output:\n%s", body)
}
