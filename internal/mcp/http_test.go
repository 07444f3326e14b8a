package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/brainlib/internal/library"
)

func TestHandler_Healthz(t *testing.T) {
	// Given: the HTTP handler over an index with content
	s := newTestServer(t, &fakeIndex{stats: library.Stats{Files: 1, Chunks: 2}})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	// When: the health endpoint is requested
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Then: it reports ok with index counts
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, healthResponse{
		Status:  "ok",
		Server:  "brain-library",
		Version: "1.0.0",
		Files:   1,
		Chunks:  2,
	}, body)
}

func TestHandler_UnknownRoute(t *testing.T) {
	s := newTestServer(t, &fakeIndex{})
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_MCPEndpointRejectsPlainGet(t *testing.T) {
	// A GET without an MCP session is not a valid streamable request.
	s := newTestServer(t, &fakeIndex{})
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MCPPath, nil))

	assert.GreaterOrEqual(t, rec.Code, 400)
}
