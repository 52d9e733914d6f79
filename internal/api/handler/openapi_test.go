package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	specpkg "github.com/daap14/roster/api"
	"github.com/daap14/roster/internal/api/handler"
)

const testYAML = `openapi: "3.0.3"
info:
  title: Test API
  version: "1.0.0"
paths: {}
`

func TestOpenAPIHandler_ReturnsJSON(t *testing.T) {
	t.Parallel()

	h := handler.NewOpenAPIHandler([]byte(testYAML))
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("Cache-Control"))

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), "response should be valid JSON")
	assert.Equal(t, "3.0.3", result["openapi"])
	info := result["info"].(map[string]interface{})
	assert.Equal(t, "Test API", info["title"])
	assert.Contains(t, result, "paths")
}

func TestOpenAPIHandler_YAMLFormat(t *testing.T) {
	t.Parallel()

	h := handler.NewOpenAPIHandler([]byte(testYAML))
	req := httptest.NewRequest(http.MethodGet, "/openapi.json?format=yaml", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	assert.Equal(t, testYAML, w.Body.String())
}

func TestOpenAPIHandler_InvalidYAML_Returns500(t *testing.T) {
	t.Parallel()

	h := handler.NewOpenAPIHandler([]byte(`{{{not yaml at all}}}`))
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := parseEnvelope(t, w)
	assert.Nil(t, env["data"])
	assert.Equal(t, "INTERNAL_ERROR", env["error"].(map[string]interface{})["code"])
}

func TestOpenAPIHandler_CachesConversion(t *testing.T) {
	t.Parallel()

	h := handler.NewOpenAPIHandler([]byte(testYAML))

	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, w1.Body.String(), w2.Body.String(), "cached response should be identical")
}

func TestOpenAPIHandler_EmbeddedSpec(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, specpkg.OpenAPISpec, "embedded OpenAPI document should not be empty")

	h := handler.NewOpenAPIHandler(specpkg.OpenAPISpec)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), "embedded document should produce valid JSON")
	paths := result["paths"].(map[string]interface{})
	assert.Contains(t, paths, "/api/records")
	assert.Contains(t, paths, "/api/records/{id}")
	assert.Contains(t, paths, "/health")
}
