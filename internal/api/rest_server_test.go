package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/noisefield/internal/cache"
	"github.com/annel0/noisefield/internal/noise"
	"github.com/annel0/noisefield/internal/sampler"
	"github.com/annel0/noisefield/internal/storage"
)

func newTestServer(t *testing.T) *RestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewInMemoryFieldStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	repo := cache.NewMemoryCache(&cache.CacheConfig{}, store)
	t.Cleanup(func() { repo.Close() })

	reg := prometheus.NewRegistry()
	svc := sampler.NewService(sampler.Options{
		Cache:   repo,
		Workers: 2,
		Limits:  sampler.Limits{MaxResolution: 32, MaxPoints: 16},
		Metrics: sampler.NewMetrics(reg),
	})
	return NewRestServer(Config{Service: svc, Cache: repo, Store: store, Registry: reg})
}

func doJSON(t *testing.T, rs *RestServer, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) GenericResponse {
	t.Helper()
	resp := GenericResponse{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func fieldRequest() sampler.Request {
	return sampler.Request{
		Kind:       "simplex",
		Dimensions: 2,
		Settings:   noise.DefaultSettings(),
		Domain:     noise.UniformTRS(4),
		Shape:      "plane",
		Resolution: 8,
	}
}

func TestHealth(t *testing.T) {
	rs := newTestServer(t)
	w := doJSON(t, rs, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestKinds(t *testing.T) {
	rs := newTestServer(t)
	w := doJSON(t, rs, http.MethodGet, "/api/kinds", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var kinds KindsResponse
	resp := decode(t, w, &kinds)
	assert.True(t, resp.Success)
	assert.Contains(t, kinds.Kinds, "perlin")
	assert.Contains(t, kinds.Kinds, "voronoi-chebyshev-f2-minus-f1")
	assert.Contains(t, kinds.Kinds, "legacy-perlin")
	assert.Contains(t, kinds.Shapes, "torus")
}

func TestSample(t *testing.T) {
	rs := newTestServer(t)
	body := map[string]interface{}{
		"kind":       "value",
		"dimensions": 3,
		"settings":   noise.DefaultSettings(),
		"points":     [][3]float32{{0.1, 0.2, 0.3}, {1.5, -2, 0.25}, {4, 4, 4}},
	}
	w := doJSON(t, rs, http.MethodPost, "/api/noise/sample", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out SampleResponse
	decode(t, w, &out)
	require.Len(t, out.Values, 3)
	// одна октава с persistence 0.5 даёт удвоенное значение шума
	for _, v := range out.Values {
		assert.GreaterOrEqual(t, v, float32(-2.0001))
		assert.LessOrEqual(t, v, float32(2.0001))
	}
}

func TestSample_Errors(t *testing.T) {
	rs := newTestServer(t)

	w := doJSON(t, rs, http.MethodPost, "/api/noise/sample", map[string]interface{}{
		"kind": "nope", "dimensions": 2, "settings": noise.DefaultSettings(),
		"points": [][3]float32{{0, 0, 0}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "неизвестный тип шума")

	points := make([][3]float32, 17)
	w = doJSON(t, rs, http.MethodPost, "/api/noise/sample", map[string]interface{}{
		"kind": "value", "dimensions": 2, "settings": noise.DefaultSettings(), "points": points,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "превышен лимит точек")

	req := httptest.NewRequest(http.MethodPost, "/api/noise/sample", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	rs.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "битый JSON")
}

func TestField_CachedOnSecondCall(t *testing.T) {
	rs := newTestServer(t)

	var first sampler.Field
	w := doJSON(t, rs, http.MethodPost, "/api/noise/field", fieldRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &first)
	assert.False(t, first.Cached)
	assert.Len(t, first.Values, 64)

	var second sampler.Field
	w = doJSON(t, rs, http.MethodPost, "/api/noise/field", fieldRequest())
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &second)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Values, second.Values)

	w = doJSON(t, rs, http.MethodDelete, "/api/noise/field", fieldRequest())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), first.Key)
}

func TestField_InvalidateForcesRegeneration(t *testing.T) {
	rs := newTestServer(t)
	require.Equal(t, http.StatusOK, doJSON(t, rs, http.MethodPost, "/api/noise/field", fieldRequest()).Code)
	require.Equal(t, http.StatusOK, doJSON(t, rs, http.MethodDelete, "/api/noise/field", fieldRequest()).Code)

	var field sampler.Field
	w := doJSON(t, rs, http.MethodPost, "/api/noise/field", fieldRequest())
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &field)
	assert.False(t, field.Cached, "после DELETE поле не отдаётся из хранилища")
}

func TestHash(t *testing.T) {
	rs := newTestServer(t)
	req := sampler.HashRequest{Seed: 5, Domain: noise.UniformTRS(8), Shape: "sphere", Resolution: 4}

	var field sampler.HashField
	w := doJSON(t, rs, http.MethodPost, "/api/noise/hash", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &field)
	assert.Equal(t, 4, field.Resolution)
	assert.Len(t, field.Hashes, 16)
	assert.Len(t, field.Colors, 16)
	for _, c := range field.Colors {
		for _, v := range c {
			assert.True(t, v >= 0 && v <= 1)
		}
	}

	req.Resolution = 64
	assert.Equal(t, http.StatusBadRequest, doJSON(t, rs, http.MethodPost, "/api/noise/hash", req).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, rs, http.MethodPost, "/api/noise/hash", "oops").Code)
}

func TestField_ResolutionLimit(t *testing.T) {
	rs := newTestServer(t)
	req := fieldRequest()
	req.Resolution = 64
	w := doJSON(t, rs, http.MethodPost, "/api/noise/field", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsAndMetrics(t *testing.T) {
	rs := newTestServer(t)
	require.Equal(t, http.StatusOK, doJSON(t, rs, http.MethodPost, "/api/noise/field", fieldRequest()).Code)

	stats := map[string]interface{}{}
	w := doJSON(t, rs, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &stats)
	assert.Contains(t, stats, "server")
	assert.Contains(t, stats, "cache")
	assert.Contains(t, stats, "limits")
	assert.EqualValues(t, 2, stats["workers"])
	assert.NotContains(t, stats, "invalidations")
	assert.EqualValues(t, 1, stats["stored_fields"])

	w = doJSON(t, rs, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "noisefield_http_request_duration_seconds")
	assert.Contains(t, body, "noisefield_samples_total")
}

func TestCORSPreflight(t *testing.T) {
	rs := newTestServer(t)
	w := doJSON(t, rs, http.MethodOptions, "/api/kinds", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
