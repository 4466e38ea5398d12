package playground

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/primitives/internal/config"
	"github.com/vango-dev/primitives/internal/metrics"
	"github.com/vango-dev/primitives/internal/report"
	"github.com/vango-dev/primitives/pkg/masonry"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cfg := config.Default().Server
	cfg.MaxItems = 5
	cfg.MaxMessageBytes = 1024
	return New(cfg, opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type errorResponse struct {
	Error struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t).Handler(), http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, rec.Body.String())
}

func TestReconcile(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := do(t, h, http.MethodPost, "/api/reconcile",
		`{"name":"swap","fallback":"-","steps":[["a","b"],["b","a"],[]]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ReconcileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Report.Steps, 3)

	swap := resp.Report.Steps[1]
	assert.Equal(t, 2, swap.Stats.Moved)
	assert.Equal(t, []int{2, 1}, []int{swap.Rows[0].ID, swap.Rows[1].ID})

	empty := resp.Report.Steps[2]
	require.Len(t, empty.Rows, 1)
	assert.True(t, empty.Rows[0].Fallback)
	assert.Equal(t, "-", empty.Rows[0].Value)
	assert.Empty(t, resp.Saved)
}

func TestReconcileSave(t *testing.T) {
	dir := t.TempDir()
	h := newTestServer(t, WithSink(report.NewFileSink(dir))).Handler()

	rec := do(t, h, http.MethodPost, "/api/reconcile", `{"steps":[["a"]],"save":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ReconcileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp.Saved, "adhoc-"))

	_, err := os.Stat(filepath.Join(dir, resp.Saved+".json"))
	assert.NoError(t, err)
}

func TestReconcileRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed", `{"steps":`, "E401"},
		{"unknown field", `{"stepz":[["a"]]}`, "E401"},
		{"no steps", `{"steps":[]}`, "E201"},
		{"too many items", `{"steps":[["a","b","c","d","e","f"]]}`, "E401"},
		{"too large", `{"steps":[["` + strings.Repeat("x", 2048) + `"]]}`, "E401"},
	}

	h := newTestServer(t).Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/reconcile", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestLayout(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodPost, "/api/layout", `{"heights":[10,20,5],"columns":2,"gap":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res masonry.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []float64{16, 20}, res.ColumnHeights)
	assert.Equal(t, 0, res.Placements[2].Column)
	assert.Equal(t, float64(11), res.Placements[2].Top)

	rec = do(t, h, http.MethodPost, "/api/layout", `{"heights":[1],"columns":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "E401", decodeError(t, rec).Error.Code)

	rec = do(t, h, http.MethodPost, "/api/layout", `{"heights":[1e308,1e308],"columns":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "E401", decodeError(t, rec).Error.Code)
}

func TestMetricsRoute(t *testing.T) {
	m := metrics.New(metrics.WithRegistry(prometheus.NewRegistry()))
	h := newTestServer(t, WithMetrics(m)).Handler()

	rec := do(t, h, http.MethodPost, "/api/reconcile", `{"name":"m","steps":[["a"]]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `primitives_list_passes_total{name="reconcile"} 1`)
	assert.NotContains(t, rec.Body.String(), `name="m"`)

	// Without a collector the route does not exist.
	rec = do(t, newTestServer(t).Handler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsLabelsStayBounded(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newTestServer(t, WithMetrics(metrics.New(metrics.WithRegistry(reg)))).Handler()

	for i := 0; i < 50; i++ {
		body := fmt.Sprintf(`{"name":"client-%d","steps":[["a"]]}`, i)
		rec := do(t, h, http.MethodPost, "/api/reconcile", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp ReconcileResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, fmt.Sprintf("client-%d", i), resp.Report.Name)
	}

	n, err := testutil.GatherAndCount(reg, "primitives_list_passes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "{\"n\":1}\n", rec.Body.String())
	assert.True(t, bytes.HasSuffix(rec.Body.Bytes(), []byte("\n")))

	rec = httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"h": math.Inf(1)})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "E404", decodeError(t, rec).Error.Code)
}
