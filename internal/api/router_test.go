package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpfmon/internal/config"
	"bpfmon/internal/handlers"
	"bpfmon/internal/models"
	"bpfmon/internal/service"
	"bpfmon/web"
)

func newTestRouter(t *testing.T) (*Router, *service.Monitor) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	catalog := config.DefaultCatalog()
	catalog.InstallDir = t.TempDir()

	m := service.NewMonitor(catalog, logger)
	r, err := NewRouter(m, web.Templates(), web.Static())
	require.NoError(t, err)
	return r, m
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestDashboardAndStatic(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "TCP Connection Statistics")
	assert.Contains(t, rec.Body.String(), `value="cachestat"`)

	rec = do(t, r, http.MethodGet, "/static/js/app.js", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListTools(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/api/tools", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tools []config.Tool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tools))
	require.Len(t, tools, 5)
	assert.Equal(t, "tcpretrans", tools[1].ID)
}

func TestStartErrors(t *testing.T) {
	r, m := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/session/start", handlers.StartRequest{Tool: "unknown-tool"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The catalog points at an empty directory, so the binary is missing.
	rec = do(t, r, http.MethodPost, "/api/session/start", handlers.StartRequest{Tool: "tcpconnect"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, m.IsActive())

	rec = do(t, r, http.MethodPost, "/api/session/start", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/session/start", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "method not allowed", resp.Error)
}

func TestMethodNotAllowed(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/tools", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, r, http.MethodDelete, "/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/nothing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStopAndClearWhenIdle(t *testing.T) {
	r, _ := newTestRouter(t)

	for i := 0; i < 2; i++ {
		rec := do(t, r, http.MethodPost, "/api/session/stop", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, r, http.MethodPost, "/api/session/clear", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status models.SessionStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Active)
}

func TestRowsAndGraph(t *testing.T) {
	r, m := newTestRouter(t)

	table := m.Table()
	table.SetSchema([]string{"TIME", "HITS"})
	table.AppendRow([]string{"1", "5"}, models.RowNormal)

	rec := do(t, r, http.MethodGet, "/api/graph", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	table.AppendRow([]string{"2", "7"}, models.RowNormal)

	rec = do(t, r, http.MethodGet, "/api/graph", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var g models.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Equal(t, "HITS", g.YLabel)
	assert.Len(t, g.Points, 2)

	rec = do(t, r, http.MethodGet, "/api/session/rows?since=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page models.RowsPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, []string{"TIME", "HITS"}, page.Schema)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, []string{"2", "7"}, page.Rows[0].Fields)
	assert.Equal(t, uint64(2), page.LastSeq)

	rec = do(t, r, http.MethodGet, "/api/session/rows?since=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogsAndPreflight(t *testing.T) {
	r, _ := newTestRouter(t)
	do(t, r, http.MethodPost, "/api/session/start", handlers.StartRequest{Tool: "nope"})

	rec := do(t, r, http.MethodGet, "/api/logs?level=error", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []models.LogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "nope", logs[0].Tool)

	rec = do(t, r, http.MethodGet, "/api/preflight", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report struct {
		OK     bool `json:"ok"`
		Checks []struct {
			Name string `json:"name"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.OK, "binaries are missing")
	assert.Len(t, report.Checks, 7)
}
