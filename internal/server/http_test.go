package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasim/internal/config"
	"wasim/internal/sim"
	"wasim/internal/store"
)

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "wasim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	base := *config.Default()
	base.Sim.Days = 3
	base.Sim.Symbols = []string{"AAA"}
	simulator, err := sim.NewSimulator(sim.SimulatorConfig{Base: base, Store: st})
	require.NoError(t, err)

	srv, err := NewHTTPServer(HTTPConfig{Simulator: simulator})
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *HTTPServer, method, path, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	out := map[string]json.RawMessage{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func startRun(t *testing.T, srv *HTTPServer, body string) sim.Run {
	t.Helper()
	rec, out := doJSON(t, srv, http.MethodPost, "/api/sim/runs", body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var run sim.Run
	require.NoError(t, json.Unmarshal(out["run"], &run))
	return run
}

func waitDone(t *testing.T, srv *HTTPServer, id string) sim.Run {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		run, ok, err := srv.sim.GetRun(context.Background(), id)
		require.NoError(t, err)
		if ok && run.Status == sim.RunStatusDone {
			return run
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("run %s did not finish", id)
	return sim.Run{}
}

func TestRunEndpoints(t *testing.T) {
	srv := newTestServer(t)

	run := startRun(t, srv, `{"days":2,"seed":7}`)
	assert.Equal(t, sim.RunStatusPending, run.Status)
	assert.Equal(t, 2, run.Config.Days)
	waitDone(t, srv, run.ID)

	t.Run("detail", func(t *testing.T) {
		rec, out := doJSON(t, srv, http.MethodGet, "/api/sim/runs/"+run.ID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var got sim.Run
		require.NoError(t, json.Unmarshal(out["run"], &got))
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, sim.RunStatusDone, got.Status)
	})

	t.Run("list", func(t *testing.T) {
		rec, out := doJSON(t, srv, http.MethodGet, "/api/sim/runs", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var runs []sim.Run
		require.NoError(t, json.Unmarshal(out["runs"], &runs))
		require.Len(t, runs, 1)
		assert.Equal(t, run.ID, runs[0].ID)
	})

	t.Run("history", func(t *testing.T) {
		rec, out := doJSON(t, srv, http.MethodGet, "/api/sim/runs/"+run.ID+"/history", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var rows []sim.HistoryRow
		require.NoError(t, json.Unmarshal(out["history"], &rows))
		require.Len(t, rows, 2)
		assert.Contains(t, rows[0].Prices, "AAA")
	})

	t.Run("transcript", func(t *testing.T) {
		rec, out := doJSON(t, srv, http.MethodGet, "/api/sim/runs/"+run.ID+"/transcript", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var entries []sim.TranscriptEntry
		require.NoError(t, json.Unmarshal(out["transcript"], &entries))
		assert.NotEmpty(t, entries)
	})
}

func TestRunEndpointErrors(t *testing.T) {
	srv := newTestServer(t)

	t.Run("malformed body", func(t *testing.T) {
		rec, _ := doJSON(t, srv, http.MethodPost, "/api/sim/runs", `{"days":"ten"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("blank symbols", func(t *testing.T) {
		rec, _ := doJSON(t, srv, http.MethodPost, "/api/sim/runs", `{"symbols":["  "]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown run", func(t *testing.T) {
		rec, _ := doJSON(t, srv, http.MethodGet, "/api/sim/runs/ghost", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("report disabled", func(t *testing.T) {
		rec, _ := doJSON(t, srv, http.MethodPost, "/api/sim/runs/ghost/report", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
