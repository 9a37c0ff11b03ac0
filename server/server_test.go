package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/robmorgan/legopi/config"
	"github.com/robmorgan/legopi/driver"
	"github.com/robmorgan/legopi/engine"
	"github.com/robmorgan/legopi/fixture"
	"github.com/robmorgan/legopi/utils"
)

func newTestServer(t *testing.T) (*Server, *fixture.Manager, *engine.Engine) {
	t.Helper()

	cfg := config.NewLegoPiConfig()
	m, err := fixture.NewManager(cfg)
	require.NoError(t, err)
	factory := &driver.MemoryFactory{}
	require.NoError(t, m.Open(factory.New))

	e, err := engine.New(testingclock.NewFakeClock(time.Now()), m.Controllers(), engine.Options{Tick: 10 * time.Millisecond, Cycle: 12 * time.Second})
	require.NoError(t, err)
	require.NoError(t, e.ApplyConfig(cfg))
	return New(m, e), m, e
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListFixtures(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(t)
	rec := do(s, http.MethodGet, "/api/fixtures", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fixtures []FixtureView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fixtures))
	require.Len(t, fixtures, 3)
	assert.Equal(t, FixtureView{Name: "BP_LED", GPIO: 13, Num: 2, Channel: 0, Controller: "controller0", Color: "#39ff14"}, fixtures[0])
	assert.Equal(t, "FR_LED", fixtures[1].Name)
	assert.Equal(t, "#ff0000", fixtures[2].Color)
}

func TestSetColor(t *testing.T) {
	t.Parallel()

	s, m, _ := newTestServer(t)

	rec := do(s, http.MethodPut, "/api/fixtures/FR_LED/color", `{"color": "#0000ff"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, utils.ColorBlue, m.GetByName("FR_LED").GetColor())

	rec = do(s, http.MethodPut, "/api/fixtures/FR_LED/color", `{"color": "mauve"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "message")

	rec = do(s, http.MethodPut, "/api/fixtures/XX_LED/color", `{"color": "red"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetPattern(t *testing.T) {
	t.Parallel()

	s, _, e := newTestServer(t)

	rec := do(s, http.MethodPut, "/api/controllers/controller0/channels/0/pattern", `{"pattern": "pulse"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "pulse", e.Bindings()[0].Pattern)

	testCases := []struct {
		target string
		body   string
		code   int
	}{
		{"/api/controllers/controller0/channels/x/pattern", `{"pattern": "pulse"}`, http.StatusBadRequest},
		{"/api/controllers/controller0/channels/0/pattern", `{"pattern": "disco"}`, http.StatusBadRequest},
		{"/api/controllers/controller0/channels/0/pattern", `{"pattern": `, http.StatusBadRequest},
		{"/api/controllers/controller9/channels/0/pattern", `{"pattern": "pulse"}`, http.StatusNotFound},
		{"/api/controllers/controller0/channels/5/pattern", `{"pattern": "pulse"}`, http.StatusNotFound},
	}
	for _, testCase := range testCases {
		rec := do(s, http.MethodPut, testCase.target, testCase.body)
		assert.Equal(t, testCase.code, rec.Code, testCase.target+" "+testCase.body)
	}
}

func TestListChannelsAndPatterns(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(t)

	rec := do(s, http.MethodGet, "/api/channels", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var bindings []engine.Binding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bindings))
	require.Len(t, bindings, 1)
	assert.Equal(t, "strobe", bindings[0].Pattern)

	rec = do(s, http.MethodGet, "/api/patterns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pulse")
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(t)
	rec := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "legopi_engine_frames_rendered_total")
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunBadAddress(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(t)
	require.Error(t, s.Run(context.Background(), "256.0.0.1:http"))
}
