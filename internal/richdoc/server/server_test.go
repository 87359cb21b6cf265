package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/richdoc/internal/richdoc/config"
	"github.com/aisa-it/richdoc/internal/richdoc/convert"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/menu"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
	"github.com/aisa-it/richdoc/internal/richdoc/metrics"
	"github.com/aisa-it/richdoc/internal/richdoc/store"
)

func newServer(t *testing.T, cfg *config.Config, withStore bool) *Server {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.MetricsAddr = ""

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	schema := nodes.MustSchema()
	conv, err := convert.New(schema, m)
	require.NoError(t, err)

	opts := []Option{WithMetrics(m), WithPrometheus(reg, reg), WithVersion("test")}
	if withStore {
		st, err := store.Open(":memory:", schema, nil, m)
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		opts = append(opts, WithStore(st))
	}
	return New(cfg, conv, opts...)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

func TestConvertEndpoint(t *testing.T) {
	s := newServer(t, nil, false)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"markdown to html", `{"from":"markdown","to":"html","content":"# T\n\n**b**"}`, `"<h1>T</h1><p><strong>b</strong></p>"`},
		{"html to markdown", `{"from":"html","to":"md","content":"<p dir=\"rtl\">x</p>"}`, `"x\n{: dir=\"rtl\"}"`},
		{"json object to markdown", `{"from":"json","to":"markdown","content":{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"a"}]}]}}`, `"a"`},
		{"markdown to json", `{"from":"markdown","to":"json","content":"a"}`, `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"a"}]}]}`},
		{"sanitized html", `{"from":"html","to":"html","content":"<p>a</p><script>x()</script>","sanitize":true,"minify":true}`, `"<p>a</p>"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/convert", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			resp := decode[ConvertResponse](t, rec)
			assert.JSONEq(t, tt.want, string(resp.Content))
		})
	}
	assert.Equal(t, "richdoc/test", do(t, s, http.MethodGet, "/api/schema", "").Header().Get("Server"))
}

func TestConvertErrors(t *testing.T) {
	s := newServer(t, nil, false)

	tests := []struct {
		name   string
		body   string
		status int
		code   int
	}{
		{"unknown format", `{"from":"docx","to":"html","content":"x"}`, http.StatusBadRequest, 1004},
		{"missing format", `{"to":"html","content":"x"}`, http.StatusBadRequest, 1004},
		{"broken body", `{"from":`, http.StatusBadRequest, 1004},
		{"empty content", `{"from":"markdown","to":"html","content":"  "}`, http.StatusBadRequest, 4003},
		{"bad json document", `{"from":"json","to":"html","content":{"type":"paragraph"}}`, http.StatusUnprocessableEntity, 4006},
		{"sanitize markdown", `{"from":"markdown","to":"html","content":"x","sanitize":true}`, http.StatusBadRequest, 4008},
		{"minify markdown", `{"from":"markdown","to":"markdown","content":"x","minify":true}`, http.StatusBadRequest, 4009},
		{"markdown content object", `{"from":"markdown","to":"html","content":{"a":1}}`, http.StatusBadRequest, 1004},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/convert", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[errorBody](t, rec).Code)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MaxBodyKB = 1
	s := newServer(t, cfg, false)

	body := `{"from":"markdown","to":"html","content":"` + strings.Repeat("a", 4096) + `"}`
	rec := do(t, s, http.MethodPost, "/api/convert", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, 1003, decode[errorBody](t, rec).Code)
}

func TestSchemaAndEmbed(t *testing.T) {
	s := newServer(t, nil, false)

	rec := do(t, s, http.MethodGet, "/api/schema/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[nodes.SchemaInfo](t, rec)
	require.NotEmpty(t, info.Nodes)
	assert.Equal(t, nodes.NameDoc, info.Nodes[0].Name)
	assert.NotEmpty(t, info.Marks)

	rec = do(t, s, http.MethodGet, "/api/embed/?url=https://docs.google.com/presentation/d/abc/edit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	embed := decode[EmbedResponse](t, rec)
	assert.Equal(t, "google_slides", embed.Provider)
	assert.Equal(t, "https://docs.google.com/presentation/d/abc/preview", embed.Src)
	assert.Contains(t, embed.HTML, "<iframe")

	rec = do(t, s, http.MethodGet, "/api/embed/?url=https://example.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 5007, decode[errorBody](t, rec).Code)
}

func TestSessionFlow(t *testing.T) {
	s := newServer(t, nil, true)

	rec := do(t, s, http.MethodPost, "/api/sessions/", `{"format":"markdown","content":"text"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[SessionResponse](t, rec)
	assert.Equal(t, 0, created.Version)
	assert.JSONEq(t, `"text"`, string(created.Content))
	base := "/api/sessions/" + created.ID.String()

	rec = do(t, s, http.MethodPost, base+"/commands/", `{"command":"set_block_type","type":"heading","attrs":{"level":2}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	applied := decode[SessionResponse](t, rec)
	require.NotNil(t, applied.Applied)
	assert.True(t, *applied.Applied)
	assert.Equal(t, 1, applied.Version)
	assert.JSONEq(t, `"## text"`, string(applied.Content))

	rec = do(t, s, http.MethodGet, base+"/menu/?lang=ru", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]menu.Item](t, rec)
	var active []string
	for _, it := range items {
		if it.Active {
			active = append(active, it.Icon)
		}
	}
	assert.Equal(t, []string{"Heading2Icon"}, active)

	rec = do(t, s, http.MethodPost, base+"/commands/", `{"key":"Shift-Ctrl-0"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `"text"`, string(decode[SessionResponse](t, rec).Content))

	rec = do(t, s, http.MethodPost, base+"/undo/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"## text"`, string(decode[SessionResponse](t, rec).Content))

	rec = do(t, s, http.MethodPost, base+"/redo/?format=html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	redone := decode[SessionResponse](t, rec)
	assert.Equal(t, 4, redone.Version)
	assert.JSONEq(t, `"<p>text</p>"`, string(redone.Content))

	rec = do(t, s, http.MethodPost, base+"/redo/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, *decode[SessionResponse](t, rec).Applied)

	rec = do(t, s, http.MethodPut, base+"/selection/", `{"anchor":100,"head":100}`)
	assert.Equal(t, 5005, decode[errorBody](t, rec).Code)

	rec = do(t, s, http.MethodPost, base+"/commands/", `{"command":"bold"}`)
	assert.Equal(t, 5003, decode[errorBody](t, rec).Code)

	assert.Eventually(t, func() bool {
		rec := do(t, s, http.MethodGet, base+"/history/", "")
		if rec.Code != http.StatusOK {
			return false
		}
		return len(decode[[]HistoryItem](t, rec)) == 5
	}, time.Second, 10*time.Millisecond)

	rec = do(t, s, http.MethodDelete, base+"/", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, base+"/?format=json", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	restored := decode[SessionResponse](t, rec)
	assert.Equal(t, 4, restored.Version)
	assert.JSONEq(t, `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"text"}]}]}`, string(restored.Content))
}

func TestSessionWithoutStore(t *testing.T) {
	s := newServer(t, nil, false)

	rec := do(t, s, http.MethodGet, "/api/sessions/not-a-uuid/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 5001, decode[errorBody](t, rec).Code)

	rec = do(t, s, http.MethodPost, "/api/sessions/", `{"format":"html","content":"<p>x</p>"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[SessionResponse](t, rec).ID.String()

	rec = do(t, s, http.MethodGet, "/api/sessions/"+id+"/history/", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/sessions/"+id+"/", "").Code)
	rec = do(t, s, http.MethodGet, "/api/sessions/"+id+"/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReapIdleSessions(t *testing.T) {
	s := newServer(t, nil, true)
	now := time.Now()
	s.sessions.now = func() time.Time { return now }

	create := func() string {
		rec := do(t, s, http.MethodPost, "/api/sessions/", `{"format":"markdown","content":"text"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return "/api/sessions/" + decode[SessionResponse](t, rec).ID.String() + "/"
	}
	active, idle := create(), create()
	require.Equal(t, 2, s.sessions.count())

	now = now.Add(20 * time.Minute)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, active, "").Code)
	now = now.Add(15 * time.Minute)

	assert.Equal(t, 1, s.sessions.reap(30*time.Minute))
	assert.Equal(t, 1, s.sessions.count())
	assert.Zero(t, s.sessions.reap(30*time.Minute))

	rec := do(t, s, http.MethodGet, idle, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `"text"`, string(decode[SessionResponse](t, rec).Content))
	assert.Equal(t, 2, s.sessions.count())
}

func TestReapWithoutStoreForgetsSession(t *testing.T) {
	s := newServer(t, nil, false)
	now := time.Now()
	s.sessions.now = func() time.Time { return now }

	rec := do(t, s, http.MethodPost, "/api/sessions/", `{"format":"markdown","content":"text"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[SessionResponse](t, rec).ID.String()

	now = now.Add(time.Hour)
	assert.Equal(t, 1, s.sessions.reap(time.Minute))
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/sessions/"+id+"/", "").Code)
}

func TestStartReaper(t *testing.T) {
	cfg := config.Default()
	cfg.SessionIdleTTL = 0
	dispatcher, err := newServer(t, cfg, false).startReaper()
	require.NoError(t, err)
	assert.Nil(t, dispatcher)

	cfg = config.Default()
	cfg.SessionReapSchedule = "every now and then"
	_, err = newServer(t, cfg, false).startReaper()
	assert.Error(t, err)

	dispatcher, err = newServer(t, config.Default(), false).startReaper()
	require.NoError(t, err)
	require.NotNil(t, dispatcher)
	defer dispatcher.Stop()
	assert.Len(t, dispatcher.Entries(), 1)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t, nil, false)
	do(t, s, http.MethodPost, "/api/convert", `{"from":"markdown","to":"html","content":"x"}`)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `richdoc_conversions_total{from="markdown",status="ok",to="html"} 1`)
	assert.Contains(t, rec.Body.String(), "richdoc_http_requests_total")
}
