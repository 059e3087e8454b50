package viewer

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ehabterra/apidocs/internal/catalog"
	"github.com/ehabterra/apidocs/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Default: "Pets",
		Options: []catalog.Option{
			{Name: "Pets", Locator: "/pets.yaml", Description: "pets"},
			{Name: "Users", Locator: "/users.yaml"},
			{Name: "Broken", Locator: "/bad.yaml"},
			{Name: "Gone", Locator: "/missing.yaml"},
		},
	}
}

func newTestServer(t *testing.T, config *ServerConfig) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	loader := newStubLoader(t)
	srv := NewServer(config, loader, testCatalog(), NewSessions(loader, m), reg)
	ts := httptest.NewServer(srv.SetupRoutes())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

// openReadySession opens a session and waits for the initial document.
func openReadySession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, body := do(t, http.MethodPost, ts.URL+"/api/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decode[Snapshot](t, body).ID
	require.NotEmpty(t, id)
	waitStatus(t, ts, id, StatusReady)
	return id
}

func waitStatus(t *testing.T, ts *httptest.Server, id string, want Status) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/api/sessions/" + id)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var got Snapshot
		if json.NewDecoder(resp.Body).Decode(&got) != nil {
			return false
		}
		snap = got
		return got.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", decode[map[string]any](t, body)["status"])
}

func TestServer_Catalog(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/catalog", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[catalog.Catalog](t, body)
	assert.Equal(t, "Pets", got.Default)
	assert.Len(t, got.Options, 4)
}

func TestServer_SpecStatusCodes(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name  string
		query string
		code  int
	}{
		{"by locator", "?locator=/pets.yaml", http.StatusOK},
		{"by name", "?name=Users", http.StatusOK},
		{"unknown name", "?name=Nope", http.StatusNotFound},
		{"locator outside catalog", "?locator=/etc/passwd", http.StatusNotFound},
		{"missing", "", http.StatusBadRequest},
		{"malformed", "?name=Broken", http.StatusUnprocessableEntity},
		{"retrieval", "?name=Gone", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodGet, ts.URL+"/api/specs"+tt.query, "")
			assert.Equal(t, tt.code, resp.StatusCode, string(body))
			if tt.code != http.StatusOK {
				e := decode[ErrorResponse](t, body)
				assert.Equal(t, tt.code, e.Code)
				assert.NotEmpty(t, e.Message)
			}
		})
	}
}

func TestServer_SpecBody(t *testing.T) {
	ts := newTestServer(t, nil)

	_, body := do(t, http.MethodGet, ts.URL+"/api/specs?name=Pets", "")
	got := decode[struct {
		Info      map[string]string `json:"info"`
		Servers   []map[string]string
		Endpoints []struct {
			ID      string `json:"id"`
			Summary string `json:"summary"`
		} `json:"endpoints"`
	}](t, body)

	assert.Equal(t, "Pets", got.Info["title"])
	require.Len(t, got.Endpoints, 3)
	assert.Equal(t, "GET_pets", got.Endpoints[0].ID)
	assert.Equal(t, "GET /ping", got.Endpoints[2].Summary)
}

func TestServer_SpecGroupsKeepOrder(t *testing.T) {
	ts := newTestServer(t, nil)

	_, body := do(t, http.MethodGet, ts.URL+"/api/specs/groups?name=Pets", "")
	got := decode[struct {
		Names  []string                     `json:"names"`
		Total  int                          `json:"total"`
		Groups map[string][]json.RawMessage `json:"groups"`
	}](t, body)

	assert.Equal(t, []string{"pets", "General"}, got.Names)
	assert.Equal(t, 3, got.Total)
	assert.Len(t, got.Groups["pets"], 2)
	assert.Less(t, strings.Index(string(body), `"pets":[`), strings.Index(string(body), `"General":[`))
}

func TestServer_SessionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	id := openReadySession(t, ts)
	base := ts.URL + "/api/sessions/" + id

	_, body := do(t, http.MethodGet, base, "")
	snap := decode[Snapshot](t, body)
	assert.Equal(t, "/pets.yaml", snap.Locator)
	assert.Equal(t, 3, snap.EndpointCount)

	resp, body := do(t, http.MethodPut, base+"/selection", `{"name": "Users"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))
	snap = waitStatus(t, ts, id, StatusReady)
	assert.Equal(t, "/users.yaml", snap.Locator)

	_, body = do(t, http.MethodGet, base+"/groups", "")
	assert.Equal(t, []string{"users"}, decode[GroupsResponse](t, body).Names)

	resp, _ = do(t, http.MethodPut, base+"/selection", `{"locator": "/nowhere.yaml"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, base+"/selection", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_FailedSessionReportsLoadError(t *testing.T) {
	ts := newTestServer(t, nil)
	id := openReadySession(t, ts)
	base := ts.URL + "/api/sessions/" + id

	do(t, http.MethodPut, base+"/selection", `{"name": "Broken"}`)
	snap := waitStatus(t, ts, id, StatusFailed)
	assert.Contains(t, snap.Error, "malformed document")

	resp, _ := do(t, http.MethodGet, base+"/groups", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestServer_Endpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	base := ts.URL + "/api/sessions/" + openReadySession(t, ts)

	resp, body := do(t, http.MethodPut, base+"/endpoints/POST_pets/select", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "POST_pets", decode[Snapshot](t, body).SelectedEndpoint)

	_, body = do(t, http.MethodGet, base+"/endpoints/POST_pets", "")
	detail := decode[struct {
		Endpoint struct {
			ID     string `json:"id"`
			Method string `json:"method"`
		} `json:"endpoint"`
		URL      string `json:"url"`
		Curl     string `json:"curl"`
		Note     string `json:"note"`
		Selected bool   `json:"selected"`
	}](t, body)
	assert.Equal(t, "POST", detail.Endpoint.Method)
	assert.Equal(t, "https://pets.example.com/pets", detail.URL)
	assert.Equal(t, `curl -X POST "https://pets.example.com/pets" -H "Content-Type: application/json" -H "Accept: application/json" -d '{}'`, detail.Curl)
	assert.Equal(t, "Creates a pet", detail.Note)
	assert.True(t, detail.Selected)

	resp, _ = do(t, http.MethodGet, base+"/endpoints/GET_nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_EndpointDocument(t *testing.T) {
	ts := newTestServer(t, nil)
	base := ts.URL + "/api/sessions/" + openReadySession(t, ts)

	resp, body := do(t, http.MethodGet, base+"/endpoints/GET_pets/document", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	got := decode[map[string]any](t, body)
	paths := got["paths"].(map[string]any)
	assert.Len(t, paths, 1)
	assert.Equal(t, []string{"get"}, keys(paths["/pets"].(map[string]any)))

	resp, body = do(t, http.MethodGet, base+"/endpoints/GET_pets/document?format=yaml", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "/pets:")
	assert.NotContains(t, string(body), "post:")
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestServer_Notes(t *testing.T) {
	ts := newTestServer(t, nil)
	base := ts.URL + "/api/sessions/" + openReadySession(t, ts)

	_, body := do(t, http.MethodGet, base+"/notes/GET_pets", "")
	assert.Equal(t, "List pets", decode[noteRequest](t, body).Note)

	resp, _ := do(t, http.MethodPut, base+"/notes/GET_pets", `{"note": "paginate"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = do(t, http.MethodGet, base+"/notes/GET_pets", "")
	assert.Equal(t, "paginate", decode[noteRequest](t, body).Note)

	resp, _ = do(t, http.MethodPut, base+"/notes/GET_nope", `{"note": "x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_CORS(t *testing.T) {
	ts := newTestServer(t, &ServerConfig{EnableCORS: true})

	resp, _ := do(t, http.MethodOptions, ts.URL+"/api/catalog", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/specs?name=Nope", "")
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	plain := newTestServer(t, nil)
	resp, _ = do(t, http.MethodGet, plain.URL+"/api/catalog", "")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_StaticAndMetrics(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pets.yaml"), []byte(petsDoc), 0o644))

	ts := newTestServer(t, &ServerConfig{StaticDir: dir, AllowAnyLocator: true})

	resp, body := do(t, http.MethodGet, ts.URL+"/specs/pets.yaml", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, petsDoc, string(body))

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/specs?locator=/users.yaml", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	openReadySession(t, ts)
	resp, body = do(t, http.MethodGet, ts.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "apidocs_viewer_active_sessions 1")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
	assert.Equal(t, http.StatusConflict, statusFor(ErrNoDocument))
	assert.Equal(t, http.StatusNotFound, statusFor(ErrSessionNotFound))
}
