package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/aeonkit/internal/config"
	"github.com/conneroisu/aeonkit/internal/mockdata"
	"github.com/conneroisu/aeonkit/internal/testutils"
	"github.com/conneroisu/aeonkit/internal/watcher"
)

const requestPage = `<html><body>
<form action="aeon.dll" method="post" name="request">
<input type="hidden" name="AeonForm" value="DefaultRequest">
<p>Transaction <#PARAM name="TransactionNumber"></p>
<#INCLUDE filename="footer.html">
</form>
</body></html>`

func testConfig() *config.Config {
	return &config.Config{
		Preview: config.PreviewConfig{
			IncludeSearchPaths: []string{".", "includes"},
			Profile:            "default",
		},
		Server: config.ServerConfig{
			Host:           "localhost",
			Port:           8585,
			AllowedOrigins: []string{"http://editor.example.com"},
		},
		Themes: []config.ThemeConfig{{Name: "dark", CSS: "body{background:#111}"}},
	}
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		"DefaultRequest.html":  requestPage,
		"includes/footer.html": `<footer>Library</footer>`,
		"Broken.html":          `<form action="aeon.dll"><#PARAM></form>`,
		"notes.txt":            "not a page",
	})

	srv, err := New(Options{Config: testConfig(), Root: root})
	require.NoError(t, err)
	return srv, root
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	cfg := testConfig()
	cfg.Preview.Profile = "nobody"
	_, err = New(Options{Config: cfg, Root: t.TempDir()})
	assert.Error(t, err)

	srv, _ := newTestServer(t)
	assert.Equal(t, "default", srv.profiles.CurrentProfile())
	assert.NotNil(t, srv.hub)
	assert.Equal(t, 0, srv.sessions.len())
}

func TestConcurrentRenderWithGenerator(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		"Contact.html": `<p><#PARAM name="BackupEmail"> <#PARAM name="PagerPhone"> <#PARAM name="ShippingZip"></p>`,
	})
	srv, err := New(Options{Config: testConfig(), Root: root, Generator: mockdata.NewGenerator(1)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_, res, err := srv.render(context.Background(), "Contact.html")
				if !assert.NoError(t, err) {
					return
				}
				assert.Contains(t, res.HTML, "@")
			}
		}()
	}
	wg.Wait()
}

func TestIndexListsAeonPages(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doRequest(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/preview/DefaultRequest.html"`)
	assert.Contains(t, body, "Broken.html")
	assert.NotContains(t, body, "notes.txt")

	rec = doRequest(t, h, http.MethodGet, "/api/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	assert.Len(t, docs, 2)
}

func TestPreviewJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doRequest(t, h, http.MethodPost, "/api/fields", `{"name":"TransactionNumber","value":"4242"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/preview/DefaultRequest.html", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Document string                   `json:"document"`
		Profile  string                   `json:"profile"`
		HTML     string                   `json:"html"`
		Errors   []map[string]interface{} `json:"errors"`
		TagMap   map[string]interface{}   `json:"tagMap"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "DefaultRequest.html", resp.Document)
	assert.Equal(t, "default", resp.Profile)
	assert.Contains(t, resp.HTML, "4242")
	assert.Contains(t, resp.HTML, "<footer>Library</footer>")
	assert.Empty(t, resp.Errors)
	assert.NotEmpty(t, resp.TagMap)
}

func TestPreviewPageShowsTagErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doRequest(t, h, http.MethodGet, "/preview/Broken.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="aeonkit-panel"`)
	assert.Contains(t, body, "1 tag error(s)")
	assert.Contains(t, body, `data-document="Broken.html"`)

	rec = doRequest(t, h, http.MethodGet, "/preview/DefaultRequest.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `id="aeonkit-panel"`)
	assert.True(t, strings.Index(rec.Body.String(), "<script") < strings.Index(rec.Body.String(), "</body>"))
}

func TestPreviewTheme(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.cfg.Preview.Theme = "dark"

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/preview/DefaultRequest.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<style id="aeonkit-theme">body{background:#111}</style>`)
}

func TestPreviewRejectsBadPaths(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	testCases := []struct {
		name   string
		target string
		status int
	}{
		{"missing", "/api/preview/Nope.html", http.StatusNotFound},
		{"not html", "/api/preview/notes.txt", http.StatusBadRequest},
		{"empty", "/api/preview/", http.StatusBadRequest},
		{"traversal", "/api/preview/../../etc/passwd.html", http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, tc.target, "")
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestResolveDocument(t *testing.T) {
	srv, root := newTestServer(t)

	full, doc, err := srv.resolveDocument("/DefaultRequest.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "DefaultRequest.html"), full)
	assert.Equal(t, "DefaultRequest.html", doc)

	_, _, err = srv.resolveDocument("../outside.html")
	assert.Error(t, err)
}

func TestProfiles(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doRequest(t, h, http.MethodGet, "/api/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var state profilesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "default", state.Current)
	assert.Contains(t, state.Profiles, "admin")

	rec = doRequest(t, h, http.MethodPost, "/api/profiles", `{"profile":"admin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", srv.profiles.CurrentProfile())

	rec = doRequest(t, h, http.MethodPost, "/api/profiles", `{"profile":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "admin", srv.profiles.CurrentProfile())

	rec = doRequest(t, h, http.MethodPost, "/api/profiles", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionOverridesAreScopedToDocument(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doRequest(t, h, http.MethodPost, "/api/fields",
		`{"document":"DefaultRequest.html","name":"TransactionNumber","value":"777"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"TransactionNumber":"777"}`, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/api/preview/DefaultRequest.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "777")
	assert.Empty(t, srv.profiles.Overrides().Map())

	rec = doRequest(t, h, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var infos []SessionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "DefaultRequest.html", infos[0].Document)
	assert.Equal(t, 1, infos[0].Renders)

	rec = doRequest(t, h, http.MethodDelete, "/api/fields?document=DefaultRequest.html", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, srv.sessions.len())

	rec = doRequest(t, h, http.MethodDelete, "/api/fields?document=DefaultRequest.html", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetFieldValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doRequest(t, h, http.MethodPost, "/api/fields", `{"name":"  ","value":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/fields", `{"document":"Nope.html","name":"a","value":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/fields", `{"name":"Title","value":"Dr"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dr", srv.profiles.Overrides().String("Title"))

	rec = doRequest(t, h, http.MethodDelete, "/api/fields", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, srv.profiles.Overrides().Map())
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	doRequest(t, h, http.MethodGet, "/api/preview/Broken.html", "")

	rec := doRequest(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])

	rec = doRequest(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `aeonkit_expansions_total{status="tag_errors"} 1`)
	assert.Contains(t, body, `aeonkit_tag_errors_total{tag="PARAM"} 1`)
	assert.Contains(t, body, `path="/api/preview/*"`)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/profiles", nil)
	req.Header.Set("Origin", "http://editor.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://editor.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCheckOrigin(t *testing.T) {
	srv, _ := newTestServer(t)

	testCases := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"none", "", false},
		{"configured addr", "http://localhost:8585", true},
		{"same host", "http://example.com", true},
		{"allowed", "http://editor.example.com", true},
		{"other", "http://evil.example.com", false},
		{"bad scheme", "file://localhost:8585", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			assert.Equal(t, tc.expected, srv.checkOrigin(req))
		})
	}
}

func TestWebSocketReload(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.hub.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{ts.URL}},
	})
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return srv.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	srv.hub.Broadcast(UpdateMessage{Type: MessageReload, Target: "DefaultRequest.html"})

	readCtx, readCancel := context.WithTimeout(ctx, 2*time.Second)
	defer readCancel()
	_, data, err := conn.Read(readCtx)
	require.NoError(t, err)

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageReload, msg.Type)
	assert.Equal(t, "DefaultRequest.html", msg.Target)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFileChangeReloadsDependents(t *testing.T) {
	srv, root := newTestServer(t)
	_, err := srv.scanner.Scan(context.Background())
	require.NoError(t, err)

	footer := filepath.Join(root, "includes", "footer.html")
	require.NoError(t, srv.handleFileChange(context.Background(), []watcher.ChangeEvent{
		{Path: footer, Type: watcher.EventTypeModified},
	}))

	targets := make(map[string]bool)
	for len(srv.hub.broadcast) > 0 {
		var msg UpdateMessage
		require.NoError(t, json.Unmarshal(<-srv.hub.broadcast, &msg))
		targets[msg.Target] = true
	}
	assert.True(t, targets["includes/footer.html"])
	assert.True(t, targets["DefaultRequest.html"])
	assert.False(t, targets["Broken.html"])
}

func TestFileChangeRemovesDeletedDocuments(t *testing.T) {
	srv, root := newTestServer(t)
	_, err := srv.scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, srv.registry.Count())

	page := filepath.Join(root, "Broken.html")
	require.NoError(t, os.Remove(page))
	require.NoError(t, srv.handleFileChange(context.Background(), []watcher.ChangeEvent{
		{Path: page, Type: watcher.EventTypeDeleted},
	}))
	assert.Equal(t, 1, srv.registry.Count())
}
