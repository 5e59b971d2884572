package server

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"serverstatus/internal/config"
	"serverstatus/internal/models"
	"serverstatus/internal/probe"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func openPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func refusedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func newTestServer(t *testing.T, ports ...int) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.TimeoutSeconds = 1
	cfg.Concurrency = 2
	cfg.Targets = []models.Target{{ID: "login", Name: "Login Server", Host: "127.0.0.1", Ports: ports}}
	return New("127.0.0.1:0", cfg, probe.New(nil))
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestServer(t, 1).Handler(), "/healthz")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestTargets(t *testing.T) {
	rec := get(t, newTestServer(t, 6900).Handler(), "/api/targets")
	var targets []models.Target
	if err := json.Unmarshal(rec.Body.Bytes(), &targets); err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 || targets[0].ID != "login" {
		t.Errorf("targets = %+v", targets)
	}
}

func TestCheck_ConfiguredTargets(t *testing.T) {
	open := openPort(t)
	closed := refusedPort(t)
	rec := get(t, newTestServer(t, open, closed).Handler(), "/api/check")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp CheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d", len(resp.Results))
	}
	if resp.Results[0].Status != models.StatusOnline || resp.Results[1].Status != models.StatusOffline {
		t.Errorf("statuses = %s, %s", resp.Results[0].Status, resp.Results[1].Status)
	}
	if resp.Summary.Online != 1 || resp.Summary.Offline != 1 || resp.Summary.Total != 2 {
		t.Errorf("summary = %+v", resp.Summary)
	}
}

func TestCheck_QueryEndpoint(t *testing.T) {
	open := openPort(t)
	rec := get(t, newTestServer(t, 1).Handler(), "/api/check?host=127.0.0.1&port="+strconv.Itoa(open)+"&name=Map&timeout=2s")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp CheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Name != "Map" || !resp.Results[0].Online() {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestCheck_ZeroTimeoutIsOffline(t *testing.T) {
	open := openPort(t)
	rec := get(t, newTestServer(t, 1).Handler(), "/api/check?host=127.0.0.1&port="+strconv.Itoa(open)+"&timeout=0")
	var resp CheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Status != models.StatusOffline {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestCheck_BadRequests(t *testing.T) {
	h := newTestServer(t, 1).Handler()
	for _, target := range []string{
		"/api/check?port=80",
		"/api/check?host=127.0.0.1",
		"/api/check?host=127.0.0.1&port=abc",
		"/api/check?host=127.0.0.1&port=0",
		"/api/check?host=127.0.0.1&port=80&timeout=soon",
		"/api/check?host=127.0.0.1&port=80&timeout=-1s",
		"/api/check?host=127.0.0.1&port=80&timeout=NaN",
		"/api/check?host=127.0.0.1&port=80&timeout=-1e300",
		"/api/check/ws?port=80",
	} {
		if rec := get(t, h, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", target, rec.Code)
		}
	}
}

func TestParseTimeout(t *testing.T) {
	cases := map[string]time.Duration{
		"3":          3 * time.Second,
		"0.5":        500 * time.Millisecond,
		"1500ms":     1500 * time.Millisecond,
		"0":          0,
		"10m":        maxRequestTimeout,
		"1e10":       maxRequestTimeout,
		"9999999999": maxRequestTimeout,
		"1e300":      maxRequestTimeout,
	}
	for raw, want := range cases {
		got, err := parseTimeout(raw)
		if err != nil || got != want {
			t.Errorf("parseTimeout(%q) = %v, %v; want %v", raw, got, err, want)
		}
	}
}

func TestCheckStream(t *testing.T) {
	open := openPort(t)
	closed := refusedPort(t)
	srv := httptest.NewServer(newTestServer(t, open, closed).Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/check/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	seen := make(map[int]models.Status)
	for i := 0; i < 2; i++ {
		var msg StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read result %d: %v", i, err)
		}
		if msg.Type != "result" || msg.Index == nil || msg.Result == nil {
			t.Fatalf("unexpected frame: %+v", msg)
		}
		seen[*msg.Index] = msg.Result.Status
	}
	if seen[0] != models.StatusOnline || seen[1] != models.StatusOffline {
		t.Errorf("streamed statuses = %v", seen)
	}

	var final StreamMessage
	if err := conn.ReadJSON(&final); err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if final.Type != "summary" || final.Summary == nil || final.Summary.Total != 2 {
		t.Fatalf("unexpected summary frame: %+v", final)
	}

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal closure, got %v", err)
	}
}

func TestCheckStream_RejectsForeignOrigin(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, 1).Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/check/ws"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}
