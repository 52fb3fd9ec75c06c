package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/Kush-Singh-26/aksara/builder/config"
	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/services"
	"github.com/Kush-Singh-26/aksara/builder/services/mocks"
	"github.com/Kush-Singh-26/aksara/builder/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	engine := testutil.CreateTestEngine(t, nil)
	s, err := New(config.DefaultConfig(), func() (services.Engine, error) { return engine, nil }, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
}

func TestTransliterateEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"default variant", `{"text":"kita"}`, "كِيتَا"},
		{"stemmed", `{"text":"tulisan","variant":"Jawa","stem":true}`, "تُولِيسَان"},
		{"inverse", `{"text":"كِيتَا","direction":"latin"}`, "kita"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, "/transliterate", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var resp resultResponse
			decodeBody(t, rec, &resp)
			if resp.Result != tt.want {
				t.Errorf("result = %q, want %q", resp.Result, tt.want)
			}
		})
	}
}

func TestStemEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := post(t, h, "/stem", `{"word":"dijupukake","variant":"jawa"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got models.StemResult
	decodeBody(t, rec, &got)
	want := models.StemResult{BaseWord: "jupuk", AffixSequence: []string{"di-", "-ake"}}
	if !got.Equal(want) {
		t.Errorf("stem = %+v, want %+v", got, want)
	}

	// NotFound still carries an empty list, not null.
	rec = post(t, h, "/stem", `{"word":"buku","variant":"jawa"}`)
	if !strings.Contains(rec.Body.String(), `"affixSequence":[]`) {
		t.Errorf("NotFound body = %s", rec.Body.String())
	}
}

func TestIMEEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()
	buf := ""
	for _, r := range "kita" {
		body, _ := json.Marshal(imeRequest{Text: buf + string(r)})
		rec := post(t, h, "/ime", string(body))
		var resp resultResponse
		decodeBody(t, rec, &resp)
		buf = resp.Result
	}
	if buf != "كِيتَا" {
		t.Errorf("typing kita gave %q", buf)
	}
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t)
	s.cfg.MaxRequestBytes = 1024
	h := s.Handler()

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		errMsg string
	}{
		{"bad json", "/transliterate", `{"text":`, http.StatusBadRequest, "invalid JSON"},
		{"unknown variant", "/transliterate", `{"text":"kita","variant":"klingon"}`, http.StatusBadRequest, "unknown variant"},
		{"unknown direction", "/transliterate", `{"text":"kita","direction":"up"}`, http.StatusBadRequest, "unknown direction"},
		{"missing word", "/stem", `{"variant":"jawa"}`, http.StatusBadRequest, "word is required"},
		{"ime variant", "/ime", `{"text":"k","variant":"latin"}`, http.StatusBadRequest, "unknown variant"},
		{"too large", "/transliterate", `{"text":"` + strings.Repeat("a", 2048) + `"}`, http.StatusRequestEntityTooLarge, "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			var resp errorResponse
			decodeBody(t, rec, &resp)
			if !strings.Contains(resp.Error, tt.errMsg) {
				t.Errorf("error = %q, want it to mention %q", resp.Error, tt.errMsg)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transliterate", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestEngineFailureIs500(t *testing.T) {
	engine := mocks.NewMockEngine()
	engine.Err = errors.New("boom")
	s, err := New(config.DefaultConfig(), func() (services.Engine, error) { return engine, nil }, nil)
	if err != nil {
		t.Fatal(err)
	}
	rec := post(t, s.Handler(), "/transliterate", `{"text":"kita"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("internal errors should not leak to clients")
	}
}

func TestGzip(t *testing.T) {
	h := newTestServer(t).Handler()
	req := httptest.NewRequest(http.MethodPost, "/transliterate", strings.NewReader(`{"text":"kita"}`))
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q", rec.Header().Get("Content-Encoding"))
	}
	gz, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader failed: %v", err)
	}
	data, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}
	var resp resultResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Result != "كِيتَا" {
		t.Errorf("result = %q", resp.Result)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.Engine().Fingerprint(models.Jawa); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var resp healthResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "ok" || resp.Fingerprint == "" || resp.Catalog == "" {
		t.Errorf("healthz = %+v", resp)
	}
	if len(resp.Loaded) != 1 || resp.Loaded[0] != models.Jawa {
		t.Errorf("Loaded = %v, want [jawa]", resp.Loaded)
	}
}

func TestReload(t *testing.T) {
	var builds atomic.Int32
	var fail atomic.Bool
	build := func() (services.Engine, error) {
		if fail.Load() {
			return nil, errors.New("broken catalog")
		}
		e := mocks.NewMockEngine()
		e.Print = fmt.Sprintf("v%d", builds.Add(1))
		return e, nil
	}

	s, err := New(config.DefaultConfig(), build, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Engine().Info().Fingerprint; got != "v1" {
		t.Fatalf("fingerprint = %q, want v1", got)
	}

	if err := s.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got := s.Engine().Info().Fingerprint; got != "v2" {
		t.Errorf("fingerprint = %q after reload, want v2", got)
	}

	fail.Store(true)
	if err := s.Reload(); err == nil {
		t.Error("expected the build error")
	}
	if got := s.Engine().Info().Fingerprint; got != "v2" {
		t.Errorf("a failed reload must keep the old engine, got %q", got)
	}
}

func TestNewFailsWithoutEngine(t *testing.T) {
	_, err := New(config.DefaultConfig(), func() (services.Engine, error) { return nil, errors.New("no catalog") }, nil)
	if err == nil {
		t.Error("expected an error")
	}
}

func TestEventsStreamReloads(t *testing.T) {
	var builds atomic.Int32
	s, err := New(config.DefaultConfig(), func() (services.Engine, error) {
		e := mocks.NewMockEngine()
		e.Print = fmt.Sprintf("v%d", builds.Add(1))
		return e, nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.Close()

	resp, err := http.Get(ts.URL + "/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	r := bufio.NewReader(resp.Body)

	line, err := r.ReadString('\n')
	if err != nil || line != "data: connected\n" {
		t.Fatalf("first line = %q, %v", line, err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for s.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if err := s.Reload(); err != nil {
		t.Fatal(err)
	}

	var lines []string
	for len(lines) < 3 {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read failed after %q: %v", lines, err)
		}
		if line != "\n" {
			lines = append(lines, line)
		}
		if strings.HasPrefix(line, "data: v2") {
			break
		}
	}
	joined := strings.Join(lines, "")
	if !strings.Contains(joined, "event: reload\n") || !strings.Contains(joined, "data: v2\n") {
		t.Errorf("stream = %q", joined)
	}
}

func TestListenAddr(t *testing.T) {
	tests := []struct {
		configured, host, port, want string
	}{
		{"localhost:2604", "", "", "localhost:2604"},
		{"localhost:2604", "0.0.0.0", "", "0.0.0.0:2604"},
		{"localhost:2604", "", "9000", "localhost:9000"},
		{"garbage", "", "", "localhost:2604"},
	}
	for _, tt := range tests {
		if got := listenAddr(tt.configured, tt.host, tt.port); got != tt.want {
			t.Errorf("listenAddr(%q, %q, %q) = %q, want %q", tt.configured, tt.host, tt.port, got, tt.want)
		}
	}
}

func TestRunShutsDown(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "aksara.yaml")
	if err := os.WriteFile(cfgPath, []byte("noCache: true\nshutdownTimeout: 1s\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, []string{"-config", cfgPath, "-host", "127.0.0.1", "-port", "0"})
	}()

	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunBadFlags(t *testing.T) {
	if err := Run(context.Background(), []string{"-variant", "klingon", "-config", filepath.Join(t.TempDir(), "none.yaml")}); err == nil {
		t.Error("expected an error for an unknown variant")
	}
}
