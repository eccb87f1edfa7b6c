package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "localhost:0"
	}
	s, err := NewServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s.routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestHealthCheck(t *testing.T) {
	code, resp := do(t, newTestServer(t, Config{}), http.MethodGet, "/api/healthcheck", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])
}

func TestLexHandler(t *testing.T) {
	h := newTestServer(t, Config{})

	code, resp := do(t, h, http.MethodPost, "/api/lex", `{"source": "int main(void) { return 0; }"}`)
	require.Equal(t, http.StatusOK, code)

	tokens := resp["data"].(map[string]any)["tokens"].([]any)
	require.Len(t, tokens, 10)
	first := tokens[0].(map[string]any)
	assert.Equal(t, "IntKeyword", first["kind"])
	assert.Equal(t, "int", first["lexeme"])
	constant := tokens[7].(map[string]any)
	assert.Equal(t, "Constant", constant["kind"])
	assert.Equal(t, float64(0), constant["line"])
	assert.Contains(t, constant, "value")
	assert.Equal(t, float64(0), constant["value"])

	code, resp = do(t, h, http.MethodPost, "/api/lex", `{"source": ""}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp["data"].(map[string]any)["tokens"])
}

func TestLexHandlerLexicalError(t *testing.T) {
	code, resp := do(t, newTestServer(t, Config{}), http.MethodPost, "/api/lex", `{"source": "int\nmain @"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, false, resp["success"])

	md := resp["metadata"].(map[string]any)
	assert.Equal(t, "unrecognized_character", md["code"])
	assert.Equal(t, float64(1), md["line"])
	assert.Contains(t, resp["message"], "line 1")
}

func TestLexHandlerRecover(t *testing.T) {
	code, resp := do(t, newTestServer(t, Config{}), http.MethodPost, "/api/lex", `{"source": "int @ x # ;", "recover": true}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["success"])

	data := resp["data"].(map[string]any)
	assert.Len(t, data["tokens"], 3)
	assert.Len(t, data["diagnostics"], 2)
}

func TestParseHandler(t *testing.T) {
	h := newTestServer(t, Config{})

	code, resp := do(t, h, http.MethodPost, "/api/parse", `{"source": "int main(void) { return 42; }"}`)
	require.Equal(t, http.StatusOK, code)
	data := resp["data"].(map[string]any)
	assert.Contains(t, data["tree"], "Constant(42)")
	fn := data["program"].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "main", fn["name"])

	code, resp = do(t, h, http.MethodPost, "/api/parse", `{"source": "int main(void) {\n return 42 }"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	md := resp["metadata"].(map[string]any)
	assert.Equal(t, "unexpected_token", md["code"])
	assert.Equal(t, float64(1), md["line"])
}

func TestBadRequests(t *testing.T) {
	h := newTestServer(t, Config{MaxBodyBytes: 64})

	code, _ := do(t, h, http.MethodPost, "/api/lex", `{"source": `)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp := do(t, h, http.MethodPost, "/api/lex", `{"text": "int"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, resp["metadata"].(map[string]any)["fields"], "text")

	code, _ = do(t, h, http.MethodPost, "/api/lex", `{"source": "`+strings.Repeat("x", 100)+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{Addr: ":8000", MaxBodyBytes: -1}.Validate())
	assert.NoError(t, Config{Addr: ":8000"}.Validate())
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServeDrainsInFlightRequests(t *testing.T) {
	addr := freeAddr(t)
	s, err := NewServer(Config{Addr: addr, ShutdownTimeout: 5 * time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- s.serve(ctx, mux) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/ping")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + addr + "/slow")
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-started
	cancel()

	// Shutdown must wait for the slow request.
	select {
	case <-served:
		t.Fatal("server returned before the in-flight request finished")
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	assert.Equal(t, http.StatusOK, <-status)

	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestReadJsonInvalidDestination(t *testing.T) {
	s, err := NewServer(Config{Addr: "localhost:0"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	var req sourceRequest
	r := httptest.NewRequest(http.MethodPost, "/api/lex", strings.NewReader(`{"source": "int x;"}`))
	rec := httptest.NewRecorder()

	err = s.readJson(rec, r, req)
	require.Error(t, err)

	var invalid *json.InvalidUnmarshalError
	assert.ErrorAs(t, err, &invalid)

	assert.True(t, s.returnOnError(rec, r, err))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
