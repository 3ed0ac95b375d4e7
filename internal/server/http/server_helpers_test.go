package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/and161185/sample-dispatch/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testKey = []byte("test-signing-key")

// fixedNow is 09:00 UTC on the day every test sample is scheduled for.
var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	h     http.Handler
	srv   *Server
	store *memStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := newMemStore()
	clock := func() time.Time { return fixedNow }
	auth := service.NewAuthService(memAgents{store}, testKey, nil, clock)
	samples := service.NewSampleService(memSamples{store}, clock)
	srv := New(auth, samples, zaptest.NewLogger(t))
	srv.now = clock
	return &env{h: srv.Handler(), srv: srv, store: store}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["error"]
}
