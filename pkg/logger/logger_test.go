package logger

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWithStoresEnrichedLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "info", true)
	_, ctx := With(ToContext(context.Background(), base), FieldUserID, "alice")
	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), `"user_id":"alice"`)
}

func TestMiddlewareAddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "debug", true)
	handler := chimiddleware.RequestID(Middleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("handled")
	})))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard-layout", nil))
	require.Contains(t, buf.String(), `"path":"/dashboard-layout"`)
	assert.Contains(t, buf.String(), `"method":"GET"`)
	assert.Contains(t, buf.String(), `"request_id":`)
}
