package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	return router, logs
}

func TestGinMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
	}{
		{name: "success logs at info", status: http.StatusOK, wantLevel: zapcore.InfoLevel},
		{name: "client error logs at warn", status: http.StatusNotFound, wantLevel: zapcore.WarnLevel},
		{name: "server error logs at error", status: http.StatusBadGateway, wantLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, logs := newObservedRouter(t)
			router.GET("/invoices", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
			router.ServeHTTP(w, req)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
			assert.Equal(t, "request", entries[0].Message)

			fields := entries[0].ContextMap()
			assert.Equal(t, http.MethodGet, fields["method"])
			assert.Equal(t, "/invoices", fields["path"])
			assert.EqualValues(t, tt.status, fields["status"])
		})
	}

	t.Run("query string is recorded when present", func(t *testing.T) {
		router, logs := newObservedRouter(t)
		router.GET("/reports/totals", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/reports/totals?kind=invoice", nil)
		router.ServeHTTP(w, req)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "kind=invoice", entries[0].ContextMap()["query"])
	})
}

func TestGinMiddleware_RequestScopedLogger(t *testing.T) {
	router, logs := newObservedRouter(t)
	router.GET("/expenses", func(c *gin.Context) {
		FromGin(c).Info("handler log")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	router.ServeHTTP(w, req)

	entries := logs.All()
	require.Len(t, entries, 2, "handler line plus access line")
	assert.Equal(t, "handler log", entries[0].Message)
	assert.Equal(t, "/expenses", entries[0].ContextMap()["path"])
}

func TestFromGin_OutsideRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	got := FromGin(c)
	require.NotNil(t, got, "missing logger falls back to a no-op")
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "panic recovered", entries[0].Message)
	assert.Equal(t, "kaboom", entries[0].ContextMap()["error"])
}
