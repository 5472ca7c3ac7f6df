package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveWithAccessLog(t *testing.T, handler gin.HandlerFunc, path string) *observer.ObservedLogs {
	t.Helper()
	log, logs := newObservedLogger()

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-123")
		c.Next()
	})
	router.Use(GinMiddleware(log))
	router.GET("/dashboard/clientes", handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return logs
}

func TestGinMiddleware_AccessLog(t *testing.T) {
	logs := serveWithAccessLog(t, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"clientes": 12})
	}, "/dashboard/clientes?profile=inadimplencia")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request", entry.Message)
	assert.Equal(t, zap.InfoLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/dashboard/clientes", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "profile=inadimplencia", fields["query"])
}

func TestGinMiddleware_LevelTracksStatus(t *testing.T) {
	t.Run("client errors log at warn", func(t *testing.T) {
		logs := serveWithAccessLog(t, func(c *gin.Context) {
			c.JSON(http.StatusBadRequest, gin.H{})
		}, "/dashboard/clientes")

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
	})

	t.Run("server errors log at error", func(t *testing.T) {
		logs := serveWithAccessLog(t, func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, gin.H{})
		}, "/dashboard/clientes")

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zap.ErrorLevel, logs.All()[0].Level)
	})
}

func TestGinMiddleware_PublishesLoggerToRequestContext(t *testing.T) {
	log, logs := newObservedLogger()

	router := gin.New()
	router.Use(GinMiddleware(log))
	router.GET("/dashboard/clientes", func(c *gin.Context) {
		FromContext(c.Request.Context()).Info("handler side")
		GetGinLogger(c).Info("gin side")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/clientes", nil))

	messages := make([]string, 0, logs.Len())
	for _, e := range logs.All() {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "handler side")
	assert.Contains(t, messages, "gin side")
}

func TestGetGinLogger_OutsideRequestIsNoop(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}

func TestRecovery(t *testing.T) {
	log, logs := newObservedLogger()

	router := gin.New()
	router.Use(Recovery(log))
	router.GET("/dashboard/clientes", func(c *gin.Context) {
		panic("nil reconciler")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/clientes", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "panic recovered", entry.Message)
	assert.Equal(t, "nil reconciler", entry.ContextMap()["panic"])
}
