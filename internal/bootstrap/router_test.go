package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpHandler "thumbio/internal/handler/http"
	wsHandler "thumbio/internal/handler/websocket"
	"thumbio/internal/hub"
	gormpersistence "thumbio/internal/infra/persistence/gorm"
	"thumbio/internal/infra/setup"
	redisstate "thumbio/internal/infra/state/redis"
	"thumbio/internal/service"
)

func newTestRouter(t *testing.T, cfg *Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := setup.InitDB(setup.DBOptions{Driver: setup.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "router.db")})
	require.NoError(t, err)
	require.NoError(t, setup.MigrateDB(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	state := redisstate.NewRedisStateRepository(rdb, cfg.KeyPrefix)
	canvasService := service.NewCanvasService(gormpersistence.NewGormCanvasRepository(db), state, nil)
	quotaService := service.NewQuotaService(state, cfg.QuotaDailyLimit)
	h := hub.NewHub()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return NewRouter(cfg, log, Handlers{
		Canvas:    httpHandler.NewCanvasHandler(canvasService),
		Quota:     httpHandler.NewQuotaHandler(quotaService),
		Presence:  httpHandler.NewPresenceHandler(h),
		WebSocket: wsHandler.NewWebSocketHandler(h, cfg.CORSAllowedOrigin),
	}, rdb)
}

func testConfig() *Config {
	return &Config{
		KeyPrefix:         "router:",
		RateLimitMax:      100,
		RateLimitWindow:   time.Second,
		QuotaDailyLimit:   10,
		CORSAllowedOrigin: "*",
	}
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_PingAndPreflight(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodOptions, "/api/canvases")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouter_WriteRoutesRequireTokenWhenSecretSet(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "router-secret"
	r := newTestRouter(t, cfg)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/canvases").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/quota/consume").Code)

	w := serve(r, http.MethodGet, "/api/canvases")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
}

func TestRouter_OpenWhenSecretEmpty(t *testing.T) {
	r := newTestRouter(t, testConfig())

	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/api/canvases").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/quota").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/rooms").Code)
}
