package health_check_api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alteraai/config"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

func newHealthApi(t *testing.T) (*gin.Engine, redismock.ClientMock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, err := commons.NewApplicationLogger(commons.Name("test-health"), commons.Path(t.TempDir()))
	require.NoError(t, err)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gorm_logger.Default.LogMode(gorm_logger.Silent)})
	require.NoError(t, err)
	client, mock := redismock.NewClientMock()

	api := New(&config.AppConfig{Name: "persona-api", Version: "1.2.3"}, logger,
		connectors.NewPostgresConnectorFromDB(db, logger),
		connectors.NewRedisConnectorFromClient(client, logger))
	engine := gin.New()
	engine.GET("/readiness/", api.Readiness)
	engine.GET("/healthz/", api.Healthz)
	return engine, mock
}

func TestReadiness(t *testing.T) {
	engine, mock := newHealthApi(t)

	mock.ExpectPing().SetVal("PONG")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readiness/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":true`)

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readiness/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":false`)
	assert.Contains(t, w.Body.String(), `"postgres":true`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthz(t *testing.T) {
	engine, _ := newHealthApi(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)
}
