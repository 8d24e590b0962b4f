package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_WritesGenericEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, http.StatusBadGateway, "upstream_failure", "Something went wrong, please try again.")

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "upstream_failure", body.Error.ErrorMessage)
	assert.True(t, c.IsAborted())
}

func TestUnauthenticated_Redirects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Unauthenticated(c)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/auth", body.Redirect)
}

func TestSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, http.StatusOK, map[string]string{"voiceId": "abc"})
	assert.JSONEq(t, `{"code":200,"success":true,"data":{"voiceId":"abc"}}`, w.Body.String())
}
