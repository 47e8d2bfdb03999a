package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError_FlatBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleError(c, ErrPartialWrite(errors.New("db down"), "task", map[string]any{"taskId": "t1"}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(CodeInternalError), body["code"])
	assert.Equal(t, "task", body["domain"])
	assert.Equal(t, map[string]any{"taskId": "t1"}, body["details"])
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestHandleError_UnknownErrorIsInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleError(c, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), string(CodeInternalError))
}

func TestHasCode(t *testing.T) {
	err := ErrInsufficientFunds(errors.New("insufficient coins"))
	assert.True(t, HasCode(err, CodeInsufficientFunds))
	assert.Equal(t, http.StatusConflict, err.HTTPCode)
	assert.False(t, HasCode(errors.New("plain"), CodeInsufficientFunds))

	wrapped := ErrTaskBudgetExhausted.WithError(errors.New("budget"))
	assert.True(t, HasCode(wrapped, CodeInsufficientFunds))
	assert.Nil(t, ErrTaskBudgetExhausted.Err, "WithError не меняет общий экземпляр")
}
