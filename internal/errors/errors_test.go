package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError_Body(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	BadRequestWithCode(c, ErrCodeRecoveryExpired, "Recovery window has expired")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, c.IsAborted())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Recovery window has expired", body["error"])
	assert.Equal(t, ErrCodeRecoveryExpired, body["code"])
	assert.NotContains(t, body, "details")
}

func TestHelpers_DefaultMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		fn     func(*gin.Context, string)
		status int
		msg    string
	}{
		{"unauthorized", Unauthorized, http.StatusUnauthorized, "Authentication required"},
		{"forbidden", Forbidden, http.StatusForbidden, "Access denied"},
		{"not found", NotFound, http.StatusNotFound, "Resource not found"},
		{"too many", TooManyRequests, http.StatusTooManyRequests, "Too many requests"},
		{"internal", InternalError, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tc.fn(c, "")

			assert.Equal(t, tc.status, w.Code)
			var body APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.msg, body.Message)
		})
	}
}
