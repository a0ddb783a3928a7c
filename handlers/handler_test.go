package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campus-eats-api/apperr"
	"campus-eats-api/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	h := &Handler{log: logger.Discard()}
	tests := []struct {
		err  error
		code int
		body string
	}{
		{apperr.NotFound("order not found"), http.StatusNotFound, `{"error":"order not found"}`},
		{apperr.Conflict("delivery already assigned"), http.StatusConflict, `{"error":"delivery already assigned"}`},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		h.respondError(c, tt.err)
		assert.Equal(t, tt.code, w.Code)
		assert.JSONEq(t, tt.body, w.Body.String())
	}
}

func TestParamID(t *testing.T) {
	r := gin.New()
	r.GET("/orders/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	for path, code := range map[string]int{
		"/orders/12":  http.StatusOK,
		"/orders/0":   http.StatusBadRequest,
		"/orders/-3":  http.StatusBadRequest,
		"/orders/abc": http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, code, w.Code, path)
	}
}

func TestOrderStatusValidation(t *testing.T) {
	require.NoError(t, RegisterValidators())
	r := gin.New()
	r.POST("/status", func(c *gin.Context) {
		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": req.Status})
	})

	for body, code := range map[string]int{
		`{"status":"READY"}`:     http.StatusOK,
		`{"status":"ready"}`:     http.StatusBadRequest,
		`{"status":"COOKING"}`:   http.StatusBadRequest,
		`{"note":"no status"}`:   http.StatusBadRequest,
		`{"status":"CANCELLED"}`: http.StatusOK,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/status", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, code, w.Code, body)
	}
}
