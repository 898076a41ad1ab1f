package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"moveops/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Handlers attach untyped errors for logging and write the opaque 500 body
// themselves; the middleware must not append a second JSON object.
func TestErrorHandler_DoesNotDoubleWrite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("db exploded")) //nolint:errcheck
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body struct {
		Detail string `json:"detail"`
	}
	dec := json.NewDecoder(w.Body)
	require.NoError(t, dec.Decode(&body))
	assert.Equal(t, "internal server error", body.Detail)
	// A second decode must hit EOF: the body holds exactly one JSON object.
	assert.ErrorIs(t, dec.Decode(&body), io.EOF)
}

// When a handler attaches an error without writing a response, the middleware
// still produces the safe 500 body.
func TestErrorHandler_WritesWhenHandlerDidNot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/silent", func(c *gin.Context) {
		c.Error(errors.New("db exploded")) //nolint:errcheck
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/silent", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Detail)
}
