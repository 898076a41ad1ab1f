package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"moveops/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, payload any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	c.Request, err = http.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	require.NoError(t, err)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

// A bad quantity on the second line must be reported against that line,
// not as a bare field name shared by every failing line.
func TestBindAndValidate_NamesOffendingLineIndex(t *testing.T) {
	c, w := postJSON(t, map[string]any{
		"client_id": uuid.New().String(),
		"items": []map[string]any{
			{"item_id": uuid.New().String(), "quantity": 2},
			{"item_id": uuid.New().String(), "quantity": 0},
		},
		"vat_percentage": 0,
	})

	var req dto.CreateQuoteRequest
	assert.False(t, bindAndValidate(c, &req))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "min", body.Fields["Items[1].Quantity"])
	_, bare := body.Fields["Quantity"]
	assert.False(t, bare, "field keys must keep their slice index")
}

func TestBindAndValidate_DistinctKeysPerBadLine(t *testing.T) {
	c, w := postJSON(t, map[string]any{
		"client_id": uuid.New().String(),
		"items": []map[string]any{
			{"item_id": uuid.New().String(), "quantity": 0},
			{"item_id": uuid.New().String(), "quantity": -3},
		},
		"vat_percentage": 0,
	})

	var req dto.CreateQuoteRequest
	assert.False(t, bindAndValidate(c, &req))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "min", body.Fields["Items[0].Quantity"])
	assert.Equal(t, "min", body.Fields["Items[1].Quantity"])
}
