package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	require.NoError(t, WriteError(rec, http.StatusConflict, "CONFLICT", "already exists", map[string]string{"id": "1"}))

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, ErrorEnvelope{Message: "already exists", Code: "CONFLICT", Meta: map[string]string{"id": "1"}}, got)
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	NotFound().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"message":"route not found","code":"NOT_FOUND","meta":{"path":"/nope"}}`, rec.Body.String())
}
