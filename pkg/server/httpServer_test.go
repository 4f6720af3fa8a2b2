package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/application"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/httpapi"
)

type pingController struct{}

func (pingController) Key() string { return "/ping" }

func (pingController) Register(r *mux.Router) {
	r.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}).Methods(http.MethodGet)
}

func TestRouter(t *testing.T) {
	t.Parallel()
	app := application.New(&application.ApplicationOptions{})
	app.RegisterControllers(pingController{})

	var hits int
	app.RegisterMiddleware(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			next.ServeHTTP(w, r)
		})
	})

	h := NewHTTPServer(app, httpapi.NotFound(), httpapi.MethodNotAllowed()).Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, "pong", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/ping", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	require.Equal(t, 3, hits)
}
