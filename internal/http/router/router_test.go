package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"courier-dispatch/internal/http/handlers"
	"courier-dispatch/internal/http/middleware"
	"courier-dispatch/internal/http/router"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/notify"
)

func newTestRouter() http.Handler {
	logger := logx.Nop()
	auth := middleware.NewAuth("secret", logger)
	hub := notify.NewHub(logger, nil)
	base := handlers.New(logger)
	deliveries := &handlers.DeliveryHandler{}
	ws := handlers.NewWSHandler(hub, auth, logger)
	return router.New(logger, base, deliveries, ws, auth, nil)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	t.Parallel()

	r := newTestRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/healthcheck", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_DeliveriesRequireAuth(t *testing.T) {
	t.Parallel()

	r := newTestRouter()

	for _, target := range []string{"/deliveries", "/deliveries/d-1", "/deliveries/driver/available"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestRouter_UnknownRouteIsJSON404(t *testing.T) {
	t.Parallel()

	r := newTestRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
