package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/bets/{betID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/users", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	t.Run("labels requests by route pattern", func(t *testing.T) {
		counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/bets/{betID}", "204")
		before := testutil.ToFloat64(counter)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bets/1b35c66a-77f5-4f1a-a8c6-9a0d32f1c001", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, before+1, testutil.ToFloat64(counter),
			"raw bet IDs must collapse into the route pattern label")
	})

	t.Run("body-only handlers count as 200", func(t *testing.T) {
		counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/users", "200")
		before := testutil.ToFloat64(counter)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, before+1, testutil.ToFloat64(counter))
	})
}
