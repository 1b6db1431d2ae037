package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sngm3741/riskboard/api/internal/infrastructure/memory"
	"github.com/sngm3741/riskboard/api/internal/survey/application"
	"github.com/sngm3741/riskboard/api/internal/survey/domain"
)

func TestHTTPMetricsUsesRoutePattern(t *testing.T) {
	c := NewCollector("test")

	r := chi.NewRouter()
	r.Use(HTTPMetrics(c))
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for _, path := range []string{"/items/1", "/items/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues(http.MethodGet, "/items/{id}", "202")))
}

func TestCollectorHandlerExposesMetrics(t *testing.T) {
	c := NewCollector("riskboard")
	c.ResponsesStored.Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "riskboard_responses_stored_total 1")
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(zap.New(core)))
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/boom", fields["path"])
	assert.EqualValues(t, http.StatusInternalServerError, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}

type failingRepository struct {
	application.ResponseRepository
}

func (failingRepository) Save(context.Context, *domain.StoredResponse) error {
	return errors.New("write refused")
}

func TestInstrumentedRepository(t *testing.T) {
	c := NewCollector("test")
	core, logs := observer.New(zapcore.DebugLevel)
	repo := NewInstrumentedRepository(memory.NewResponseRepository(), zap.New(core), c)
	ctx := context.Background()

	stored := &domain.StoredResponse{Response: domain.Response{RespondentID: "r-1"}}
	require.NoError(t, repo.Save(ctx, stored))
	require.NotEmpty(t, stored.ID)

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, application.ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ResponsesStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("save", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("find_by_id", "not_found")))
	assert.Equal(t, 2, logs.FilterMessage("store operation").Len())

	failing := NewInstrumentedRepository(failingRepository{}, zap.New(core), c)
	assert.EqualError(t, failing.Save(ctx, &domain.StoredResponse{}), "write refused")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ResponsesStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("save", "error")))

	failed := logs.FilterMessage("store operation failed").All()
	require.Len(t, failed, 1)
	assert.True(t, strings.Contains(failed[0].ContextMap()["error"].(string), "write refused"))
}

func TestInstrumentedRepositoryWithoutMetrics(t *testing.T) {
	repo := NewInstrumentedRepository(memory.NewResponseRepository(), zap.NewNop(), nil)
	assert.NoError(t, repo.Ping(context.Background()))
	_, total, err := repo.Find(context.Background(), application.ResponseFilter{}, application.Paging{})
	assert.NoError(t, err)
	assert.Zero(t, total)
}
