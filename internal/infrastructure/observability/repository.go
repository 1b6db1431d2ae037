package observability

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sngm3741/riskboard/api/internal/survey/application"
	"github.com/sngm3741/riskboard/api/internal/survey/domain"
)

// InstrumentedRepository wraps a ResponseRepository with debug logging and store metrics.
// metrics が nil の場合はログだけを出す。
type InstrumentedRepository struct {
	inner   application.ResponseRepository
	logger  *zap.Logger
	metrics *Collector
}

var _ application.ResponseRepository = (*InstrumentedRepository)(nil)

func NewInstrumentedRepository(inner application.ResponseRepository, logger *zap.Logger, metrics *Collector) *InstrumentedRepository {
	return &InstrumentedRepository{
		inner:   inner,
		logger:  logger.Named("response_repository"),
		metrics: metrics,
	}
}

func (r *InstrumentedRepository) Save(ctx context.Context, response *domain.StoredResponse) error {
	start := time.Now()
	err := r.inner.Save(ctx, response)
	r.observe("save", start, err, zap.String("respondent_id", response.RespondentID), zap.String("id", response.ID))
	if err == nil && r.metrics != nil {
		r.metrics.ResponsesStored.Inc()
	}
	return err
}

func (r *InstrumentedRepository) Find(ctx context.Context, filter application.ResponseFilter, paging application.Paging) ([]domain.StoredResponse, int, error) {
	start := time.Now()
	items, total, err := r.inner.Find(ctx, filter, paging)
	r.observe("find", start, err, zap.Int("returned", len(items)), zap.Int("total", total))
	return items, total, err
}

func (r *InstrumentedRepository) FindByID(ctx context.Context, id string) (*domain.StoredResponse, error) {
	start := time.Now()
	item, err := r.inner.FindByID(ctx, id)
	r.observe("find_by_id", start, err, zap.String("id", id))
	return item, err
}

func (r *InstrumentedRepository) Ping(ctx context.Context) error {
	start := time.Now()
	err := r.inner.Ping(ctx)
	r.observe("ping", start, err)
	return err
}

func (r *InstrumentedRepository) observe(operation string, start time.Time, err error, fields ...zap.Field) {
	elapsed := time.Since(start)
	status := statusOf(err)

	if r.metrics != nil {
		r.metrics.StoreOperations.WithLabelValues(operation, status).Inc()
		r.metrics.StoreDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	}

	fields = append(fields,
		zap.String("operation", operation),
		zap.String("status", status),
		zap.Duration("duration", elapsed),
	)
	if status == "error" {
		r.logger.Error("store operation failed", append(fields, zap.Error(err))...)
		return
	}
	r.logger.Debug("store operation", fields...)
}

// 未存在は呼び出し側の想定内なので失敗として数えない。
func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, application.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
