package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/sngm3741/riskboard/api/internal/survey/application"
	"github.com/sngm3741/riskboard/api/internal/survey/domain"
)

// ResponseRepository はプロセス内にのみ回答を保持する実装。再起動で消える。
type ResponseRepository struct {
	mu        sync.RWMutex
	responses []domain.StoredResponse
	index     map[string]int
}

// NewResponseRepository creates an empty in-memory repository.
func NewResponseRepository() *ResponseRepository {
	return &ResponseRepository{index: make(map[string]int)}
}

// Save は UUID を採番して末尾に追加する。
func (r *ResponseRepository) Save(_ context.Context, response *domain.StoredResponse) error {
	stored := *response
	stored.ID = uuid.NewString()
	stored.Answers = response.CloneAnswers()

	r.mu.Lock()
	r.index[stored.ID] = len(r.responses)
	r.responses = append(r.responses, stored)
	r.mu.Unlock()

	response.ID = stored.ID
	return nil
}

// Find は新しい順に絞り込み結果を返す。total はページング前の件数。
func (r *ResponseRepository) Find(_ context.Context, filter application.ResponseFilter, paging application.Paging) ([]domain.StoredResponse, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.StoredResponse, 0)
	for i := len(r.responses) - 1; i >= 0; i-- {
		item := r.responses[i]
		if !matches(item, filter) {
			continue
		}
		matched = append(matched, copyResponse(item))
	}

	total := len(matched)
	start := paging.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := total
	if paging.Limit > 0 && paging.Limit < total-start {
		end = start + paging.Limit
	}
	return matched[start:end], total, nil
}

// FindByID returns application.ErrNotFound for unknown ids.
func (r *ResponseRepository) FindByID(_ context.Context, id string) (*domain.StoredResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, ok := r.index[id]
	if !ok {
		return nil, application.ErrNotFound
	}
	item := copyResponse(r.responses[pos])
	return &item, nil
}

// Ping always succeeds.
func (r *ResponseRepository) Ping(context.Context) error {
	return nil
}

func matches(item domain.StoredResponse, filter application.ResponseFilter) bool {
	if filter.RespondentID != "" && item.RespondentID != filter.RespondentID {
		return false
	}
	if filter.Location != "" && item.Location != filter.Location {
		return false
	}
	if filter.Category != "" && item.Category != filter.Category {
		return false
	}
	return true
}

func copyResponse(item domain.StoredResponse) domain.StoredResponse {
	item.Answers = item.CloneAnswers()
	return item
}
