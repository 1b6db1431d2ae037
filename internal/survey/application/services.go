package application

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sngm3741/riskboard/api/internal/survey/domain"
)

// ErrNotFound is returned by repositories when no response matches.
var ErrNotFound = errors.New("response not found")

// ResponseRepository はアンケート回答を永続化するためのポート。
// 実装は memory / mongo / postgres の 3 種類。
type ResponseRepository interface {
	Save(ctx context.Context, response *domain.StoredResponse) error
	Find(ctx context.Context, filter ResponseFilter, paging Paging) ([]domain.StoredResponse, int, error)
	FindByID(ctx context.Context, id string) (*domain.StoredResponse, error)
	Ping(ctx context.Context) error
}

// ResponseFilter expresses exact-match search criteria.
type ResponseFilter struct {
	RespondentID string
	Location     string
	Category     string
}

// Paging controls pagination.
type Paging struct {
	Page  int
	Limit int
}

// Offset returns the number of records to skip.
// 乗算が int を溢れる場合は math.MaxInt に丸める。結果は常に 0 以上になる。
func (p Paging) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// ResponseCommandService handles writing use-cases.
type ResponseCommandService interface {
	Submit(ctx context.Context, response domain.Response) (*domain.StoredResponse, error)
}

// ResponseQueryService describes read use-cases.
// ResponseQueryService は管理画面向けの参照ユースケースを提供するリーダーモデル。
type ResponseQueryService interface {
	List(ctx context.Context, filter ResponseFilter, paging Paging) ([]domain.StoredResponse, int, error)
	Detail(ctx context.Context, id string) (*domain.StoredResponse, error)
}

func NewResponseCommandService(repo ResponseRepository) ResponseCommandService {
	return &responseCommandService{repo: repo, now: time.Now}
}

type responseCommandService struct {
	repo ResponseRepository
	now  func() time.Time
}

// Submit は回答を 1 件保存する。重複検出は行わないため、同一内容でも別レコードになる。
func (s *responseCommandService) Submit(ctx context.Context, response domain.Response) (*domain.StoredResponse, error) {
	if err := response.Validate(); err != nil {
		return nil, err
	}

	stored := &domain.StoredResponse{
		Response: domain.Response{
			RespondentID: response.RespondentID,
			Location:     response.Location,
			Category:     response.Category,
			Timeline:     response.Timeline,
			Answers:      response.CloneAnswers(),
		},
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Save(ctx, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

func NewResponseQueryService(repo ResponseRepository) ResponseQueryService {
	return &responseQueryService{repo: repo}
}

type responseQueryService struct {
	repo ResponseRepository
}

func (s *responseQueryService) List(ctx context.Context, filter ResponseFilter, paging Paging) ([]domain.StoredResponse, int, error) {
	return s.repo.Find(ctx, filter, paging)
}

func (s *responseQueryService) Detail(ctx context.Context, id string) (*domain.StoredResponse, error) {
	return s.repo.FindByID(ctx, id)
}
