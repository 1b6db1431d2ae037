package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sngm3741/riskboard/api/internal/infrastructure/memory"
	"github.com/sngm3741/riskboard/api/internal/interfaces/http/common"
	surveyapp "github.com/sngm3741/riskboard/api/internal/survey/application"
	"github.com/sngm3741/riskboard/api/internal/survey/domain"
)

func seededRouter(t *testing.T, count int) (http.Handler, []string) {
	t.Helper()
	repo := memory.NewResponseRepository()
	ids := make([]string, 0, count)
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		stored := &domain.StoredResponse{
			Response: domain.Response{
				RespondentID: fmt.Sprintf("r-%d", i),
				Location:     "Osaka",
				Category:     []string{"flood", "quake"}[i%2],
				Timeline:     "2026",
				Answers:      json.RawMessage(`{"q":1}`),
			},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Save(context.Background(), stored))
		ids = append(ids, stored.ID)
	}
	return newRouter(repo), ids
}

var testAdmin = common.AuthenticatedUser{ID: "admin-1", Name: "運用担当", Issuer: "riskboard"}

func newRouter(repo surveyapp.ResponseRepository) http.Handler {
	return newRouterWith(repo, zap.NewNop(), &testAdmin)
}

// newRouterWith は user が nil でなければ認証ミドルウェアと同じくコンテキストへ管理者を詰める。
func newRouterWith(repo surveyapp.ResponseRepository, logger *zap.Logger, user *common.AuthenticatedUser) http.Handler {
	h := NewHandler(Config{Logger: logger, Queries: surveyapp.NewResponseQueryService(repo)})
	r := chi.NewRouter()
	if user != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(common.ContextWithUser(req.Context(), *user)))
			})
		})
	}
	h.Register(r)
	return r
}

type listBody struct {
	Items []domain.StoredResponse `json:"items"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
	Total int                     `json:"total"`
}

func decodeList(res *http.Response) (listBody, error) {
	var body listBody
	err := json.NewDecoder(res.Body).Decode(&body)
	return body, err
}

func TestResponseList(t *testing.T) {
	router, _ := seededRouter(t, 5)

	apitest.New().
		Handler(router).
		Get("/responses").
		Query("limit", "2").
		Query("page", "2").
		Expect(t).
		Status(http.StatusOK).
		Assert(func(res *http.Response, _ *http.Request) error {
			body, err := decodeList(res)
			if err != nil {
				return err
			}
			if body.Total != 5 || body.Page != 2 || body.Limit != 2 || len(body.Items) != 2 {
				return fmt.Errorf("unexpected page: %+v", body)
			}
			// 新しい順なので 2 ページ目は r-2, r-1。
			if body.Items[0].RespondentID != "r-2" || body.Items[1].RespondentID != "r-1" {
				return fmt.Errorf("unexpected order: %s, %s", body.Items[0].RespondentID, body.Items[1].RespondentID)
			}
			return nil
		}).
		End()
}

func TestResponseListFilterAndDefaults(t *testing.T) {
	router, _ := seededRouter(t, 4)

	apitest.New().
		Handler(router).
		Get("/responses").
		Query("category", "quake").
		Query("limit", "0").
		Expect(t).
		Status(http.StatusOK).
		Assert(func(res *http.Response, _ *http.Request) error {
			body, err := decodeList(res)
			if err != nil {
				return err
			}
			if body.Total != 2 || body.Limit != 20 || body.Page != 1 {
				return fmt.Errorf("unexpected body: %+v", body)
			}
			return nil
		}).
		End()
}

func TestResponseListPageBeyondRange(t *testing.T) {
	router, _ := seededRouter(t, 3)

	apitest.New().
		Handler(router).
		Get("/responses").
		Query("page", "9223372036854775807").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"items": [], "page": 9223372036854775807, "limit": 20, "total": 3}`).
		End()
}

func TestResponseListEmpty(t *testing.T) {
	router, _ := seededRouter(t, 0)

	apitest.New().
		Handler(router).
		Get("/responses").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"items": [], "page": 1, "limit": 20, "total": 0}`).
		End()
}

func TestResponseDetail(t *testing.T) {
	router, ids := seededRouter(t, 1)

	apitest.New().
		Handler(router).
		Get("/responses/"+ids[0]).
		Expect(t).
		Status(http.StatusOK).
		Assert(func(res *http.Response, _ *http.Request) error {
			var body domain.StoredResponse
			if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
				return err
			}
			if body.ID != ids[0] || body.RespondentID != "r-0" {
				return fmt.Errorf("unexpected record: %+v", body)
			}
			return nil
		}).
		End()

	apitest.New().
		Handler(router).
		Get("/responses/unknown").
		Expect(t).
		Status(http.StatusNotFound).
		Body(`{"error": "回答が見つかりません"}`).
		End()
}

type unavailableRepository struct {
	surveyapp.ResponseRepository
}

func (unavailableRepository) Find(context.Context, surveyapp.ResponseFilter, surveyapp.Paging) ([]domain.StoredResponse, int, error) {
	return nil, 0, errors.New("timeout")
}

func TestResponseListStoreFailure(t *testing.T) {
	apitest.New().
		Handler(newRouter(unavailableRepository{})).
		Get("/responses").
		Expect(t).
		Status(http.StatusInternalServerError).
		Body(`{"error": "サーバー内部でエラーが発生しました"}`).
		End()
}

func TestAdminAccessIsLoggedWithPrincipal(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	repo := memory.NewResponseRepository()
	stored := &domain.StoredResponse{Response: domain.Response{RespondentID: "r-0", Answers: json.RawMessage(`{}`)}}
	require.NoError(t, repo.Save(context.Background(), stored))
	router := newRouterWith(repo, zap.New(core), &testAdmin)

	apitest.New().
		Handler(router).
		Get("/responses").
		Query("page", "3").
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().
		Handler(router).
		Get("/responses/" + stored.ID).
		Expect(t).
		Status(http.StatusOK).
		End()

	listed := logs.FilterMessage("list responses").All()
	require.Len(t, listed, 1)
	assert.Equal(t, "admin-1", listed[0].ContextMap()["admin_id"])
	assert.Equal(t, "riskboard", listed[0].ContextMap()["admin_issuer"])
	assert.EqualValues(t, 3, listed[0].ContextMap()["page"])
	assert.Equal(t, "admin", listed[0].LoggerName)

	fetched := logs.FilterMessage("fetch response").All()
	require.Len(t, fetched, 1)
	assert.Equal(t, "admin-1", fetched[0].ContextMap()["admin_id"])
	assert.Equal(t, stored.ID, fetched[0].ContextMap()["response_id"])
}

func TestAdminWithoutPrincipal(t *testing.T) {
	router := newRouterWith(memory.NewResponseRepository(), zap.NewNop(), nil)

	for _, path := range []string{"/responses", "/responses/any"} {
		apitest.New().
			Handler(router).
			Get(path).
			Expect(t).
			Status(http.StatusInternalServerError).
			Body(`{"error": "認証情報を取得できませんでした"}`).
			End()
	}
}
