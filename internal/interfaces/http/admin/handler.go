package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/riskboard/api/internal/interfaces/http/common"
	surveyapp "github.com/sngm3741/riskboard/api/internal/survey/application"
)

// Handler wires admin HTTP endpoints to application services.
type Handler struct {
	logger  *zap.Logger
	queries surveyapp.ResponseQueryService
}

// Config provides dependencies for Handler.
type Config struct {
	Logger  *zap.Logger
	Queries surveyapp.ResponseQueryService
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		logger:  logger.Named("admin"),
		queries: cfg.Queries,
	}
}

// Register mounts admin routes onto router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/responses", h.responseListHandler())
	r.Get("/responses/{id}", h.responseDetailHandler())
}

// principal は認証ミドルウェアが詰めた管理者を取り出す。
// 管理ルートは必ず認証の後ろに置かれるので、取れない場合はサーバー側の不整合として 500 を返す。
func principal(r *http.Request) (common.AuthenticatedUser, error) {
	user, ok := common.UserFromContext(r.Context())
	if !ok {
		return common.AuthenticatedUser{}, &common.AppError{
			Status:  http.StatusInternalServerError,
			Message: "認証情報を取得できませんでした",
		}
	}
	return user, nil
}

func adminFields(user common.AuthenticatedUser) []zap.Field {
	return []zap.Field{
		zap.String("admin_id", user.ID),
		zap.String("admin_issuer", user.Issuer),
	}
}
