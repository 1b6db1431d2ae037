package public

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/riskboard/api/internal/interfaces/http/common"
	surveyapp "github.com/sngm3741/riskboard/api/internal/survey/application"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger   *zap.Logger
	commands surveyapp.ResponseCommandService
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger   *zap.Logger
	Commands surveyapp.ResponseCommandService
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		logger:   logger.Named("public"),
		commands: cfg.Commands,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/responses", common.Handle(h.logger, h.responseCreateHandler))
	r.Get("/risk-data", common.Handle(h.logger, h.riskDataHandler))
}
