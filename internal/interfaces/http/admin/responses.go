package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/riskboard/api/internal/interfaces/http/common"
	surveyapp "github.com/sngm3741/riskboard/api/internal/survey/application"
	"github.com/sngm3741/riskboard/api/internal/survey/domain"
)

type responseListResponse struct {
	Items []domain.StoredResponse `json:"items"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
	Total int                     `json:"total"`
}

func (h *Handler) responseListHandler() http.HandlerFunc {
	return common.Handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		user, err := principal(r)
		if err != nil {
			return err
		}

		query := r.URL.Query()
		page, _ := common.ParsePositiveInt(query.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), common.DefaultPageLimit)
		if limit > common.MaxPageLimit {
			limit = common.MaxPageLimit
		}

		filter := surveyapp.ResponseFilter{
			RespondentID: strings.TrimSpace(query.Get("respondent_id")),
			Location:     strings.TrimSpace(query.Get("location")),
			Category:     strings.TrimSpace(query.Get("category")),
		}

		h.logger.Info("list responses",
			append(adminFields(user), zap.Int("page", page), zap.Int("limit", limit))...)

		items, total, err := h.queries.List(r.Context(), filter, surveyapp.Paging{Page: page, Limit: limit})
		if err != nil {
			return fmt.Errorf("list responses: %w", err)
		}
		if items == nil {
			items = []domain.StoredResponse{}
		}

		common.WriteJSON(h.logger, w, http.StatusOK, responseListResponse{
			Items: items,
			Page:  page,
			Limit: limit,
			Total: total,
		})
		return nil
	})
}

func (h *Handler) responseDetailHandler() http.HandlerFunc {
	return common.Handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		user, err := principal(r)
		if err != nil {
			return err
		}

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		h.logger.Info("fetch response", append(adminFields(user), zap.String("response_id", id))...)

		stored, err := h.queries.Detail(r.Context(), id)
		if err != nil {
			if errors.Is(err, surveyapp.ErrNotFound) {
				return common.NotFound("回答が見つかりません")
			}
			return fmt.Errorf("fetch response %s: %w", id, err)
		}

		common.WriteJSON(h.logger, w, http.StatusOK, stored)
		return nil
	})
}
