package public

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sngm3741/riskboard/api/internal/interfaces/http/common"
	"github.com/sngm3741/riskboard/api/internal/survey/domain"
)

const (
	malformedBodyMessage = "リクエストの形式が不正です"
	missingFieldsMessage = "必須項目が不足しています"
)

type createResponseRequest struct {
	RespondentID string          `json:"respondent_id"`
	Location     string          `json:"location"`
	Category     string          `json:"category"`
	Timeline     string          `json:"timeline"`
	Answers      json.RawMessage `json:"answers"`
}

func (req createResponseRequest) toDomain() domain.Response {
	return domain.Response{
		RespondentID: req.RespondentID,
		Location:     req.Location,
		Category:     req.Category,
		Timeline:     req.Timeline,
		Answers:      req.Answers,
	}
}

// responseCreateHandler は必須 5 項目を確認してから回答を保存し、201 で保存内容を返す。
// 保存時の失敗はそのまま返し、共通のエラー経路で 500 に変換させる。
func (h *Handler) responseCreateHandler(w http.ResponseWriter, r *http.Request) error {
	var req createResponseRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, common.MaxRequestBody)).Decode(&req); err != nil {
		return common.BadRequest(malformedBodyMessage, err)
	}

	stored, err := h.commands.Submit(r.Context(), req.toDomain())
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return common.BadRequest(missingFieldsMessage, err)
		}
		return err
	}

	common.WriteJSON(h.logger, w, http.StatusCreated, stored)
	return nil
}
