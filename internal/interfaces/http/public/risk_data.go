package public

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/sngm3741/riskboard/api/internal/interfaces/http/common"
	"github.com/sngm3741/riskboard/api/internal/riskscale"
)

const invalidScoreMessage = "score には有限の数値を指定してください"

type riskLevelResponse struct {
	Score float64 `json:"score"`
	riskscale.Level
}

// riskDataHandler は score 指定があればその帯を、なければ凡例全体を返す。
func (h *Handler) riskDataHandler(w http.ResponseWriter, r *http.Request) error {
	raw := strings.TrimSpace(r.URL.Query().Get("score"))
	if raw == "" {
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"levels": riskscale.Legend(),
		})
		return nil
	}

	score, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		return common.BadRequest(invalidScoreMessage, err)
	}

	common.WriteJSON(h.logger, w, http.StatusOK, riskLevelResponse{
		Score: score,
		Level: riskscale.LevelFor(score),
	})
	return nil
}
