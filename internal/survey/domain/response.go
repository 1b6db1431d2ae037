package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Response represents one survey submission as sent by the dashboard.
type Response struct {
	RespondentID string          `json:"respondent_id" validate:"required"`
	Location     string          `json:"location" validate:"required"`
	Category     string          `json:"category" validate:"required"`
	Timeline     string          `json:"timeline" validate:"required"`
	Answers      json.RawMessage `json:"answers" validate:"required,present_json"`
}

// StoredResponse is a Response after persistence.
type StoredResponse struct {
	ID string `json:"id"`
	Response
	CreatedAt time.Time `json:"created_at"`
}

// CloneAnswers returns an independent copy of the raw answers payload.
func (r Response) CloneAnswers() json.RawMessage {
	if r.Answers == nil {
		return nil
	}
	return append(json.RawMessage(nil), r.Answers...)
}

// answersPresent は answers が JSON として空でも null でも空文字列でもないことを確認する。
func answersPresent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil && text == "" {
			return false
		}
	}
	return true
}
