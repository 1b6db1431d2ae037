package mongo

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sngm3741/riskboard/api/internal/survey/domain"
)

// ResponseDocument は MongoDB 上での回答スキーマを Go 構造体として表現したもの。
// answers は受け取った JSON テキストをそのまま文字列で持つ。
// BSON へ展開すると $ で始まるキーや 64bit を超える数値が Extended JSON として解釈されてしまうため。
type ResponseDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	RespondentID string             `bson:"respondentId"`
	Location     string             `bson:"location"`
	Category     string             `bson:"category"`
	Timeline     string             `bson:"timeline"`
	AnswersJSON  string             `bson:"answersJson"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

// toResponseDocument はドメインの回答を保存用ドキュメントへ変換する。
func toResponseDocument(id primitive.ObjectID, response domain.StoredResponse) (ResponseDocument, error) {
	if !json.Valid(response.Answers) {
		return ResponseDocument{}, errors.New("answers が JSON として不正です")
	}

	return ResponseDocument{
		ID:           id,
		RespondentID: response.RespondentID,
		Location:     response.Location,
		Category:     response.Category,
		Timeline:     response.Timeline,
		AnswersJSON:  string(response.Answers),
		CreatedAt:    response.CreatedAt.UTC(),
	}, nil
}

// mapResponseDocument はドキュメントをドメインの StoredResponse に復元する。
func mapResponseDocument(doc ResponseDocument) (domain.StoredResponse, error) {
	if !json.Valid([]byte(doc.AnswersJSON)) {
		return domain.StoredResponse{}, fmt.Errorf("response %s: 保存済みの answers が JSON として不正です", doc.ID.Hex())
	}

	return domain.StoredResponse{
		ID: doc.ID.Hex(),
		Response: domain.Response{
			RespondentID: doc.RespondentID,
			Location:     doc.Location,
			Category:     doc.Category,
			Timeline:     doc.Timeline,
			Answers:      json.RawMessage(doc.AnswersJSON),
		},
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}
