package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sngm3741/riskboard/api/internal/survey/application"
	"github.com/sngm3741/riskboard/api/internal/survey/domain"
)

// ResponseRepository はアンケート回答を MongoDB で扱う実装リポジトリ。
type ResponseRepository struct {
	client    *mongo.Client
	responses *mongo.Collection
}

// NewResponseRepository は回答コレクションを束縛したリポジトリを構築する。
func NewResponseRepository(client *mongo.Client, database, collection string) *ResponseRepository {
	return &ResponseRepository{
		client:    client,
		responses: client.Database(database).Collection(collection),
	}
}

// EnsureIndexes は一覧検索で使う絞り込み条件と作成日時にインデックスを張る。
func (r *ResponseRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.responses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "respondentId", Value: 1}}},
	})
	return err
}

// Save は回答を Mongo に追加し、採番した ObjectID をドメインモデルへ反映する。
func (r *ResponseRepository) Save(ctx context.Context, response *domain.StoredResponse) error {
	doc, err := toResponseDocument(primitive.NewObjectID(), *response)
	if err != nil {
		return err
	}

	if _, err := r.responses.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}

	response.ID = doc.ID.Hex()
	response.CreatedAt = doc.CreatedAt
	return nil
}

// Find は絞り込み条件を Mongo クエリへ落とし込み、新しい順に返す。
func (r *ResponseRepository) Find(ctx context.Context, filter application.ResponseFilter, paging application.Paging) ([]domain.StoredResponse, int, error) {
	mongoFilter := buildFilter(filter)

	total, err := r.responses.CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("count responses: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if offset := paging.Offset(); offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if paging.Limit > 0 {
		opts.SetLimit(int64(paging.Limit))
	}

	cursor, err := r.responses.Find(ctx, mongoFilter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find responses: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]domain.StoredResponse, 0)
	for cursor.Next(ctx) {
		var doc ResponseDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		item, err := mapResponseDocument(doc)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}
	return result, int(total), nil
}

// FindByID は ID から単一の回答を取得する。形式不正な ID も未存在として扱う。
func (r *ResponseRepository) FindByID(ctx context.Context, id string) (*domain.StoredResponse, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, application.ErrNotFound
	}

	var doc ResponseDocument
	if err := r.responses.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, application.ErrNotFound
		}
		return nil, fmt.Errorf("find response %s: %w", id, err)
	}

	item, err := mapResponseDocument(doc)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Ping は MongoDB への疎通を確認する。
func (r *ResponseRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func buildFilter(filter application.ResponseFilter) bson.M {
	mongoFilter := bson.M{}
	if filter.RespondentID != "" {
		mongoFilter["respondentId"] = filter.RespondentID
	}
	if filter.Location != "" {
		mongoFilter["location"] = filter.Location
	}
	if filter.Category != "" {
		mongoFilter["category"] = filter.Category
	}
	return mongoFilter
}
