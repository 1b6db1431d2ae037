package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/sngm3741/riskboard/api/internal/survey/application"
	"github.com/sngm3741/riskboard/api/internal/survey/domain"
)

const selectColumns = `SELECT id::text AS id, respondent_id, location, category, timeline, answers::text AS answers, created_at FROM responses`

// ResponseRepository stores responses in PostgreSQL using parameterized statements only.
type ResponseRepository struct {
	db DB
}

func NewResponseRepository(db DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

type responseRow struct {
	ID           string    `db:"id"`
	RespondentID string    `db:"respondent_id"`
	Location     string    `db:"location"`
	Category     string    `db:"category"`
	Timeline     string    `db:"timeline"`
	Answers      string    `db:"answers"`
	CreatedAt    time.Time `db:"created_at"`
}

func (row responseRow) toDomain() domain.StoredResponse {
	return domain.StoredResponse{
		ID: row.ID,
		Response: domain.Response{
			RespondentID: row.RespondentID,
			Location:     row.Location,
			Category:     row.Category,
			Timeline:     row.Timeline,
			Answers:      json.RawMessage(row.Answers),
		},
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (r *ResponseRepository) Save(ctx context.Context, response *domain.StoredResponse) error {
	id := uuid.NewString()
	_, err := r.db.Exec(ctx,
		`INSERT INTO responses (id, respondent_id, location, category, timeline, answers, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, response.RespondentID, response.Location, response.Category, response.Timeline, string(response.Answers), response.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	response.ID = id
	return nil
}

func (r *ResponseRepository) Find(ctx context.Context, filter application.ResponseFilter, paging application.Paging) ([]domain.StoredResponse, int, error) {
	where, args := buildWhere(filter)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM responses`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count responses: %w", err)
	}

	query := selectColumns + where + ` ORDER BY created_at DESC, id DESC`
	if paging.Limit > 0 {
		args = append(args, paging.Limit, paging.Offset())
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	var rows []responseRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("select responses: %w", err)
	}

	result := make([]domain.StoredResponse, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, int(total), nil
}

// FindByID は UUID として解釈できない ID を未存在として扱う。
func (r *ResponseRepository) FindByID(ctx context.Context, id string) (*domain.StoredResponse, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, application.ErrNotFound
	}

	var row responseRow
	if err := pgxscan.Get(ctx, r.db, &row, selectColumns+` WHERE id = $1`, parsed.String()); err != nil {
		if pgxscan.NotFound(err) {
			return nil, application.ErrNotFound
		}
		return nil, fmt.Errorf("select response %s: %w", id, err)
	}

	item := row.toDomain()
	return &item, nil
}

func (r *ResponseRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// buildWhere は固定の列名に対してのみ条件を組み立て、値はすべてプレースホルダで渡す。
func buildWhere(filter application.ResponseFilter) (string, []any) {
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 3)

	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("respondent_id", filter.RespondentID)
	add("location", filter.Location)
	add("category", filter.Category)

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
