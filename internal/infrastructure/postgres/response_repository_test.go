package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/riskboard/api/internal/survey/application"
	"github.com/sngm3741/riskboard/api/internal/survey/domain"
)

var responseColumns = []string{"id", "respondent_id", "location", "category", "timeline", "answers", "created_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestEnsureSchema(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS responses").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS responses_created_at_idx").WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))

	require.NoError(t, EnsureSchema(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	response := &domain.StoredResponse{
		Response: domain.Response{
			RespondentID: "r-1",
			Location:     "Sendai",
			Category:     "tsunami",
			Timeline:     "2027",
			Answers:      json.RawMessage(`{"q":"a"}`),
		},
		CreatedAt: now,
	}

	mock.ExpectExec("INSERT INTO responses").
		WithArgs(pgxmock.AnyArg(), "r-1", "Sendai", "tsunami", "2027", `{"q":"a"}`, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewResponseRepository(mock)
	require.NoError(t, repo.Save(context.Background(), response))

	_, err := uuid.Parse(response.ID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("INSERT INTO responses").WillReturnError(errors.New("disk full"))

	repo := NewResponseRepository(mock)
	response := &domain.StoredResponse{Response: domain.Response{Answers: json.RawMessage(`{}`)}}
	err := repo.Save(context.Background(), response)

	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, response.ID)
}

func TestFindWithFilterAndPaging(t *testing.T) {
	mock := newMock(t)
	id := uuid.NewString()
	createdAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM responses WHERE location = \$1 AND category = \$2`).
		WithArgs("Nagoya", "flood").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(11)))
	mock.ExpectQuery(`FROM responses WHERE location = \$1 AND category = \$2 ORDER BY created_at DESC, id DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("Nagoya", "flood", 5, 5).
		WillReturnRows(pgxmock.NewRows(responseColumns).
			AddRow(id, "r-2", "Nagoya", "flood", "2026", `{"z":1,"a":2}`, createdAt))

	repo := NewResponseRepository(mock)
	items, total, err := repo.Find(context.Background(),
		application.ResponseFilter{Location: "Nagoya", Category: "flood"},
		application.Paging{Page: 2, Limit: 5})

	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, "r-2", items[0].RespondentID)
	assert.Equal(t, `{"z":1,"a":2}`, string(items[0].Answers))
	assert.True(t, createdAt.Equal(items[0].CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPageBeyondRangeKeepsOffsetPositive(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM responses$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))
	mock.ExpectQuery(`LIMIT \$1 OFFSET \$2$`).
		WithArgs(5, math.MaxInt).
		WillReturnRows(pgxmock.NewRows(responseColumns))

	repo := NewResponseRepository(mock)
	items, total, err := repo.Find(context.Background(), application.ResponseFilter{}, application.Paging{Page: math.MaxInt, Limit: 5})

	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindWithoutLimit(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM responses$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`FROM responses ORDER BY created_at DESC, id DESC$`).
		WillReturnRows(pgxmock.NewRows(responseColumns))

	repo := NewResponseRepository(mock)
	items, total, err := repo.Find(context.Background(), application.ResponseFilter{}, application.Paging{})

	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID(t *testing.T) {
	mock := newMock(t)
	id := uuid.NewString()
	createdAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM responses WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(responseColumns).
			AddRow(id, "r-3", "Kyoto", "heat", "summer", `["x"]`, createdAt))

	repo := NewResponseRepository(mock)
	item, err := repo.FindByID(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "Kyoto", item.Location)
	assert.Equal(t, `["x"]`, string(item.Answers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	mock := newMock(t)
	id := uuid.NewString()
	mock.ExpectQuery(`FROM responses WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(responseColumns))

	repo := NewResponseRepository(mock)

	_, err := repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, application.ErrNotFound)

	_, err = repo.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, application.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectPing().WillReturnError(errors.New("down"))

	repo := NewResponseRepository(mock)
	assert.EqualError(t, repo.Ping(context.Background()), "down")
}

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere(application.ResponseFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = buildWhere(application.ResponseFilter{RespondentID: "r-1", Category: "x"})
	assert.Equal(t, " WHERE respondent_id = $1 AND category = $2", where)
	assert.Equal(t, []any{"r-1", "x"}, args)
}
