package imageRepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"ImageTagger/internal/api/image"
	"ImageTagger/internal/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "image_url", "provider", "tags", "age_min", "age_max", "face_location", "raw_key", "created_at"}

func newTaggingRepo(t *testing.T) (TaggingRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := New(sqlx.NewDb(db, "postgres"), logger).NewClient(false)
	require.NoError(t, err)

	return client.Tagging, mock
}

func TestCreateTagging(t *testing.T) {
	repo, mock := newTaggingRepo(t)
	loc := json.RawMessage(`{"left":1}`)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO image_taggings")).
		WithArgs(
			"01HX",
			"https://example.com/a.jpg",
			"watson",
			`[{"label":"person","score":0.8},{"label":"age: 20-30","score":0.6}]`,
			sql.NullFloat64{Float64: 20, Valid: true},
			sql.NullFloat64{Float64: 30, Valid: true},
			sql.NullString{String: `{"left":1}`, Valid: true},
			sql.NullString{String: "raw/2024/05/01/req.json", Valid: true},
			created,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateTagging(context.Background(), entity.ImageTagging{
		ID:           "01HX",
		ImageURL:     "https://example.com/a.jpg",
		Provider:     "watson",
		Tags:         []entity.Tag{{Label: "person", Score: 0.8}, {Label: "age: 20-30", Score: 0.6}},
		Age:          &entity.AgeRange{Min: 20, Max: 30},
		FaceLocation: &loc,
		RawKey:       "raw/2024/05/01/req.json",
		CreatedAt:    created,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTagging_NullableColumns(t *testing.T) {
	repo, mock := newTaggingRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO image_taggings")).
		WithArgs("01HY", "https://example.com/b.jpg", "gemini", `[]`,
			sql.NullFloat64{}, sql.NullFloat64{}, sql.NullString{}, sql.NullString{}, sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := repo.CreateTagging(context.Background(), entity.ImageTagging{
		ID:        "01HY",
		ImageURL:  "https://example.com/b.jpg",
		Provider:  "gemini",
		Tags:      []entity.Tag{},
		CreatedAt: time.Now(),
	})

	assert.EqualError(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTaggingByID(t *testing.T) {
	repo, mock := newTaggingRepo(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM image_taggings")).
		WithArgs("01HX").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"01HX", "https://example.com/a.jpg", "watson",
			[]byte(`[{"label":"female","score":0.9}]`),
			25.0, 32.0, []byte(`null`), "raw/2024/05/01/req.json", created,
		))

	tagging, err := repo.GetTaggingByID(context.Background(), "01HX")
	require.NoError(t, err)

	assert.Equal(t, "01HX", tagging.ID)
	assert.Equal(t, []entity.Tag{{Label: "female", Score: 0.9}}, tagging.Tags)
	require.NotNil(t, tagging.Age)
	assert.Equal(t, entity.AgeRange{Min: 25, Max: 32}, *tagging.Age)
	require.NotNil(t, tagging.FaceLocation)
	assert.Equal(t, "null", string(*tagging.FaceLocation))
	assert.Equal(t, "raw/2024/05/01/req.json", tagging.RawKey)
	assert.Equal(t, created, tagging.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTaggingByID_NotFound(t *testing.T) {
	repo, mock := newTaggingRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM image_taggings")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.GetTaggingByID(context.Background(), "missing")
	assert.ErrorIs(t, err, image.ErrTaggingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTaggings(t *testing.T) {
	repo, mock := newTaggingRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs(20, 40).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("b", "https://example.com/b.jpg", "watson", []byte(`[{"label":"multiple faces","score":1}]`), nil, nil, nil, nil, now).
			AddRow("a", "https://example.com/a.jpg", "watson", []byte(`not json`), nil, nil, nil, nil, now.Add(-time.Minute)))

	taggings, err := repo.ListTaggings(context.Background(), 20, 40)
	require.NoError(t, err)
	require.Len(t, taggings, 2)

	assert.Equal(t, "b", taggings[0].ID)
	assert.Equal(t, "multiple faces", taggings[0].Tags[0].Label)
	assert.Nil(t, taggings[0].Age)
	assert.Nil(t, taggings[0].FaceLocation)
	assert.Empty(t, taggings[0].RawKey)
	assert.Empty(t, taggings[1].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}
