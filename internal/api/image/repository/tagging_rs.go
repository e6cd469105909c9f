package imageRepository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"ImageTagger/internal/api/image"
	"ImageTagger/internal/entity"
	contextPkg "ImageTagger/pkg/context"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ImageTaggingDB struct {
	ID           sql.NullString  `db:"id"`
	ImageURL     sql.NullString  `db:"image_url"`
	Provider     sql.NullString  `db:"provider"`
	Tags         []byte          `db:"tags"`
	AgeMin       sql.NullFloat64 `db:"age_min"`
	AgeMax       sql.NullFloat64 `db:"age_max"`
	FaceLocation []byte          `db:"face_location"`
	RawKey       sql.NullString  `db:"raw_key"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (r *taggingRepository) CreateTagging(c context.Context, tagging entity.ImageTagging) error {
	requestID := contextPkg.GetRequestID(c)

	tags, err := jsoniter.MarshalToString(tagging.Tags)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to encode tags for CreateTagging")
		return err
	}

	var ageMin, ageMax sql.NullFloat64
	if tagging.Age != nil {
		ageMin = sql.NullFloat64{Float64: tagging.Age.Min, Valid: true}
		ageMax = sql.NullFloat64{Float64: tagging.Age.Max, Valid: true}
	}

	var faceLocation sql.NullString
	if tagging.FaceLocation != nil {
		faceLocation = sql.NullString{String: string(*tagging.FaceLocation), Valid: true}
	}

	argsKV := map[string]interface{}{
		"id":            tagging.ID,
		"image_url":     tagging.ImageURL,
		"provider":      tagging.Provider,
		"tags":          tags,
		"age_min":       ageMin,
		"age_max":       ageMax,
		"face_location": faceLocation,
		"raw_key":       sql.NullString{String: tagging.RawKey, Valid: tagging.RawKey != ""},
		"created_at":    tagging.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateTagging, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateTagging")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating tagging")
		return err
	}

	return nil
}

func (r *taggingRepository) GetTaggingByID(c context.Context, id string) (entity.ImageTagging, error) {
	requestID := contextPkg.GetRequestID(c)
	var tagging ImageTaggingDB

	query, args, err := sqlx.Named(queryGetTaggingByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTaggingByID named query preparation err")
		return entity.ImageTagging{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&tagging); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         id,
			}).Warn("GetTaggingByID no rows found")
			return entity.ImageTagging{}, image.ErrTaggingNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTaggingByID execution err")
		return entity.ImageTagging{}, err
	}

	return r.makeImageTagging(requestID, tagging), nil
}

func (r *taggingRepository) ListTaggings(c context.Context, limit, offset int) ([]entity.ImageTagging, error) {
	requestID := contextPkg.GetRequestID(c)
	var taggings []ImageTaggingDB

	argsKV := map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	}

	query, args, err := sqlx.Named(queryListTaggings, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListTaggings named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &taggings, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListTaggings execution err")
		return nil, err
	}

	result := make([]entity.ImageTagging, 0, len(taggings))
	for _, tagging := range taggings {
		result = append(result, r.makeImageTagging(requestID, tagging))
	}

	return result, nil
}

func (r *taggingRepository) makeImageTagging(requestID string, row ImageTaggingDB) entity.ImageTagging {
	tagging := entity.ImageTagging{
		ID:        row.ID.String,
		ImageURL:  row.ImageURL.String,
		Provider:  row.Provider.String,
		Tags:      []entity.Tag{},
		RawKey:    row.RawKey.String,
		CreatedAt: row.CreatedAt,
	}

	if len(row.Tags) > 0 {
		if err := jsoniter.Unmarshal(row.Tags, &tagging.Tags); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         tagging.ID,
				"error":      err.Error(),
			}).Warn("Stored tags are not valid JSON")
		}
	}

	if row.AgeMin.Valid && row.AgeMax.Valid {
		tagging.Age = &entity.AgeRange{Min: row.AgeMin.Float64, Max: row.AgeMax.Float64}
	}

	if row.FaceLocation != nil {
		loc := json.RawMessage(append([]byte(nil), row.FaceLocation...))
		tagging.FaceLocation = &loc
	}

	return tagging
}
