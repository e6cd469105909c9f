// Package tagger turns a raw two-part classification result into a ranked,
// bounded list of tags plus the face metadata that goes with it.
//
// Extraction is pure: it performs no I/O, keeps no state between calls and
// is safe for concurrent use.
package tagger

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"ImageTagger/internal/entity"
)

const (
	// DefaultLimit is the number of tags kept after ranking.
	DefaultLimit = 7

	MultipleFacesLabel = "multiple faces"
	multipleFacesScore = 1
)

var ErrMalformedInput = errors.New("malformed classification result")

// PathError reports the navigation step that could not be resolved.
type PathError struct {
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrMalformedInput.Error(), e.Path)
}

func (e *PathError) Unwrap() error {
	return ErrMalformedInput
}

type Extractor struct {
	limit int
}

type Option func(*Extractor)

// WithLimit overrides the number of tags kept. Values below one are ignored.
func WithLimit(limit int) Option {
	return func(e *Extractor) {
		if limit > 0 {
			e.limit = limit
		}
	}
}

func New(opts ...Option) *Extractor {
	e := &Extractor{limit: DefaultLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = New()

// Extract runs the default extractor.
func Extract(raw *entity.RawClassificationResult) (*entity.ExtractionResult, error) {
	return defaultExtractor.Extract(raw)
}

func (e *Extractor) Extract(raw *entity.RawClassificationResult) (*entity.ExtractionResult, error) {
	classes, err := generalClasses(raw)
	if err != nil {
		return nil, err
	}

	faces, err := detectedFaces(raw)
	if err != nil {
		return nil, err
	}

	result := &entity.ExtractionResult{
		Tags: make([]entity.Tag, 0, len(classes)+2),
	}

	for _, c := range classes {
		result.Tags = append(result.Tags, entity.Tag{Label: c.Class, Score: c.Score})
	}

	switch {
	case len(faces) > 1:
		result.Tags = append(result.Tags, entity.Tag{Label: MultipleFacesLabel, Score: multipleFacesScore})
	case len(faces) == 1:
		face := faces[0]
		if face.Gender != nil {
			result.Tags = append(result.Tags, entity.Tag{Label: face.Gender.GenderLabel, Score: face.Gender.Score})
		}
		if face.Age != nil {
			result.Tags = append(result.Tags, entity.Tag{Label: AgeLabel(face.Age.Min, face.Age.Max), Score: face.Age.Score})
			result.Data.Age = &entity.AgeRange{Min: face.Age.Min, Max: face.Age.Max}
		}
		result.Data.FaceLocation = faceLocation(face.FaceLocation)
	}

	Rank(result.Tags)
	result.Tags = e.truncate(result.Tags)

	return result, nil
}

// Rank sorts tags by score, highest first. Equal scores are ordered by label.
func Rank(tags []entity.Tag) {
	slices.SortStableFunc(tags, func(a, b entity.Tag) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})
}

// AgeLabel formats the synthetic tag for an age range, e.g. "age: 20-30".
func AgeLabel(lo, hi float64) string {
	return "age: " + formatBound(lo) + "-" + formatBound(hi)
}

func (e *Extractor) truncate(tags []entity.Tag) []entity.Tag {
	if len(tags) > e.limit {
		return tags[:e.limit]
	}
	return tags
}

func generalClasses(raw *entity.RawClassificationResult) ([]entity.ClassScore, error) {
	switch {
	case raw == nil:
		return nil, &PathError{Path: "result"}
	case raw.General == nil:
		return nil, &PathError{Path: "general"}
	case len(raw.General.Images) == 0:
		return nil, &PathError{Path: "general.images[0]"}
	case len(raw.General.Images[0].Classifiers) == 0:
		return nil, &PathError{Path: "general.images[0].classifiers[0]"}
	case raw.General.Images[0].Classifiers[0].Classes == nil:
		return nil, &PathError{Path: "general.images[0].classifiers[0].classes"}
	}
	return raw.General.Images[0].Classifiers[0].Classes, nil
}

func detectedFaces(raw *entity.RawClassificationResult) ([]entity.Face, error) {
	switch {
	case raw.Faces == nil:
		return nil, &PathError{Path: "faces"}
	case len(raw.Faces.Images) == 0:
		return nil, &PathError{Path: "faces.images[0]"}
	case raw.Faces.Images[0].Faces == nil:
		return nil, &PathError{Path: "faces.images[0].faces"}
	}
	return raw.Faces.Images[0].Faces, nil
}

// faceLocation copies the provider geometry. An absent value becomes an
// explicit JSON null so the field is still present in the output.
func faceLocation(loc json.RawMessage) *json.RawMessage {
	out := json.RawMessage("null")
	if len(loc) > 0 {
		out = slices.Clone(loc)
	}
	return &out
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
