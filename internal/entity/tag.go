package entity

import (
	"encoding/json"
	"time"
)

type Tag struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type AgeRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type TagData struct {
	Age          *AgeRange        `json:"age,omitempty"`
	FaceLocation *json.RawMessage `json:"faceLocation,omitempty"`
}

type ExtractionResult struct {
	Tags []Tag   `json:"tags"`
	Data TagData `json:"data"`
}

// ImageTagging is one stored tagging of an image.
type ImageTagging struct {
	ID           string
	ImageURL     string
	Provider     string
	Tags         []Tag
	Age          *AgeRange
	FaceLocation *json.RawMessage
	RawKey       string
	RawURL       string
	CreatedAt    time.Time
}
