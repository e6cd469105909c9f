package image

import "encoding/json"

type ImageRequest struct {
	ImageURL string `json:"imageUrl" form:"imageUrl" validate:"required"`
}

type HistoryQuery struct {
	Limit  int `query:"limit" validate:"gte=0,lte=100"`
	Offset int `query:"offset" validate:"gte=0"`
}

type TagResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type AgeResponse struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type TaggingResponse struct {
	ID           string           `json:"id"`
	ImageURL     string           `json:"image_url"`
	Provider     string           `json:"provider"`
	Tags         []TagResponse    `json:"tags"`
	Age          *AgeResponse     `json:"age,omitempty"`
	FaceLocation *json.RawMessage `json:"face_location,omitempty"`
	RawURL       string           `json:"raw_url,omitempty"`
	CreatedAt    string           `json:"created_at"`
}

type TaggingListResponse struct {
	Taggings []TaggingResponse `json:"taggings"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}
