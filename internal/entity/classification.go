package entity

import "encoding/json"

// RawClassificationResult is the two-part document returned by the image
// analysis provider for a single image. Its shape is not trusted: every level
// may be missing and is checked by the tagger before use.
type RawClassificationResult struct {
	General *GeneralClassification `json:"general"`
	Faces   *FaceClassification    `json:"faces"`
}

type GeneralClassification struct {
	Images          []GeneralImage `json:"images"`
	ImagesProcessed int            `json:"images_processed,omitempty"`
	CustomClasses   int            `json:"custom_classes,omitempty"`
}

type GeneralImage struct {
	SourceURL   string       `json:"source_url,omitempty"`
	ResolvedURL string       `json:"resolved_url,omitempty"`
	Classifiers []Classifier `json:"classifiers"`
}

type Classifier struct {
	ClassifierID string       `json:"classifier_id,omitempty"`
	Name         string       `json:"name,omitempty"`
	Classes      []ClassScore `json:"classes"`
}

type ClassScore struct {
	Class         string  `json:"class"`
	Score         float64 `json:"score"`
	TypeHierarchy string  `json:"type_hierarchy,omitempty"`
}

type FaceClassification struct {
	Images          []FaceImage `json:"images"`
	ImagesProcessed int         `json:"images_processed,omitempty"`
}

type FaceImage struct {
	SourceURL   string `json:"source_url,omitempty"`
	ResolvedURL string `json:"resolved_url,omitempty"`
	Faces       []Face `json:"faces"`
}

// Face is one detected face. Gender and Age are nil when the provider did not
// report them; FaceLocation is kept as raw JSON and never interpreted.
type Face struct {
	Gender       *FaceGender     `json:"gender,omitempty"`
	Age          *FaceAge        `json:"age,omitempty"`
	FaceLocation json.RawMessage `json:"face_location,omitempty"`
}

type FaceGender struct {
	Gender      string  `json:"gender,omitempty"`
	GenderLabel string  `json:"gender_label"`
	Score       float64 `json:"score"`
}

type FaceAge struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Score float64 `json:"score"`
}
