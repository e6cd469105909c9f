// Package vision declares the image analysis provider used by the tagging
// service.
package vision

import (
	"ImageTagger/internal/entity"

	"golang.org/x/net/context"
)

const (
	ProviderWatson = "watson"
	ProviderGemini = "gemini"
)

// IVision returns the two-part classification of the image behind imageURL.
type IVision interface {
	AnalyzeImage(ctx context.Context, imageURL string) (*entity.RawClassificationResult, error)
	Name() string
}
