package image

import "ImageTagger/pkg/response"

var (
	ErrMissingImageURL    = response.NewError(500, "No imageUrl was provided")
	ErrMalformedInput     = response.NewError(500, "malformed classification result")
	ErrUpstreamFailure    = response.NewError(500, "image analysis provider failed")
	ErrTaggingNotFound    = response.NewError(404, "tagging not found")
	ErrHistoryUnavailable = response.NewError(503, "tagging history is not configured")
	ErrInvalidTaggingID   = response.NewError(400, "invalid tagging id")
)
