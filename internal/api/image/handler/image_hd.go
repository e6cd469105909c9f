package imageHandler

import (
	"errors"
	"time"

	"ImageTagger/internal/api/image"
	"ImageTagger/internal/entity"
	contextPkg "ImageTagger/pkg/context"
	"ImageTagger/pkg/handlerUtil"
	"ImageTagger/pkg/log"
	"ImageTagger/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

// tagTimeout bounds a tagging request, covering the provider round trip.
const tagTimeout = 30 * time.Second

func (h *ImageHandler) TagImage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), tagTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing tag image request")

	var req image.ImageRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}
	}

	if err := h.validator.Struct(req); err != nil {
		metrics.RecordExtraction(metrics.StatusMissingInput)
		return errHandler.Handle(ctx, requestID, image.ErrMissingImageURL, ctx.Path(), "validate_request")
	}

	result, err := h.imageService.TagImage(c, req.ImageURL)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "tag_image")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *ImageHandler) GetTagging(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	id := ctx.Params("id")
	if id == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("tagging ID is required"), ctx.Path())
	}

	tagging, err := h.imageService.GetTagging(c, id)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_tagging")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, makeTaggingResponse(tagging))
	}
}

func (h *ImageHandler) ListTaggings(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var query image.HistoryQuery
	if err := ctx.QueryParser(&query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	taggings, err := h.imageService.ListTaggings(c, query.Limit, query.Offset)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_taggings")
	}

	response := image.TaggingListResponse{
		Taggings: make([]image.TaggingResponse, 0, len(taggings)),
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	for _, tagging := range taggings {
		response.Taggings = append(response.Taggings, makeTaggingResponse(tagging))
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, response)
	}
}

func makeTaggingResponse(tagging entity.ImageTagging) image.TaggingResponse {
	response := image.TaggingResponse{
		ID:           tagging.ID,
		ImageURL:     tagging.ImageURL,
		Provider:     tagging.Provider,
		Tags:         make([]image.TagResponse, 0, len(tagging.Tags)),
		FaceLocation: tagging.FaceLocation,
		RawURL:       tagging.RawURL,
		CreatedAt:    tagging.CreatedAt.Format(time.RFC3339),
	}

	for _, tag := range tagging.Tags {
		response.Tags = append(response.Tags, image.TagResponse{Label: tag.Label, Score: tag.Score})
	}

	if tagging.Age != nil {
		response.Age = &image.AgeResponse{Min: tagging.Age.Min, Max: tagging.Age.Max}
	}

	return response
}
