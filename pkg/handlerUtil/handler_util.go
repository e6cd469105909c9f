package handlerUtil

import (
	"errors"

	"ImageTagger/internal/api/image"
	"ImageTagger/pkg/log"
	"ImageTagger/pkg/metrics"
	"ImageTagger/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	// Tagging failures share one opaque wire response; only logs and
	// metrics tell them apart.
	if errors.Is(err, image.ErrMissingImageURL) {
		fields["failure"] = metrics.StatusMissingInput
		h.logger.WithFields(fields).Warn("No image url provided")
		return c.Status(fiber.StatusInternalServerError).SendString(image.ErrMissingImageURL.Error())
	}

	if errors.Is(err, image.ErrUpstreamFailure) {
		fields["failure"] = metrics.StatusUpstreamFailure
		h.logger.WithFields(fields).Error("Image analysis provider failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{})
	}

	if errors.Is(err, image.ErrMalformedInput) {
		fields["failure"] = metrics.StatusMalformedInput
		h.logger.WithFields(fields).Error("Classification result could not be tagged")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{})
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		fields["code"] = respErr.Code
		h.logger.WithFields(fields).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(ErrorResponse{Error: respErr.Error()})
	}

	traceID := log.ErrorWithTraceID(fields, "Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "An unexpected error occurred",
		TraceID: traceID,
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: "Validation failed: " + err.Error(),
		Code:  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(utils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
