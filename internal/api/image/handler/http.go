package imageHandler

import (
	imageService "ImageTagger/internal/api/image/service"
	"ImageTagger/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type ImageHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	imageService imageService.IImageService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	imageService imageService.IImageService,
) *ImageHandler {
	return &ImageHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		imageService: imageService,
	}
}

func (h *ImageHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	image := srv.Group("/image")

	image.Post("", h.middleware.NewRateLimiter, h.TagImage)
	image.Get("/history", h.ListTaggings)
	image.Get("/history/:id", h.GetTagging)

	image.Use("/ws", wsMiddleware)
	image.Get("/ws", websocket.New(h.handleWebSocket))
}
