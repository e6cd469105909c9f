package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"ImageTagger/database/postgres"
	imageHandler "ImageTagger/internal/api/image/handler"
	imageRepository "ImageTagger/internal/api/image/repository"
	imageService "ImageTagger/internal/api/image/service"
	"ImageTagger/internal/middleware"
	"ImageTagger/pkg/redis"
	"ImageTagger/pkg/s3"
	"ImageTagger/pkg/tagger"
	"ImageTagger/pkg/utils"
	"ImageTagger/pkg/vision"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ServerOption func(*Server) error

type Server struct {
	engine     *fiber.App
	db         *sqlx.DB
	log        *logrus.Logger
	middleware middleware.Middleware
	validator  *validator.Validate
	utils      utils.IUtils
	vision     vision.IVision
	extractor  *tagger.Extractor
	cache      redis.IRedis
	cacheTTL   time.Duration
	archive    s3.ItfS3
	metrics    bool
	handlers   []handler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.vision == nil {
		return nil, fmt.Errorf("vision client is required")
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log)
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithVisionClient(client vision.IVision) ServerOption {
	return func(s *Server) error {
		if client == nil {
			return fmt.Errorf("vision client is nil")
		}
		s.vision = client
		return nil
	}
}

// WithTagLimit overrides the number of tags returned per image.
func WithTagLimit(limit int) ServerOption {
	return func(s *Server) error {
		if limit <= 0 {
			return fmt.Errorf("tag limit must be positive, got %d", limit)
		}
		s.extractor = tagger.New(tagger.WithLimit(limit))
		return nil
	}
}

func WithRedisCache(cache redis.IRedis, ttl time.Duration) ServerOption {
	return func(s *Server) error {
		s.cache = cache
		s.cacheTTL = ttl
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithS3Archive() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.archive = client
		return nil
	}
}

func WithMetrics() ServerOption {
	return func(s *Server) error {
		s.metrics = true
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	var imageRepo imageRepository.Repository
	if s.db != nil {
		imageRepo = imageRepository.New(s.db, s.log)
	}

	imageServices := imageService.NewImageService(s.log, s.vision, s.extractor, imageRepo, s.cache, s.archive, s.utils, s.cacheTTL)
	imageHandlers := imageHandler.New(s.log, s.validator, s.middleware, imageServices)

	s.handlers = append(s.handlers, imageHandlers)
}

func (s *Server) setupRoutes() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	s.setupHealthCheck()
	if s.metrics {
		s.engine.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	router := s.engine.Group("/api")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

func (s *Server) Run() error {
	s.setupRoutes()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	s.log.WithFields(logrus.Fields{
		"port":     port,
		"provider": s.vision.Name(),
		"cache":    s.cache != nil,
		"history":  s.db != nil,
		"archive":  s.archive != nil,
	}).Info("Starting image tagger")

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests and releases the optional backends.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if err := s.engine.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if closer, ok := s.vision.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close vision client: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
