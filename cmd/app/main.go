package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ImageTagger/internal/config"
	"ImageTagger/pkg/gemini"
	"ImageTagger/pkg/log"
	"ImageTagger/pkg/redis"
	"ImageTagger/pkg/vision"
	"ImageTagger/pkg/watson"

	"github.com/joho/godotenv"
	"golang.org/x/net/context"
)

func main() {
	envErr := godotenv.Load()
	logger := log.NewLogger()
	if envErr != nil {
		logger.WithField("error", envErr.Error()).Warn("No .env file loaded, using process environment")
	}

	visionClient, err := newVisionClient(os.Getenv("VISION_PROVIDER"))
	if err != nil {
		logger.Errorf("Failed to create vision client: %v", err)
		os.Exit(1)
	}

	options := []config.ServerOption{
		config.WithFiber(config.NewFiber(logger)),
		config.WithLogger(logger),
		config.WithValidator(config.NewValidator()),
		config.WithMiddleware(),
		config.WithVisionClient(visionClient),
		config.WithUtils(),
		config.WithMetrics(),
	}

	if os.Getenv("REDIS_ADDRESS") != "" {
		options = append(options, config.WithRedisCache(redis.New(), cacheTTLFromEnv()))
	}
	if os.Getenv("DB_HOST") != "" {
		options = append(options, config.WithDatabase())
	}
	if os.Getenv("AWS_BUCKET_NAME") != "" {
		options = append(options, config.WithS3Archive())
	}

	server, err := config.NewServer(options...)
	if err != nil {
		logger.Errorf("Failed to create server: %v", err)
		os.Exit(1)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			logger.Errorf("Error starting server: %v", err)
			os.Exit(1)
		}
	case <-sigChan:
		logger.Info("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Shutdown finished with errors: %v", err)
	}
}

func newVisionClient(provider string) (vision.IVision, error) {
	switch provider {
	case "", vision.ProviderWatson:
		return watson.NewFromEnv()
	case vision.ProviderGemini:
		return gemini.NewGeminiClient()
	default:
		return nil, fmt.Errorf("unknown VISION_PROVIDER %q", provider)
	}
}

func cacheTTLFromEnv() time.Duration {
	raw := os.Getenv("TAG_CACHE_TTL")
	if raw == "" {
		return 0
	}

	ttl, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn(log.Fields{"value": raw, "error": err.Error()}, "Invalid TAG_CACHE_TTL, using default")
		return 0
	}
	return ttl
}
