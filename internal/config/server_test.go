package config

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ImageTagger/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVision struct {
	raw *entity.RawClassificationResult
}

func (s stubVision) AnalyzeImage(context.Context, string) (*entity.RawClassificationResult, error) {
	return s.raw, nil
}

func (s stubVision) Name() string { return "stub" }

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func animals() *entity.RawClassificationResult {
	return &entity.RawClassificationResult{
		General: &entity.GeneralClassification{Images: []entity.GeneralImage{{
			Classifiers: []entity.Classifier{{Classes: []entity.ClassScore{
				{Class: "fox", Score: 0.3},
				{Class: "cat", Score: 0.9},
				{Class: "dog", Score: 0.5},
			}}},
		}}},
		Faces: &entity.FaceClassification{Images: []entity.FaceImage{{Faces: []entity.Face{}}}},
	}
}

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	logger := testLogger()
	base := []ServerOption{
		WithFiber(NewFiber(logger)),
		WithLogger(logger),
		WithValidator(NewValidator()),
		WithMiddleware(),
		WithVisionClient(stubVision{raw: animals()}),
		WithUtils(),
	}

	server, err := NewServer(append(base, opts...)...)
	require.NoError(t, err)

	server.RegisterHandler()
	server.setupRoutes()
	return server
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(out)
}

func TestNewServer_RequiresCoreOptions(t *testing.T) {
	logger := testLogger()

	_, err := NewServer(WithLogger(logger), WithVisionClient(stubVision{}))
	assert.EqualError(t, err, "fiber app is required")

	_, err = NewServer(WithFiber(fiber.New()), WithVisionClient(stubVision{}))
	assert.EqualError(t, err, "logger is required")

	_, err = NewServer(WithFiber(fiber.New()), WithLogger(logger))
	assert.EqualError(t, err, "vision client is required")

	_, err = NewServer(WithFiber(fiber.New()), WithLogger(logger), WithVisionClient(nil))
	assert.ErrorContains(t, err, "vision client is nil")

	_, err = NewServer(WithMiddleware())
	assert.ErrorContains(t, err, "logger must be initialized before middleware")

	_, err = NewServer(WithTagLimit(0))
	assert.ErrorContains(t, err, "tag limit must be positive")
}

func TestServer_TagsImageEndToEnd(t *testing.T) {
	server := newTestServer(t)

	status, body := call(t, server.engine, http.MethodPost, "/api/image", `{"imageUrl":"https://example.com/pets.jpg"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{
		"tags": [
			{"label": "cat", "score": 0.9},
			{"label": "dog", "score": 0.5},
			{"label": "fox", "score": 0.3}
		],
		"data": {}
	}`, body)
}

func TestServer_TagLimit(t *testing.T) {
	server := newTestServer(t, WithTagLimit(2))

	status, body := call(t, server.engine, http.MethodPost, "/api/image", `{"imageUrl":"https://example.com/pets.jpg"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"tags": [{"label": "cat", "score": 0.9}, {"label": "dog", "score": 0.5}], "data": {}}`, body)
}

func TestServer_HistoryWithoutDatabase(t *testing.T) {
	server := newTestServer(t)

	status, _ := call(t, server.engine, http.MethodGet, "/api/image/history", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	server := newTestServer(t, WithMetrics())

	status, body := call(t, server.engine, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message": "Server is Healthy!"}`, body)

	call(t, server.engine, http.MethodPost, "/api/image", `{"imageUrl":"https://example.com/pets.jpg"}`)

	status, body = call(t, server.engine, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "imagetagger_extractions_total")
}

func TestServer_MetricsDisabledByDefault(t *testing.T) {
	server := newTestServer(t)

	status, _ := call(t, server.engine, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, status)
}
