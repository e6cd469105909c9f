package main

import (
	"testing"
	"time"

	"ImageTagger/pkg/vision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVisionClient(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("WATSON_URL", "https://watson.example.com")
	t.Setenv("WATSON_API_KEY", "key")
	t.Setenv("WATSON_TIMEOUT", "")
	t.Setenv("WATSON_VERSION", "")

	for _, provider := range []string{"", vision.ProviderWatson} {
		client, err := newVisionClient(provider)
		require.NoError(t, err)
		assert.Equal(t, vision.ProviderWatson, client.Name())
	}

	_, err := newVisionClient("rekognition")
	assert.EqualError(t, err, `unknown VISION_PROVIDER "rekognition"`)

	t.Setenv("GEMINI_API_KEY", "")
	_, err = newVisionClient(vision.ProviderGemini)
	assert.Error(t, err)
}

func TestCacheTTLFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	t.Setenv("TAG_CACHE_TTL", "")
	assert.Equal(t, time.Duration(0), cacheTTLFromEnv())

	t.Setenv("TAG_CACHE_TTL", "90m")
	assert.Equal(t, 90*time.Minute, cacheTTLFromEnv())

	t.Setenv("TAG_CACHE_TTL", "soon")
	assert.Equal(t, time.Duration(0), cacheTTLFromEnv())
}
