package watson

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const classifyBody = `{
	"images": [{
		"source_url": "https://example.com/cat.jpg",
		"resolved_url": "https://example.com/cat.jpg",
		"classifiers": [{"classifier_id": "default", "name": "default", "classes": [
			{"class": "cat", "score": 0.9, "type_hierarchy": "/animal/cat"},
			{"class": "pet", "score": 0.7}
		]}]
	}],
	"images_processed": 1,
	"custom_classes": 0
}`

const facesBody = `{
	"images": [{
		"faces": [{
			"age": {"min": 20, "max": 30, "score": 0.6},
			"face_location": {"height": 100, "left": 10, "top": 20, "width": 80},
			"gender": {"gender": "FEMALE", "gender_label": "female", "score": 0.9}
		}]
	}],
	"images_processed": 1
}`

func newProvider(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL+"/", "secret", WithHTTPClient(srv.Client()), WithVersion("2018-03-19"))
	require.NoError(t, err)
	return client
}

func TestClient_AnalyzeImage(t *testing.T) {
	var calls atomic.Int32
	client := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "apikey", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "https://example.com/cat.jpg", r.URL.Query().Get("url"))
		assert.Equal(t, "2018-03-19", r.URL.Query().Get("version"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case classifyPath:
			_, _ = w.Write([]byte(classifyBody))
		case detectFacesPath:
			_, _ = w.Write([]byte(facesBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	raw, err := client.AnalyzeImage(context.Background(), "https://example.com/cat.jpg")
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())

	require.NotNil(t, raw.General)
	classes := raw.General.Images[0].Classifiers[0].Classes
	require.Len(t, classes, 2)
	assert.Equal(t, "cat", classes[0].Class)
	assert.Equal(t, 0.9, classes[0].Score)

	require.NotNil(t, raw.Faces)
	faces := raw.Faces.Images[0].Faces
	require.Len(t, faces, 1)
	assert.Equal(t, "female", faces[0].Gender.GenderLabel)
	assert.Equal(t, 20.0, faces[0].Age.Min)
	assert.JSONEq(t, `{"height": 100, "left": 10, "top": 20, "width": 80}`, string(faces[0].FaceLocation))
	assert.Equal(t, "watson", client.Name())
}

func TestClient_AnalyzeImage_StatusError(t *testing.T) {
	client := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == detectFacesPath {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "invalid api key"}`))
			return
		}
		_, _ = w.Write([]byte(classifyBody))
	})

	raw, err := client.AnalyzeImage(context.Background(), "https://example.com/cat.jpg")
	require.Error(t, err)
	assert.Nil(t, raw)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, detectFacesPath, statusErr.Endpoint)
	assert.Contains(t, statusErr.Body, "invalid api key")
}

func TestClient_AnalyzeImage_DecodeError(t *testing.T) {
	client := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == classifyPath {
			_, _ = w.Write([]byte(`{"images": "not-a-list"}`))
			return
		}
		_, _ = w.Write([]byte(facesBody))
	})

	_, err := client.AnalyzeImage(context.Background(), "https://example.com/cat.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode /v3/classify response")
}

func TestClient_AnalyzeImage_Cancelled(t *testing.T) {
	client := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(classifyBody))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.AnalyzeImage(ctx, "https://example.com/cat.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New("", "key")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = New("https://api.example.com", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("WATSON_URL", "https://api.example.com/instances/1/")
	t.Setenv("WATSON_API_KEY", "key")
	t.Setenv("WATSON_VERSION", "")
	t.Setenv("WATSON_TIMEOUT", "5s")

	client, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/instances/1", client.baseURL)
	assert.Equal(t, defaultVersion, client.version)
	assert.Equal(t, "5s", client.httpClient.Timeout.String())

	t.Setenv("WATSON_TIMEOUT", "soon")
	_, err = NewFromEnv()
	assert.Error(t, err)
}
