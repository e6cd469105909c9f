package watson

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"ImageTagger/internal/entity"
	"ImageTagger/pkg/vision"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
)

const (
	defaultVersion = "2018-03-19"
	defaultTimeout = 20 * time.Second

	classifyPath    = "/v3/classify"
	detectFacesPath = "/v3/detect_faces"
)

var ErrMissingCredentials = errors.New("watson url and api key are required")

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("watson %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	apiKey     string
	version    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.version = version
		}
	}
}

func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" || apiKey == "" {
		return nil, ErrMissingCredentials
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		version:    defaultVersion,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// NewFromEnv builds a client from WATSON_URL, WATSON_API_KEY, WATSON_VERSION
// and WATSON_TIMEOUT.
func NewFromEnv() (*Client, error) {
	timeout := defaultTimeout
	if raw := os.Getenv("WATSON_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid WATSON_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	return New(
		os.Getenv("WATSON_URL"),
		os.Getenv("WATSON_API_KEY"),
		WithVersion(os.Getenv("WATSON_VERSION")),
		WithHTTPClient(&http.Client{Timeout: timeout}),
	)
}

func (c *Client) Name() string {
	return vision.ProviderWatson
}

// AnalyzeImage runs the general classifier and face detection concurrently.
// Either call failing fails the whole analysis.
func (c *Client) AnalyzeImage(ctx context.Context, imageURL string) (*entity.RawClassificationResult, error) {
	var (
		general entity.GeneralClassification
		faces   entity.FaceClassification
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, classifyPath, imageURL, &general)
	})
	g.Go(func() error {
		return c.get(gctx, detectFacesPath, imageURL, &faces)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &entity.RawClassificationResult{
		General: &general,
		Faces:   &faces,
	}, nil
}

func (c *Client) get(ctx context.Context, path, imageURL string, out interface{}) error {
	query := url.Values{}
	query.Set("url", imageURL)
	query.Set("version", c.version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.SetBasicAuth("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Endpoint: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := jsoniter.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	return nil
}
