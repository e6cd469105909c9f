package gemini

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"ImageTagger/internal/entity"
	"ImageTagger/pkg/vision"

	"github.com/google/generative-ai-go/genai"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
	"google.golang.org/api/option"
)

const (
	defaultModelName = "gemini-1.5-flash"
	maxImageSize     = 10 * 1024 * 1024
)

var (
	ErrMissingAPIKey   = errors.New("gemini API key is required")
	ErrNotAnImage      = errors.New("url does not point to an image")
	ErrImageTooLarge   = errors.New("image exceeds size limit")
	ErrEmptyResponse   = errors.New("no response from Gemini API")
	ErrNoJSONInAnswer  = errors.New("gemini answer does not contain a JSON object")
	ErrUnexpectedParts = errors.New("unexpected response format from Gemini API")
)

const analysisPrompt = `Classify this image and detect the faces in it.
Answer with a single JSON object and nothing else, using exactly this shape:
{
  "general": {"images": [{"classifiers": [{"classifier_id": "default", "classes": [{"class": "<label>", "score": <0..1>}]}]}]},
  "faces": {"images": [{"faces": [{
    "gender": {"gender": "MALE|FEMALE", "gender_label": "male|female", "score": <0..1>},
    "age": {"min": <int>, "max": <int>, "score": <0..1>},
    "face_location": {"left": <px>, "top": <px>, "width": <px>, "height": <px>}
  }]}]}
}
List up to 10 classes. Use an empty "faces" list when nobody is visible.`

type IGemini interface {
	vision.IVision
	Close() error
}

type geminiClient struct {
	apiKey     string
	modelName  string
	client     *genai.Client
	httpClient *http.Client
}

func NewGeminiClient() (IGemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if modelName == "" {
		modelName = defaultModelName
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		apiKey:     apiKey,
		modelName:  modelName,
		client:     client,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *geminiClient) Name() string {
	return vision.ProviderGemini
}

func (g *geminiClient) AnalyzeImage(ctx context.Context, imageURL string) (*entity.RawClassificationResult, error) {
	format, imgData, err := fetchImage(ctx, g.httpClient, imageURL)
	if err != nil {
		return nil, err
	}

	model := g.client.GenerativeModel(g.modelName)
	model.ResponseMIMEType = "application/json"

	res, err := model.GenerateContent(ctx, genai.Text(analysisPrompt), genai.ImageData(format, imgData))
	if err != nil {
		return nil, err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, ErrUnexpectedParts
	}

	return parseAnalysis(string(text))
}

func (g *geminiClient) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// fetchImage downloads imageURL and returns the image subtype ("jpeg",
// "png", ...) expected by genai.ImageData.
func fetchImage(ctx context.Context, httpClient *http.Client, imageURL string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("build image request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("download image: unexpected status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", nil, ErrNotAnImage
	}
	format := strings.TrimPrefix(strings.SplitN(contentType, ";", 2)[0], "image/")

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageSize {
		return "", nil, ErrImageTooLarge
	}

	return strings.TrimSpace(format), data, nil
}

// parseAnalysis decodes the JSON object embedded in a model answer. Models
// sometimes wrap it in markdown fences, so only the outermost braces count.
func parseAnalysis(text string) (*entity.RawClassificationResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, ErrNoJSONInAnswer
	}

	var raw entity.RawClassificationResult
	if err := jsoniter.UnmarshalFromString(text[start:end+1], &raw); err != nil {
		return nil, fmt.Errorf("decode gemini answer: %w", err)
	}

	return &raw, nil
}
