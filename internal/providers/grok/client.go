// Package grok wraps the xAI creative model API: text rewriting via chat
// completions plus image and video generation. The client carries no retry
// logic; callers decide which calls are worth retrying.
package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"storybook/internal/domain"
	"storybook/internal/infra"
)

const (
	defaultBaseURL    = "https://api.x.ai/v1"
	defaultChatModel  = "grok-4"
	defaultImageModel = "grok-imagine-image"
	defaultVideoModel = "grok-imagine-video"

	// Generated assets are fetched from a CDN; downloads dominate the
	// client's time budget.
	defaultTimeout = 180 * time.Second
)

// Options controls how the xAI client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	ImageModel string
	VideoModel string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is a lightweight facade over the xAI API.
type Client struct {
	apiKey     string
	baseURL    string
	chatModel  string
	imageModel string
	videoModel string
	httpClient *http.Client
	logger     *infra.Logger
}

// Generation is the normalized result of an image or video call.
type Generation struct {
	URL string
}

// VideoRequest carries the parameters of one video-generation call.
type VideoRequest struct {
	Prompt          string
	ImageURL        string
	DurationSeconds int
	AspectRatio     string
	Resolution      string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type imageRequest struct {
	Model     string   `json:"model"`
	Prompt    string   `json:"prompt"`
	ImageURLs []string `json:"image_urls,omitempty"`
}

type videoRequest struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	ImageURL    string `json:"image_url,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
}

type generationResponse struct {
	URL string `json:"url"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs an xAI client with sane defaults. A missing API key is
// a configuration error surfaced before any generation call.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, domain.ErrMissingAPIKey
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		chatModel:  firstNonEmpty(opts.ChatModel, defaultChatModel),
		imageModel: firstNonEmpty(opts.ImageModel, defaultImageModel),
		videoModel: firstNonEmpty(opts.VideoModel, defaultVideoModel),
		httpClient: client,
		logger:     logger,
	}, nil
}

// RewriteText runs one chat round-trip with a fixed style instruction and
// returns the model's reply.
func (c *Client) RewriteText(ctx context.Context, instruction, input string) (string, error) {
	payload := chatRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: input},
		},
	}
	var out chatResponse
	if err := c.invoke(ctx, "/chat/completions", payload, &out); err != nil {
		return "", err
	}
	for _, choice := range out.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("grok: chat returned no content")
}

// GenerateImage requests one image grounded on up to three reference images
// (data URIs or fetchable URLs) and returns the result location.
func (c *Client) GenerateImage(ctx context.Context, prompt string, imageURLs []string) (*Generation, error) {
	payload := imageRequest{
		Model:     c.imageModel,
		Prompt:    prompt,
		ImageURLs: imageURLs,
	}
	var out generationResponse
	if err := c.invoke(ctx, "/images/generations", payload, &out); err != nil {
		return nil, err
	}
	if out.URL == "" {
		return nil, fmt.Errorf("grok: image response missing url")
	}
	c.logger.Debug().Str("model", c.imageModel).Int("references", len(imageURLs)).Msg("grok: image generated")
	return &Generation{URL: out.URL}, nil
}

// GenerateVideo requests one clip animated from a seed image.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (*Generation, error) {
	payload := videoRequest{
		Model:       c.videoModel,
		Prompt:      req.Prompt,
		ImageURL:    req.ImageURL,
		Duration:    req.DurationSeconds,
		AspectRatio: req.AspectRatio,
		Resolution:  req.Resolution,
	}
	var out generationResponse
	if err := c.invoke(ctx, "/videos/generations", payload, &out); err != nil {
		return nil, err
	}
	if out.URL == "" {
		return nil, fmt.Errorf("grok: video response missing url")
	}
	c.logger.Debug().Str("model", c.videoModel).Int("duration", req.DurationSeconds).Msg("grok: video generated")
	return &Generation{URL: out.URL}, nil
}

// Download fetches a generated asset's bytes.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("grok: create download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grok: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("grok: download status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("grok: read download: %w", err)
	}
	return blob, nil
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("grok: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("grok: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("grok: invoke %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("grok: %s status %d: %s", path, resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("grok: %s status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("grok: %s status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("grok: decode response: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
