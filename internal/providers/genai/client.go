// Package genai wraps the chat-completions API of the generation backend
// behind two narrow capabilities: blocking text generation for plan jobs and
// incremental streaming for the chat relay.
package genai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TextGenerator produces one complete text for a system/user prompt pair.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// StreamGenerator produces text incrementally as the backend emits it.
type StreamGenerator interface {
	GenerateTextStream(ctx context.Context, systemPrompt, userPrompt string) (TextStream, error)
}

// TextStream is a finite, forward-only sequence of text fragments. Recv
// returns io.EOF when the stream is complete. Close releases the underlying
// connection and must always be called.
type TextStream interface {
	Recv() (string, error)
	Close() error
}

// Options controls how the backend client is configured.
type Options struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
}

// Client calls the backend's chat-completions endpoint over HTTP.
type Client struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
}

const (
	defaultTimeout = 120 * time.Second
	defaultModel   = "gpt-4o"
	defaultBaseURL = "https://api.openai.com/v1"
)

var modelAliases = map[string]string{
	"gpt4o":      "gpt-4o",
	"gpt-4o":     "gpt-4o",
	"gpt4o-mini": "gpt-4o-mini",
	"gpt4omini":  "gpt-4o-mini",
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient constructs a backend client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("backend api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        normalizeModel(opts.Model),
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
	}, nil
}

// Model returns the configured backend model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateText performs one blocking completion call.
func (c *Client) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.post(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}, "application/json")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("completion response carried no choices")
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("completion response was empty")
	}
	return text, nil
}

// GenerateTextStream opens a streaming completion call. Cancelling ctx aborts
// the underlying HTTP request, which is how caller disconnects propagate.
func (c *Client) GenerateTextStream(ctx context.Context, systemPrompt, userPrompt string) (TextStream, error) {
	resp, err := c.post(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: true,
	}, "text/event-stream")
	if err != nil {
		return nil, err
	}
	return &sseStream{body: resp.Body, reader: bufio.NewReader(resp.Body)}, nil
}

func (c *Client) post(ctx context.Context, payload chatRequest, accept string) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer func() {
			_ = resp.Body.Close()
		}()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiErrorResponse
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("backend status %d: %s", resp.StatusCode, apiErr.Error.Message)
	}
	return fmt.Errorf("backend status %d", resp.StatusCode)
}

// sseStream parses the `data:` frames of a streaming completion response.
type sseStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	done   bool
}

// Recv returns the next non-empty text fragment, io.EOF at end of stream.
func (s *sseStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			s.done = true
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", fmt.Errorf("read stream: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}
		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			s.done = true
			return "", fmt.Errorf("decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			return text, nil
		}
		if chunk.Choices[0].FinishReason != "" {
			s.done = true
			return "", io.EOF
		}
	}
}

// Close releases the response body, aborting any in-flight read.
func (s *sseStream) Close() error {
	s.done = true
	return s.body.Close()
}

func normalizeModel(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return defaultModel
	}
	if canonical, ok := modelAliases[trimmed]; ok {
		return canonical
	}
	return trimmed
}

var (
	_ TextGenerator   = (*Client)(nil)
	_ StreamGenerator = (*Client)(nil)
)
