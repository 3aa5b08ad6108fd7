package oaihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/questlog-backend/internal/observability"
)

// Config targets any OpenAI-compatible server (OpenAI itself, vLLM, Ollama).
type Config struct {
	BaseURL             string        `yaml:"base_url"`
	APIKey              string        `yaml:"api_key"`
	EmbedModel          string        `yaml:"embed_model"`
	ChatModel           string        `yaml:"chat_model"`
	ChatCompletionsPath string        `yaml:"chat_completions_path"`
	EmbeddingsPath      string        `yaml:"embeddings_path"`
	Timeout             time.Duration `yaml:"timeout"`
}

// Client embeds texts and runs chat completions. It satisfies the chat
// pipeline's Embedder and Completer ports.
type Client struct {
	baseURL    string
	apiKey     string
	embedModel string
	chatModel  string
	chatPath   string
	embedPath  string
	timeout    time.Duration
	httpClient *http.Client
}

func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("oaihttp: base_url required")
	}
	c := &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		embedModel: strings.TrimSpace(cfg.EmbedModel),
		chatModel:  strings.TrimSpace(cfg.ChatModel),
		chatPath:   strings.TrimSpace(cfg.ChatCompletionsPath),
		embedPath:  strings.TrimSpace(cfg.EmbeddingsPath),
		timeout:    cfg.Timeout,
	}
	if c.embedModel == "" {
		c.embedModel = "text-embedding-3-small"
	}
	if c.chatModel == "" {
		c.chatModel = "gpt-4o-mini"
	}
	if c.chatPath == "" {
		c.chatPath = "/v1/chat/completions"
	}
	if c.embedPath == "" {
		c.embedPath = "/v1/embeddings"
	}
	if c.timeout <= 0 {
		c.timeout = 60 * time.Second
	}
	c.httpClient = &http.Client{Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}}
	return c, nil
}

// NewWithHTTPClient swaps the transport; tests use it to avoid the network.
func NewWithHTTPClient(cfg Config, httpClient *http.Client) (*Client, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns one vector per input, in input order.
func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	start := time.Now()
	out, err := c.embed(ctx, inputs)
	observability.Current().ObserveUpstream("embed", time.Since(start), err)
	return out, err
}

func (c *Client) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	var resp embeddingsResponse
	if err := c.doJSON(ctx, c.embedPath, embeddingsRequest{Model: c.embedModel, Input: inputs}, &resp); err != nil {
		return nil, err
	}

	out := make([][]float32, len(inputs))
	for pos, d := range resp.Data {
		i := d.Index
		if i < 0 || i >= len(out) || out[i] != nil {
			// some servers omit indices but keep the order
			i = pos
		}
		if i >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		out[i] = vec
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, fmt.Errorf("embeddings missing index=%d (model=%s)", i, c.embedModel)
		}
	}
	return out, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content,omitempty"`
		} `json:"message,omitempty"`
		Text string `json:"text,omitempty"`
	} `json:"choices"`
}

// Complete runs one system+user completion and returns the first non-empty
// choice.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	start := time.Now()
	text, err := c.complete(ctx, system, user, temperature)
	observability.Current().ObserveUpstream("complete", time.Since(start), err)
	return text, err
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	var msgs []chatMessage
	if s := strings.TrimSpace(system); s != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: s})
	}
	if u := strings.TrimSpace(user); u != "" {
		msgs = append(msgs, chatMessage{Role: "user", Content: u})
	}
	if len(msgs) == 0 {
		return "", errors.New("no messages")
	}

	var resp chatCompletionResponse
	req := chatCompletionRequest{Model: c.chatModel, Messages: msgs, Temperature: temperature}
	if err := c.doJSON(ctx, c.chatPath, req, &resp); err != nil {
		return "", err
	}
	for _, ch := range resp.Choices {
		if strings.TrimSpace(ch.Message.Content) != "" {
			return ch.Message.Content, nil
		}
		if strings.TrimSpace(ch.Text) != "" {
			return ch.Text, nil
		}
	}
	return "", errors.New("empty upstream completion")
}

func (c *Client) doJSON(ctx context.Context, path string, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
