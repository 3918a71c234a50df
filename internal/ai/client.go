package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// OpenAICompatibleClient talks to any endpoint exposing the OpenAI
// /chat/completions and /embeddings routes.
type OpenAICompatibleClient struct {
	httpClient *http.Client
}

func NewOpenAICompatibleClient(timeout time.Duration) *OpenAICompatibleClient {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OpenAICompatibleClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

func (c *OpenAICompatibleClient) Complete(ctx context.Context, cfg ChatConfig, messages []ChatMessage, temperature float64) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: temperature,
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, cfg.BaseURL, cfg.APIKey, "/chat/completions", reqBody, &parsed); err != nil {
		return "", fmt.Errorf("llm %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty llm choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// postJSON sends body to baseURL+path and decodes a 2xx JSON reply into out.
func (c *OpenAICompatibleClient) postJSON(ctx context.Context, baseURL, apiKey, path string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}

	url := strings.TrimRight(baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("response status %d: %s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse json failed: %w", err)
	}
	return nil
}

// ChatModel adapts the client to a single-prompt generative model.
type ChatModel struct {
	client *OpenAICompatibleClient
	cfg    ChatConfig
}

func NewChatModel(client *OpenAICompatibleClient, cfg ChatConfig) *ChatModel {
	return &ChatModel{client: client, cfg: cfg}
}

func (m *ChatModel) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	return m.client.Complete(ctx, m.cfg, []ChatMessage{{Role: "user", Content: prompt}}, temperature)
}
