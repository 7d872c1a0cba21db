package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
)

// Ensure OpenAIQuestionModel implements QuestionModel
var _ driven.QuestionModel = (*OpenAIQuestionModel)(nil)

const (
	defaultModel       = "gpt-4o-mini"
	defaultBaseURL     = "https://api.openai.com/v1"
	requestTimeout     = 30 * time.Second
	maxAttempts        = 3
	defaultTemperature = 0.7
	strictTemperature  = 0.3
	defaultMaxTokens   = 2000
	strictMaxTokens    = 1500
)

// OpenAIQuestionModel implements QuestionModel against the OpenAI chat
// completions API in JSON mode. All retry policy lives here: transient
// failures get up to three attempts with linear backoff, and a response
// that is not valid JSON gets one stricter follow-up attempt before the
// error escalates.
type OpenAIQuestionModel struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIQuestionModel creates a new OpenAI-backed question model
func NewOpenAIQuestionModel(apiKey, model, baseURL string) (*OpenAIQuestionModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &OpenAIQuestionModel{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

// chatRequest is the request body for the chat completions API
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response from the chat completions API
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Generate returns one JSON object shaped like a question payload.
func (m *OpenAIQuestionModel) Generate(ctx context.Context, prompt driven.QuestionPrompt) (json.RawMessage, error) {
	userPrompt := buildUserPrompt(prompt)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		content, err := m.complete(ctx, systemPrompt, userPrompt, defaultTemperature, defaultMaxTokens)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, lastErr
			}
			// Linear backoff between attempts
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return nil, lastErr
			}
			continue
		}

		if payload, ok := extractJSONObject(content); ok {
			return payload, nil
		}

		// One stricter follow-up for a malformed body, then give up
		content, err = m.complete(ctx, strictSystemPrompt, userPrompt, strictTemperature, strictMaxTokens)
		if err != nil {
			return nil, err
		}
		if payload, ok := extractJSONObject(content); ok {
			return payload, nil
		}
		return nil, fmt.Errorf("%w: model returned non-JSON content", domain.ErrModelInvalidJSON)
	}
	return nil, lastErr
}

// Model returns the model name being used
func (m *OpenAIQuestionModel) Model() string {
	return m.model
}

// complete performs one chat completion call and returns the message content.
func (m *OpenAIQuestionModel) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model: m.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("%w: %v", domain.ErrModelTimeout, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", domain.ErrModelTimeout, err)
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s (type: %s, code: %s)",
			chatResp.Error.Message, chatResp.Error.Type, chatResp.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAI API returned status %d", resp.StatusCode)
	}
	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", domain.ErrModelEmptyResponse
	}

	return chatResp.Choices[0].Message.Content, nil
}

// extractJSONObject pulls the first JSON object out of the model content,
// tolerating stray prose or code fences around it.
func extractJSONObject(content string) (json.RawMessage, bool) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	candidate := json.RawMessage(content[start : end+1])
	if !json.Valid(candidate) {
		return nil, false
	}
	return candidate, true
}
