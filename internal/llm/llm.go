package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/medishorts/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// API exposes the underlying client for components that share the same
// endpoint, such as speech synthesis.
func (c *Client) API() *openai.Client {
	return c.api
}

// GenerateLesson asks the LLM for a complete lesson on a topic/subtopic pair
// and validates the result.
func (c *Client) GenerateLesson(ctx context.Context, topic, subtopic string) (*model.Lesson, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: lessonSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildLessonPrompt(topic, subtopic)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.8,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM lesson response", "raw", raw)

	var lesson model.Lesson
	if err := json.Unmarshal([]byte(extractJSON(raw)), &lesson); err != nil {
		return nil, fmt.Errorf("parse lesson response: %w (raw: %s)", err, raw)
	}
	if err := lesson.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lesson: %w", err)
	}
	return &lesson, nil
}

// GenerateTopics asks the LLM for new topic/subtopic pairs for a subject.
// Used to replenish the topic pool when it runs low.
func (c *Client) GenerateTopics(ctx context.Context, subject string, count int) ([]model.TopicImport, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: topicsSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildTopicsPrompt(subject, count)},
		},
		Temperature: 0.9,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM topics API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices for topics")
	}

	raw := resp.Choices[0].Message.Content
	var topics []model.TopicImport
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &topics); err != nil {
		return nil, fmt.Errorf("parse topics response: %w (raw: %s)", err, raw)
	}

	var out []model.TopicImport
	for _, t := range topics {
		t.Topic = strings.TrimSpace(t.Topic)
		t.Subtopic = strings.TrimSpace(t.Subtopic)
		if t.Topic == "" {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// extractJSON pulls the outermost JSON object out of a response that may be
// wrapped in prose or a code fence.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// extractJSONArray does the same for a top-level JSON array.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
