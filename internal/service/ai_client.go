package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"exam_center_backend/internal/config"
	"exam_center_backend/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// ScoreRequest carries the full question context sent out for one
// free-text answer.
type ScoreRequest struct {
	QuestionType    model.QuestionType
	QuestionTitle   string
	QuestionContent string
	ModelAnswer     string
	SubjectName     string
	Difficulty      string
	MaxMarks        float64
	AnswerText      string
}

// CriterionScore is one rubric line of a long-answer evaluation; the
// criterion scores must sum to the overall awarded marks.
type CriterionScore struct {
	Criterion string  `json:"criterion"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score"`
	Comment   string  `json:"comment,omitempty"`
}

type ScoreResponse struct {
	MarksAwarded float64          `json:"marks_awarded"`
	Feedback     string           `json:"feedback"`
	Confidence   float64          `json:"confidence"`
	Breakdown    []CriterionScore `json:"criterion_breakdown,omitempty"`
	Strengths    []string         `json:"strengths,omitempty"`
	Improvements []string         `json:"improvements,omitempty"`
}

// GradingClient is the external scoring service boundary. It either
// returns a structured result or fails within the configured timeout.
type GradingClient interface {
	Score(ctx context.Context, req ScoreRequest) (*ScoreResponse, error)
}

// OpenAIGradingClient talks to an OpenAI-compatible chat completion API.
type OpenAIGradingClient struct {
	api         *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

func NewOpenAIGradingClient(cfg config.AIConfig) *OpenAIGradingClient {
	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIGradingClient{
		api:         openai.NewClientWithConfig(apiConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}
}

func (c *OpenAIGradingClient) Score(ctx context.Context, req ScoreRequest) (*ScoreResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	systemPrompt := buildScoringPrompt(req)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.AnswerText},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("grading API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("grading API returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	var result ScoreResponse
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse grading response: %w (raw: %s)", err, raw)
	}

	return &result, nil
}
