// Package llm implements the Summarize adapter on the OpenAI chat
// completions API.
package llm

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
)

//go:embed template/summarizer.txt
var systemPromptRaw string

type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey      string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model       string        `envconfig:"MODEL" split_words:"true" default:"gpt-4o-mini"`
	MaxTokens   int           `envconfig:"MAX_TOKENS" split_words:"true" default:"500"`
	Temperature float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openai api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	return nil
}

// Summarizer satisfies contract.Summarizer.
type Summarizer struct {
	client       openaisdk.Client
	model        string
	maxTokens    int
	temperature  float64
	systemPrompt string
}

func NewSummarizer(cfg Config) (*Summarizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithRequestTimeout(timeout),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	return &Summarizer{
		client:       openaisdk.NewClient(opts...),
		model:        strings.TrimSpace(cfg.Model),
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		systemPrompt: strings.TrimSpace(systemPromptRaw),
	}, nil
}

func MustNewSummarizer(cfg Config) *Summarizer {
	s, err := NewSummarizer(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Summarize sends the request snapshot as a JSON user message and returns
// the model's narrative verbatim.
func (s *Summarizer) Summarize(ctx context.Context, req contractx.SummaryRequest) (string, error) {
	payload, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal summary payload: %v", contractx.ErrValidation, err)
	}

	completion, err := s.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(s.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(s.systemPrompt),
			openaisdk.UserMessage(string(payload)),
		},
		MaxTokens:   openaisdk.Int(int64(s.maxTokens)),
		Temperature: openaisdk.Float(s.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrAdapterUnavailable, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: completion has no choices", contractx.ErrAdapterUnavailable)
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: completion is empty", contractx.ErrAdapterUnavailable)
	}
	return text, nil
}
