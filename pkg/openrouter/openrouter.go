// Package openrouter builds clients for an OpenAI-compatible gateway, OpenRouter
// by default. Both LLM backends of the agents go through it.
package openrouter

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Models that stream reasoning tokens unless told otherwise.
var noReasoningModels = map[string]bool{
	"x-ai/grok-4.1-fast": true,
}

// Config is the endpoint of one agent: gateway, credentials and sampling.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"openai/gpt-4o-mini"`
	MaxCompletionToken *int          `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1024"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
}

func (c Config) baseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
}

// ChatModel builds the eino chat model used by the default generator backend.
func (c *Config) ChatModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	modelName := strings.TrimSpace(c.Model)
	temperature := c.Temperature

	conf := &openaimodel.ChatModelConfig{
		BaseURL:     c.baseURL(),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       modelName,
		MaxTokens:   c.MaxCompletionToken,
		Temperature: &temperature,
		Timeout:     c.Timeout,
	}
	if noReasoningModels[modelName] {
		conf.ExtraFields = map[string]any{
			"reasoning": map[string]any{"exclude": true, "effort": "none"},
		}
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("create chat model %s: %w", modelName, err)
	}
	return m, nil
}

// NewClient returns an OpenAI SDK client for the gateway, or nil without an
// API key.
func NewClient(cfg Config) *openaisdk.Client {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil
	}

	opts := []option.RequestOption{option.WithAPIKey(key)}
	if base := cfg.baseURL(); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	for header, value := range map[string]string{
		"HTTP-Referer": cfg.SiteURL,
		"X-Title":      cfg.SiteName,
	} {
		if v := strings.TrimSpace(value); v != "" {
			opts = append(opts, option.WithHeader(header, v))
		}
	}

	client := openaisdk.NewClient(opts...)
	return &client
}
