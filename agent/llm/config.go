package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/openrouter"
)

const (
	BackendEino   = "eino"
	BackendOpenAI = "openai"
)

type Config struct {
	Backend            string        `envconfig:"BACKEND" split_words:"true" default:"eino"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"openai/gpt-4o-mini"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1024"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	RouterModel             string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	CustomerDataModel       string  `envconfig:"CUSTOMER_DATA_MODEL" split_words:"true"`
	SupportModel            string  `envconfig:"SUPPORT_MODEL" split_words:"true"`
	RouterTemperature       float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"-1"`
	CustomerDataTemperature float32 `envconfig:"CUSTOMER_DATA_TEMPERATURE" split_words:"true" default:"-1"`
	SupportTemperature      float32 `envconfig:"SUPPORT_TEMPERATURE" split_words:"true" default:"0.5"`

	BreakerMaxFailures uint32        `envconfig:"BREAKER_MAX_FAILURES" split_words:"true" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"BREAKER_OPEN_TIMEOUT" split_words:"true" default:"30s"`
}

// Enabled reports whether a model endpoint is configured. Without one every
// agent runs on its deterministic fallbacks.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case BackendEino, BackendOpenAI, "":
	default:
		return fmt.Errorf("%w: unsupported llm backend %q", contractx.ErrValidation, c.Backend)
	}
	if !c.Enabled() {
		return nil
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the endpoint of one agent, applying its overrides.
func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(m string, t float32) {
		if v := strings.TrimSpace(m); v != "" {
			modelName = v
		}
		if t >= 0 {
			temp = t
		}
	}

	switch agentType {
	case contractx.AgentTypeRouter:
		override(c.RouterModel, c.RouterTemperature)
	case contractx.AgentTypeCustomerData:
		override(c.CustomerDataModel, c.CustomerDataTemperature)
	case contractx.AgentTypeSupport:
		override(c.SupportModel, c.SupportTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
