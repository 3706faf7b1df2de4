package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

func TestOpenRouterForOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:                  " key ",
		Model:                   "openai/gpt-4o-mini",
		Temperature:             0.3,
		MaxCompletionToken:      512,
		RouterModel:             "openai/gpt-4o",
		RouterTemperature:       0,
		CustomerDataTemperature: -1,
		SupportTemperature:      0.5,
	}

	router := cfg.OpenRouterFor(contractx.AgentTypeRouter)
	if router.Model != "openai/gpt-4o" || router.Temperature != 0 {
		t.Fatalf("unexpected router endpoint %+v", router)
	}
	if router.APIKey != "key" || router.MaxCompletionToken == nil || *router.MaxCompletionToken != 512 {
		t.Fatalf("unexpected shared settings %+v", router)
	}

	customer := cfg.OpenRouterFor(contractx.AgentTypeCustomerData)
	if customer.Model != "openai/gpt-4o-mini" || customer.Temperature != 0.3 {
		t.Fatalf("expected defaults for customer data, got %+v", customer)
	}

	support := cfg.OpenRouterFor(contractx.AgentTypeSupport)
	if support.Temperature != 0.5 {
		t.Fatalf("expected support temperature override, got %v", support.Temperature)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Backend: "carrier"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown backend, got %v", err)
	}
	if err := (Config{Backend: BackendOpenAI, APIKey: "k"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing model, got %v", err)
	}
	if err := (Config{Backend: BackendEino}).Validate(); err != nil {
		t.Fatalf("expected disabled config to validate, got %v", err)
	}
}
