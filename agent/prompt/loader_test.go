package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if err := set.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !strings.Contains(set.Router, "customer_data_agent") || !strings.Contains(set.Router, "support_agent") {
		t.Fatal("router prompt must describe both specialists")
	}
	if set.SynthesisSystem != "You synthesize agent responses into helpful user replies." {
		t.Fatalf("unexpected synthesis system prompt %q", set.SynthesisSystem)
	}
}

func TestRenderSynthesis(t *testing.T) {
	t.Parallel()

	out := LoadPromptSet().RenderSynthesis("Where is {my} order?", "\nSUPPORT AGENT:\nticket #9\n")
	if !strings.Contains(out, "User Query: Where is {my} order?") {
		t.Fatalf("query not rendered: %s", out)
	}
	if !strings.Contains(out, "SUPPORT AGENT:\nticket #9") {
		t.Fatalf("agent responses not rendered: %s", out)
	}
	if strings.Contains(out, "{agent_responses}") {
		t.Fatal("placeholder left in prompt")
	}
}
