package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/synthesis.txt
	synthesisRaw string

	//go:embed template/synthesis_system.txt
	synthesisSystemRaw string

	//go:embed template/customer_data.txt
	customerDataRaw string

	//go:embed template/support.txt
	supportRaw string
)

// PromptSet holds the trimmed system prompts of every agent.
type PromptSet struct {
	Router          string
	Synthesis       string
	SynthesisSystem string
	CustomerData    string
	Support         string
}

func LoadPromptSet() PromptSet {
	return PromptSet{
		Router:          strings.TrimSpace(routerRaw),
		Synthesis:       strings.TrimSpace(synthesisRaw),
		SynthesisSystem: strings.TrimSpace(synthesisSystemRaw),
		CustomerData:    strings.TrimSpace(customerDataRaw),
		Support:         strings.TrimSpace(supportRaw),
	}
}

func (p PromptSet) Validate() error {
	for name, v := range map[string]string{
		"router":           p.Router,
		"synthesis":        p.Synthesis,
		"synthesis_system": p.SynthesisSystem,
		"customer_data":    p.CustomerData,
		"support":          p.Support,
	} {
		if v == "" {
			return fmt.Errorf("%w: %s", contractx.ErrPromptMissing, name)
		}
	}
	return nil
}

// RenderSynthesis fills the {query} and {agent_responses} placeholders.
func (p PromptSet) RenderSynthesis(query, agentResponses string) string {
	return strings.NewReplacer(
		"{query}", query,
		"{agent_responses}", agentResponses,
	).Replace(p.Synthesis)
}
