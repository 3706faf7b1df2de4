package specialist

import (
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/tool"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	CategoryGeneral   = "general"
	CategoryBilling   = "billing"
	CategoryAccount   = "account"
	CategoryTechnical = "technical"
	CategoryComplaint = "complaint"

	maxIssueSummary = 200
)

var (
	highPriorityKeywords = []string{"urgent", "immediately", "asap", "critical", "emergency", "refund", "charged twice", "billing error"}
	lowPriorityKeywords  = []string{"question", "wondering", "curious", "when you have time"}
	explicitTicket       = []string{"create ticket", "open ticket", "log issue", "report"}

	// Checked in order; the first matching category wins.
	categoryRules = []struct {
		category    string
		keywords    []string
		needsTicket bool
	}{
		{CategoryBilling, []string{"billing", "charge", "payment", "refund", "invoice"}, true},
		{CategoryAccount, []string{"account", "upgrade", "downgrade", "subscription"}, false},
		{CategoryTechnical, []string{"bug", "error", "not working", "broken", "issue"}, true},
		{CategoryComplaint, []string{"complaint", "unhappy", "frustrated", "disappointed"}, true},
	}

	quotedPattern  = regexp.MustCompile(`"([^"]*)"`)
	searchPatterns = []*regexp.Regexp{
		regexp.MustCompile(`search\s+(?:for\s+)?(.+)`),
		regexp.MustCompile(`find\s+(.+)`),
		regexp.MustCompile(`look\s+(?:for\s+|up\s+)?(.+)`),
	}

	emailUpdatePattern = regexp.MustCompile(`email\s+(?:to\s+)?([^\s,]+@[^\s,]+)`)
	phoneUpdatePattern = regexp.MustCompile(`phone\s+(?:to\s+)?([0-9\-\+\(\)\s]+)`)
	nameUpdatePattern  = regexp.MustCompile(`name\s+(?:to\s+)?([A-Za-z\s]+)`)
)

// ClassifySupport derives priority, category and ticket need from keywords.
// Complaints always escalate; open-ticket escalation is decided later from the
// customer's history.
func ClassifySupport(query string) contractx.SupportAnalysis {
	lower := strings.ToLower(query)
	out := contractx.SupportAnalysis{
		Priority:     PriorityMedium,
		Category:     CategoryGeneral,
		IssueSummary: truncate(query, maxIssueSummary),
	}

	switch {
	case containsAny(lower, highPriorityKeywords):
		out.Priority = PriorityHigh
		out.NeedsTicket = true
	case containsAny(lower, lowPriorityKeywords):
		out.Priority = PriorityLow
	}

	for _, rule := range categoryRules {
		if !containsAny(lower, rule.keywords) {
			continue
		}
		out.Category = rule.category
		out.NeedsTicket = out.NeedsTicket || rule.needsTicket
		break
	}
	if out.Category == CategoryComplaint {
		out.EscalationNeeded = true
		out.EscalationReason = "Customer complaint detected"
	}

	if containsAny(lower, explicitTicket) {
		out.NeedsTicket = true
	}
	return out
}

// ExtractSearchTerm prefers the first quoted string, then the text following
// "search (for)", "find" or "look (for|up)".
func ExtractSearchTerm(query string) (string, bool) {
	if m := quotedPattern.FindStringSubmatch(query); m != nil {
		return m[1], true
	}
	lower := strings.ToLower(query)
	for _, p := range searchPatterns {
		if m := p.FindStringSubmatch(lower); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// ExtractUpdate reads "email (to) x", "phone (to) x" and "name (to) x" from the
// query. Name keeps its original casing.
func ExtractUpdate(query string) tool.CustomerUpdate {
	var out tool.CustomerUpdate
	lower := strings.ToLower(query)

	if m := emailUpdatePattern.FindStringSubmatch(lower); m != nil {
		out.Email = &m[1]
	}
	if m := phoneUpdatePattern.FindStringSubmatch(lower); m != nil {
		if phone := strings.TrimSpace(m[1]); phone != "" {
			out.Phone = &phone
		}
	}
	if m := nameUpdatePattern.FindStringSubmatch(query); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			out.Name = &name
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
