package promptstyle

import "strings"

const marker = "AUTOCRM_PROMPT_STYLE_V1"

// Mode selects the output-format guidance appended to the preamble.
type Mode string

const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// ApplySystem prepends the shared support-assistant preamble to a system prompt.
// Applying it twice is a no-op.
func ApplySystem(system string, mode Mode) string {
	base := strings.TrimSpace(system)
	if base == "" || strings.Contains(base, marker) {
		return base
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou work for the AutoCRM customer support desk.")
	b.WriteString("\nGround every answer in the ticket and knowledge base content you are given.")
	b.WriteString("\nNever invent policies, prices, links or account details.")
	switch mode {
	case ModeJSON:
		b.WriteString("\nRespond with a single JSON object and nothing else: no markdown fences, no commentary.")
	default:
		b.WriteString("\nKeep replies short, friendly and actionable.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}
