package assist

import (
	"fmt"
	"strings"

	knowledgetypes "github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/platform/promptstyle"
)

const responseFormat = `Return only a JSON object of this shape:
{
  "message": "your reply to the customer",
  "resolution": {
    "status": "continue" | "potential_resolution" | "escalate",
    "confidence": number between 0 and 1,
    "reason": "one sentence explaining the status"
  }
}
Use "potential_resolution" when the knowledge base fully answers the question,
"escalate" when a human agent must step in (billing disputes, outages, angry customers,
or anything the articles do not cover), and "continue" when you need more information.`

var (
	initialResponseSystem = promptstyle.ApplySystem(`You are the first responder on new support tickets.
Answer using the knowledge base articles provided. If they do not cover the problem, say
a support agent will follow up and escalate.

`+responseFormat, promptstyle.ModeJSON)

	followUpResponseSystem = promptstyle.ApplySystem(`You are continuing a support conversation.
Read the conversation history, answer the customer's latest message using the knowledge
base articles provided, and judge whether the ticket is now resolved.

`+responseFormat, promptstyle.ModeJSON)

	prioritySystem = promptstyle.ApplySystem(`Classify the priority of a support ticket.
High: outages, security issues, data loss, payment failures, or many users affected.
Medium: a feature is broken for one user but a workaround exists.
Low: questions, cosmetic issues, feature requests.
Return only {"priority": "Low" | "Medium" | "High", "reason": "one sentence"}.`, promptstyle.ModeJSON)

	tagsSystem = promptstyle.ApplySystem(`Suggest up to 5 short, lower-case tags for a knowledge base article.
Return only {"tags": ["tag", ...]}.`, promptstyle.ModeJSON)

	qualitySystem = promptstyle.ApplySystem(`Review a knowledge base article for clarity, completeness and accuracy of tone.
Return only {"score": integer 0-100, "strengths": ["..."], "improvements": ["..."]}.`, promptstyle.ModeJSON)

	suggestionsSystem = promptstyle.ApplySystem(`Suggest concrete edits that would make a knowledge base article more helpful
to customers. Reply with a short bulleted list in plain text.`, promptstyle.ModeText)

	patternsSystem = promptstyle.ApplySystem(`Analyze a batch of support tickets for recurring problems.
Return only {"commonIssues": ["..."], "trends": ["..."], "recommendations": ["..."]}.`, promptstyle.ModeJSON)

	chatSystem = promptstyle.ApplySystem(`You are a live chat assistant on the help center.
Answer only from the knowledge base articles provided. If they do not answer the question,
say so and offer to connect the customer with a live agent.
Return only {"response": "your reply", "needsLiveAgent": true | false}.`, promptstyle.ModeJSON)
)

func formatArticles(articles []knowledgetypes.Suggestion) string {
	if len(articles) == 0 {
		return "No relevant knowledge base articles were found."
	}
	var b strings.Builder
	for i, s := range articles {
		fmt.Fprintf(&b, "Article %d: %s\n%s\n", i+1, s.Article.Title, strings.TrimSpace(s.Article.Content))
		if i < len(articles)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func formatHistory(history []*support.Message) string {
	if len(history) == 0 {
		return "(no earlier messages)"
	}
	var b strings.Builder
	for _, m := range history {
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m.SenderName)
		if m.Sender().IsAI() {
			name = support.AIAssistantName
		} else if name == "" {
			name = "Customer"
		}
		fmt.Fprintf(&b, "%s: %s\n", name, strings.TrimSpace(m.Content))
	}
	return strings.TrimRight(b.String(), "\n")
}

func initialResponsePrompt(title, description string, articles []knowledgetypes.Suggestion) string {
	return fmt.Sprintf("Ticket title: %s\nTicket description: %s\n\nKnowledge base:\n%s",
		title, description, formatArticles(articles))
}

func followUpPrompt(in FollowUpInput) string {
	return fmt.Sprintf("Ticket: %s (status: %s)\n\nConversation so far:\n%s\n\nLatest customer message: %s\n\nKnowledge base:\n%s",
		in.Title, in.TicketStatus, formatHistory(in.History), in.UserMessage, formatArticles(in.Articles))
}

func articlePrompt(title, content string) string {
	return fmt.Sprintf("Title: %s\n\nContent:\n%s", title, content)
}

func patternsPrompt(tickets []*support.Ticket) string {
	var b strings.Builder
	for i, t := range tickets {
		if t == nil {
			continue
		}
		fmt.Fprintf(&b, "%d. [%s/%s] %s: %s\n", i+1, t.Status, t.Priority, t.Title, t.Description)
	}
	return b.String()
}
