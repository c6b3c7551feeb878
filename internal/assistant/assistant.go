package assistant

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sebuszqo/FamilyFinance/internal/budget"
	"github.com/sebuszqo/FamilyFinance/internal/insights"
)

const (
	MaxMessages     = 20
	MaxMessageChars = 4000

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []Message `json:"messages"`
}

type ChatReply struct {
	Reply string `json:"reply"`
}

func Validate(messages []Message) error {
	if len(messages) == 0 {
		return &ValidationError{Msg: "At least one message is required"}
	}
	if len(messages) > MaxMessages {
		return &ValidationError{Msg: fmt.Sprintf("At most %d messages are allowed", MaxMessages)}
	}
	for _, m := range messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return &ValidationError{Msg: "Message role must be 'user' or 'assistant'"}
		}
	}
	last := messages[len(messages)-1]
	if strings.TrimSpace(last.Content) == "" {
		return &ValidationError{Msg: "Last message must not be empty"}
	}
	if utf8.RuneCountInString(last.Content) > MaxMessageChars {
		return &ValidationError{Msg: fmt.Sprintf("Last message must be at most %d characters", MaxMessageChars)}
	}
	return nil
}

const basePrompt = `You are a friendly family finance assistant. Answer questions about
budgeting, saving, goals and investing in plain language. Keep answers short
and practical. Do not give legal or tax advice; suggest a professional when
a question needs one. Use the household figures below when they help.`

// SystemPrompt renders the household context shown to the model.
func SystemPrompt(d *insights.Dashboard, budgets []budget.Status) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if d != nil {
		fmt.Fprintf(&b, "\n\nMonth %s: income %s, expenses %s, savings %s (savings rate %s%%).",
			d.Month, d.ThisMonth.Income.StringFixed(2), d.ThisMonth.Expenses.StringFixed(2),
			d.ThisMonth.Savings.StringFixed(2), d.SavingsRatePct.StringFixed(1))
		fmt.Fprintf(&b, "\nLast month savings %s, trend %s%%.",
			d.LastMonth.Savings.StringFixed(2), d.SavingsTrendPct.StringFixed(1))
		if len(d.TopCategories) > 0 {
			b.WriteString("\nTop spending:")
			for _, c := range d.TopCategories {
				fmt.Fprintf(&b, " %s %s;", c.Category, c.Amount.StringFixed(2))
			}
		}
	}

	if len(budgets) > 0 {
		b.WriteString("\nBudgets:")
		for _, s := range budgets {
			fmt.Fprintf(&b, "\n- %s (%s): spent %s of %s, %s%%, %s",
				s.Category, s.Period, s.Spent.StringFixed(2), s.Limit.StringFixed(2),
				s.Percentage.StringFixed(0), s.State)
		}
	}
	return b.String()
}
