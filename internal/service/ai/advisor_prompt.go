package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
)

var advisorRules = []string{
	"Keep answers under 120 words and in plain language.",
	"Only use the client facts listed above; never invent balances or returns.",
	"Do not recommend individual securities; talk about asset classes and habits.",
	"When a question is about portfolio performance, allocation or retirement, suggest the client ask about it directly.",
	"Remind the client this is general information, not personal financial advice, when the topic is risky.",
}

// BuildSystemPrompt describes the advisor role and the client's profile.
func BuildSystemPrompt(p profile.Profile) string {
	var b strings.Builder
	b.WriteString("You are a friendly financial advisor assistant inside a personal finance app.\n\n")

	if p.Name != "" {
		b.WriteString("Client profile:\n")
		fmt.Fprintf(&b, "- Name: %s\n", p.Name)
		if p.Age > 0 {
			fmt.Fprintf(&b, "- Age: %d\n", p.Age)
		}
		if p.Occupation != "" {
			fmt.Fprintf(&b, "- Occupation: %s\n", p.Occupation)
		}
		if p.RiskLevel != "" {
			fmt.Fprintf(&b, "- Risk tolerance: %s\n", p.RiskLevel)
		}
		fmt.Fprintf(&b, "- Portfolio value: $%.0f\n", p.PortfolioValue)
		fmt.Fprintf(&b, "- Retirement savings: $%.0f of a $%.0f goal (%.1f%%)\n", p.RetirementSavings, p.RetirementGoal, p.GoalProgress())
		if years := p.YearsToRetirement(); years > 0 {
			fmt.Fprintf(&b, "- Years to retirement: %d\n", years)
		}
		if p.MonthlyContribution > 0 {
			fmt.Fprintf(&b, "- Monthly contribution: $%.0f\n", p.MonthlyContribution)
		}
		b.WriteString("\n")
	}

	b.WriteString("Rules:\n- ")
	b.WriteString(strings.Join(advisorRules, "\n- "))
	return b.String()
}
