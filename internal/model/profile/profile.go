package profile

import "math"

// Profile captures the mock user shown in the advisor sidebar.
type Profile struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Age                 int     `json:"age"`
	Occupation          string  `json:"occupation,omitempty"`
	RiskLevel           string  `json:"riskLevel"`
	PortfolioValue      float64 `json:"portfolioValue"`
	RetirementSavings   float64 `json:"retirementSavings"`
	RetirementGoal      float64 `json:"retirementGoal"`
	RetirementAge       int     `json:"retirementAge"`
	MonthlyContribution float64 `json:"monthlyContribution"`
	Greeting            string  `json:"greeting,omitempty"`
}

// GoalProgress returns retirement savings as a percentage of the goal,
// rounded to one decimal and clamped to [0, 100].
func (p Profile) GoalProgress() float64 {
	if p.RetirementGoal <= 0 || p.RetirementSavings <= 0 {
		return 0
	}
	pct := p.RetirementSavings / p.RetirementGoal * 100
	if pct > 100 {
		pct = 100
	}
	return math.Round(pct*10) / 10
}

// YearsToRetirement is never negative.
func (p Profile) YearsToRetirement() int {
	if p.RetirementAge <= p.Age {
		return 0
	}
	return p.RetirementAge - p.Age
}

// DefaultID names the profile used when a client does not pick one.
const DefaultID = "alex-morgan"

// Seed provides the demo profiles rendered in the sidebar.
func Seed() []Profile {
	return []Profile{
		{
			ID:                  DefaultID,
			Name:                "Alex Morgan",
			Age:                 38,
			Occupation:          "Product Designer",
			RiskLevel:           "Medium",
			PortfolioValue:      124500,
			RetirementSavings:   312000,
			RetirementGoal:      1200000,
			RetirementAge:       65,
			MonthlyContribution: 1500,
			Greeting:            "Hi Alex! I'm your financial advisor assistant. Ask me about your portfolio performance, asset allocation, or retirement goals.",
		},
		{
			ID:                  "priya-shah",
			Name:                "Priya Shah",
			Age:                 52,
			Occupation:          "Civil Engineer",
			RiskLevel:           "Low",
			PortfolioValue:      486000,
			RetirementSavings:   905000,
			RetirementGoal:      1100000,
			RetirementAge:       62,
			MonthlyContribution: 2200,
		},
		{
			ID:                  "sam-lee",
			Name:                "Sam Lee",
			Age:                 27,
			Occupation:          "Software Developer",
			RiskLevel:           "High",
			PortfolioValue:      38200,
			RetirementSavings:   41000,
			RetirementGoal:      1500000,
			RetirementAge:       60,
			MonthlyContribution: 900,
		},
	}
}
