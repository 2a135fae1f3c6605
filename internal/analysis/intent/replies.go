package intent

import "github.com/zhouzirui/z-advisor/backend/internal/model/chat"

const (
	greetingReply = "Hello! I'm your AI financial advisor. I can help you review your portfolio performance, " +
		"check your asset allocation, or see how you're tracking toward retirement. What would you like to know?"

	performanceReply = "Your portfolio has grown 12.4% over the past 12 months, outperforming its benchmark by 2.1%. " +
		"Most of the gain came in the second half of the year, led by your equity holdings. Here's the monthly value trend:"

	allocationReply = "Here's your current asset allocation compared with what I'd recommend for your risk profile. " +
		"You're slightly overweight in stocks and cash; shifting about 5% into bonds and 5% into commodities " +
		"would improve your diversification."

	retirementReply = "You're on track to reach about 78% of your retirement goal by age 65 at your current contribution rate. " +
		"Increasing your monthly contribution by $400 would close most of the gap, " +
		"and maxing out employer matching is the quickest win."

	fallbackReply = "I can help with questions about your portfolio performance, asset allocation, " +
		"or retirement goals. Could you tell me a bit more about what you'd like to review?"
)

var performanceSeries = []chat.LinePoint{
	{Label: "Jan", Value: 110800},
	{Label: "Feb", Value: 112300},
	{Label: "Mar", Value: 111200},
	{Label: "Apr", Value: 113900},
	{Label: "May", Value: 115100},
	{Label: "Jun", Value: 114400},
	{Label: "Jul", Value: 117200},
	{Label: "Aug", Value: 118900},
	{Label: "Sep", Value: 118100},
	{Label: "Oct", Value: 120600},
	{Label: "Nov", Value: 122800},
	{Label: "Dec", Value: 124500},
}

func recommended(v float64) *float64 { return &v }

var allocationBreakdown = []chat.PieSlice{
	{Name: "Stocks", Value: 45, Recommended: recommended(40)},
	{Name: "Bonds", Value: 25, Recommended: recommended(30)},
	{Name: "Real Estate", Value: 15, Recommended: recommended(15)},
	{Name: "Cash", Value: 10, Recommended: recommended(5)},
	{Name: "Commodities", Value: 5, Recommended: recommended(10)},
}
