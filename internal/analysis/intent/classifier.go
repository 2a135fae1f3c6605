package intent

import (
	"strings"

	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
)

// Label names the canned response category picked for an utterance.
type Label string

const (
	Performance Label = "performance"
	Allocation  Label = "allocation"
	Retirement  Label = "retirement"
	Fallback    Label = "fallback"
)

// Response is the canned advisor reply for a classified utterance.
type Response struct {
	Intent Label
	Reply  string
	Chart  *chat.ChartPayload
}

type rule struct {
	label    Label
	keywords []string
	respond  func() Response
}

// rules are evaluated in order; the first group with a matching keyword wins.
var rules = []rule{
	{
		label:    Performance,
		keywords: []string{"portfolio", "performance"},
		respond: func() Response {
			return Response{Intent: Performance, Reply: performanceReply, Chart: chat.NewLineChart(performanceSeries)}
		},
	},
	{
		label:    Allocation,
		keywords: []string{"allocation", "diversif"},
		respond: func() Response {
			return Response{Intent: Allocation, Reply: allocationReply, Chart: chat.NewPieChart(allocationBreakdown)}
		},
	},
	{
		label:    Retirement,
		keywords: []string{"retirement", "goal"},
		respond: func() Response {
			return Response{Intent: Retirement, Reply: retirementReply}
		},
	},
}

// Classify maps a free-text utterance to a canned response. It never fails.
func Classify(utterance string) Response {
	normalized := strings.ToLower(utterance)
	for _, r := range rules {
		for _, word := range r.keywords {
			if strings.Contains(normalized, word) {
				return r.respond()
			}
		}
	}
	return Response{Intent: Fallback, Reply: fallbackReply}
}

// Keywords returns the ordered keyword groups, for help text.
func Keywords() map[Label][]string {
	out := make(map[Label][]string, len(rules))
	for _, r := range rules {
		out[r.label] = append([]string(nil), r.keywords...)
	}
	return out
}

// Greeting opens every conversation.
func Greeting() string {
	return greetingReply
}
