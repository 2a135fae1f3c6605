package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/z-advisor/backend/internal/analysis/intent"
	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
)

func TestAmount(t *testing.T) {
	assert.Equal(t, "$0", Amount(0))
	assert.Equal(t, "$999", Amount(999))
	assert.Equal(t, "$124,500", Amount(124500))
	assert.Equal(t, "$1,200,000", Amount(1200000))
	assert.Equal(t, "-$1,500", Amount(-1500))
}

func TestMarkdownLine(t *testing.T) {
	out := Markdown(intent.Classify("portfolio").Chart)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 14)
	assert.Equal(t, "| Month | Value |", lines[0])
	assert.Contains(t, lines[13], "| Dec | $124,500 |")
}

func TestMarkdownPie(t *testing.T) {
	out := Markdown(intent.Classify("allocation").Chart)

	assert.Contains(t, out, "| Stocks | 45% | 40% |")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 7)
}

func TestPlainWithoutRecommendation(t *testing.T) {
	out := Plain(chat.NewPieChart([]chat.PieSlice{{Name: "Cash", Value: 100}}))

	assert.Contains(t, out, "Cash")
	assert.True(t, strings.HasSuffix(out, "-"))
}

func TestNilChart(t *testing.T) {
	assert.Empty(t, Markdown(nil))
	assert.Empty(t, Plain(nil))
}
