// Package render turns chart payloads into text for transports that cannot
// draw them.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
)

// Markdown renders a chart as a markdown table. A nil chart renders as "".
func Markdown(c *chat.ChartPayload) string {
	if c == nil {
		return ""
	}

	var b strings.Builder
	switch c.Kind {
	case chat.ChartLine:
		b.WriteString("| Month | Value |\n|---|---:|\n")
		for _, p := range c.Line {
			fmt.Fprintf(&b, "| %s | %s |\n", p.Label, Amount(p.Value))
		}
	case chat.ChartPie:
		b.WriteString("| Category | Current | Recommended |\n|---|---:|---:|\n")
		for _, s := range c.Pie {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", s.Name, percent(s.Value), recommended(s))
		}
	}
	return b.String()
}

// Plain renders a chart as aligned monospace rows.
func Plain(c *chat.ChartPayload) string {
	if c == nil {
		return ""
	}

	var b strings.Builder
	switch c.Kind {
	case chat.ChartLine:
		for _, p := range c.Line {
			fmt.Fprintf(&b, "%-4s %12s\n", p.Label, Amount(p.Value))
		}
	case chat.ChartPie:
		fmt.Fprintf(&b, "%-12s %8s %12s\n", "Category", "Current", "Recommended")
		for _, s := range c.Pie {
			fmt.Fprintf(&b, "%-12s %8s %12s\n", s.Name, percent(s.Value), recommended(s))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Amount formats a currency value with thousands separators.
func Amount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := strconv.FormatFloat(v, 'f', 0, 64)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

func recommended(s chat.PieSlice) string {
	if s.Recommended == nil {
		return "-"
	}
	return percent(*s.Recommended)
}
