package chat

import (
	"errors"
	"fmt"
)

// ChartKind tags the variant carried by a ChartPayload.
type ChartKind string

const (
	ChartLine ChartKind = "line"
	ChartPie  ChartKind = "pie"
)

var ErrInvalidChart = errors.New("invalid chart payload")

// LinePoint is one ordered point of a line chart.
type LinePoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PieSlice is one category of a pie chart. Recommended is the target share
// suggested by the advisor, when one exists.
type PieSlice struct {
	Name        string   `json:"name"`
	Value       float64  `json:"value"`
	Recommended *float64 `json:"recommended,omitempty"`
}

// ChartPayload is either a line series or a pie breakdown, never both.
type ChartPayload struct {
	Kind ChartKind   `json:"kind"`
	Line []LinePoint `json:"line,omitempty"`
	Pie  []PieSlice  `json:"pie,omitempty"`
}

// NewLineChart copies points into a line payload.
func NewLineChart(points []LinePoint) *ChartPayload {
	return &ChartPayload{Kind: ChartLine, Line: append([]LinePoint(nil), points...)}
}

// NewPieChart copies slices into a pie payload.
func NewPieChart(slices []PieSlice) *ChartPayload {
	copied := make([]PieSlice, len(slices))
	for i, s := range slices {
		copied[i] = s
		if s.Recommended != nil {
			v := *s.Recommended
			copied[i].Recommended = &v
		}
	}
	return &ChartPayload{Kind: ChartPie, Pie: copied}
}

// Validate checks that the payload data matches its kind.
func (c *ChartPayload) Validate() error {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case ChartLine:
		if len(c.Line) == 0 || len(c.Pie) != 0 {
			return fmt.Errorf("%w: line chart needs points only", ErrInvalidChart)
		}
	case ChartPie:
		if len(c.Pie) == 0 || len(c.Line) != 0 {
			return fmt.Errorf("%w: pie chart needs slices only", ErrInvalidChart)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidChart, c.Kind)
	}
	return nil
}

// PieTotal sums the slice values of a pie payload.
func (c *ChartPayload) PieTotal() float64 {
	if c == nil {
		return 0
	}
	var total float64
	for _, s := range c.Pie {
		total += s.Value
	}
	return total
}
