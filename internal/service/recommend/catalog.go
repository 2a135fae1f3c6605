package recommend

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	nameColumn   = "Investment_Name"
	riskColumn   = "Risk_Level"
	returnColumn = "5yr_Return"

	// DefaultPicks is the number of investments returned per risk level.
	DefaultPicks = 3
)

var (
	ErrNoMatches     = errors.New("no investments found")
	ErrMissingColumn = errors.New("catalog is missing a required column")
)

//go:embed data/investments.csv
var defaultCatalog string

// Investment is one row of the catalogue.
type Investment struct {
	Name           string   `json:"investmentName"`
	RiskLevel      string   `json:"riskLevel,omitempty"`
	FiveYearReturn *float64 `json:"fiveYearReturn,omitempty"`
}

// Catalog holds investments in file order.
type Catalog struct {
	items []Investment
}

// Default returns the catalogue embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(strings.NewReader(defaultCatalog))
}

// LoadFile reads a CSV catalogue from disk. An empty path selects the
// embedded catalogue.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a CSV catalogue. Header names are trimmed; the name and risk
// columns are required, the return column is optional.
func Parse(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	nameIdx, ok := columns[nameColumn]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, nameColumn)
	}
	riskIdx, ok := columns[riskColumn]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, riskColumn)
	}
	returnIdx, hasReturn := columns[returnColumn]

	catalog := &Catalog{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog line %d: %w", line, err)
		}

		item := Investment{
			Name:      field(record, nameIdx),
			RiskLevel: field(record, riskIdx),
		}
		if item.Name == "" {
			item.Name = "Unknown"
		}
		if hasReturn {
			if raw := field(record, returnIdx); raw != "" {
				val, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("catalog line %d: invalid %s %q: %w", line, returnColumn, raw, err)
				}
				item.FiveYearReturn = &val
			}
		}
		catalog.items = append(catalog.items, item)
	}
	return catalog, nil
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// Len reports the number of investments.
func (c *Catalog) Len() int {
	return len(c.items)
}

// TopPicks returns up to n investments for a risk level, best five-year
// return first. An exact risk match is preferred; otherwise any level
// containing the requested risk qualifies.
func (c *Catalog) TopPicks(risk string, n int) ([]Investment, error) {
	norm := strings.ToLower(strings.TrimSpace(risk))
	if norm == "" {
		return nil, fmt.Errorf("%w for empty risk", ErrNoMatches)
	}
	if n <= 0 {
		n = DefaultPicks
	}

	candidates := c.filter(func(level string) bool { return level == norm })
	if len(candidates) == 0 {
		candidates = c.filter(func(level string) bool { return strings.Contains(level, norm) })
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w for risk '%s'", ErrNoMatches, risk)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].FiveYearReturn, candidates[j].FiveYearReturn
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

func (c *Catalog) filter(match func(level string) bool) []Investment {
	var out []Investment
	for _, item := range c.items {
		if match(strings.ToLower(item.RiskLevel)) {
			out = append(out, item)
		}
	}
	return out
}

// Summary renders picks as the advisor text appended to a chat reply.
func (c *Catalog) Summary(risk string) string {
	picks, err := c.TopPicks(risk, DefaultPicks)
	if err != nil {
		return fmt.Sprintf("Couldn't find CSV recommendations: %v", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on a %s risk profile, top picks are:", strings.TrimSpace(risk))
	for _, p := range picks {
		ret := "N/A"
		if p.FiveYearReturn != nil {
			ret = formatReturn(*p.FiveYearReturn)
		}
		fmt.Fprintf(&b, "\n- %s (%s%% 5yr)", p.Name, ret)
	}
	return b.String()
}

// formatReturn prints a return with at least one decimal, so 7 reads "7.0".
func formatReturn(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
