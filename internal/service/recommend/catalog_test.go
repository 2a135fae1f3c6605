package recommend

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = ` Investment_Name ,Risk_Level,5yr_Return
Alpha,High,9.5
Beta,high,12.0
Gamma,High,
Delta,Medium,6.1
Epsilon,Medium-High,8.0
Zeta,Low,3.0
`

func TestParseAndTopPicksExactMatch(t *testing.T) {
	catalog, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 6, catalog.Len())

	picks, err := catalog.TopPicks("  HIGH ", 3)
	require.NoError(t, err)
	require.Len(t, picks, 3)
	assert.Equal(t, "Beta", picks[0].Name)
	assert.Equal(t, "Alpha", picks[1].Name)
	assert.Equal(t, "Gamma", picks[2].Name)
	assert.Nil(t, picks[2].FiveYearReturn)
}

func TestTopPicksRelaxedMatch(t *testing.T) {
	catalog, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	picks, err := catalog.TopPicks("medium-h", 3)
	require.NoError(t, err)
	require.Len(t, picks, 1)
	assert.Equal(t, "Epsilon", picks[0].Name)
}

func TestTopPicksNoMatch(t *testing.T) {
	catalog, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	_, err = catalog.TopPicks("aggressive", 3)
	assert.True(t, errors.Is(err, ErrNoMatches))

	_, err = catalog.TopPicks("   ", 3)
	assert.True(t, errors.Is(err, ErrNoMatches))
}

func TestParseMissingRiskColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("Investment_Name,5yr_Return\nA,1\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestParseInvalidReturn(t *testing.T) {
	_, err := Parse(strings.NewReader("Investment_Name,Risk_Level,5yr_Return\nA,Low,abc\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestSummary(t *testing.T) {
	catalog, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	summary := catalog.Summary("Low")
	assert.Equal(t, "Based on a Low risk profile, top picks are:\n- Zeta (3.0% 5yr)", summary)

	assert.True(t, strings.HasPrefix(catalog.Summary("none"), "Couldn't find CSV recommendations:"))
}

func TestFormatReturn(t *testing.T) {
	assert.Equal(t, "7.0", formatReturn(7))
	assert.Equal(t, "13.2", formatReturn(13.2))
	assert.Equal(t, "-4.0", formatReturn(-4))
	assert.Equal(t, "0.25", formatReturn(0.25))
}

func TestDefaultCatalogLoads(t *testing.T) {
	catalog, err := LoadFile("")
	require.NoError(t, err)
	assert.Greater(t, catalog.Len(), 0)

	picks, err := catalog.TopPicks("Medium", DefaultPicks)
	require.NoError(t, err)
	assert.Len(t, picks, DefaultPicks)
}
