package extract

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(seq func(func(Candidate) bool)) []float64 {
	var out []float64
	for c := range seq {
		out = append(out, c.Value)
	}
	return out
}

func TestPositionPatterns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []float64
	}{
		{"dollar prefix", "$95,000.00", []float64{95000}},
		{"dollar suffix", "95,000.00 $", []float64{95000}},
		{"suffix without space", "1234.56$", []float64{1234.56}},
		{"plain digits", "$2500", []float64{2500}},
		{"no dollar", "95,000.00", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := values(Scan([]string{tt.text}, PositionPatterns, ThousandsComma, nil))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRatePatterns(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		pattern string
		want    float64
	}{
		{"dollar inside", "ETH ($2,314.00)", "paren-dollar-amount", 2314},
		{"dollar after", "ETH (2,314.00 $)", "paren-amount-dollar", 2314},
		{"bare", "ETH (2314)", "paren-amount", 2314},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := First(Scan([]string{tt.text}, RatePatterns, ThousandsComma, nil))
			require.True(t, ok)
			assert.Equal(t, tt.pattern, c.Pattern)
			assert.InDelta(t, tt.want, c.Value, 1e-9)
		})
	}
}

func TestScan_OrderIsUnitThenPatternThenMatch(t *testing.T) {
	units := []string{
		"(3000) ($2000)",
		"($2500)",
	}

	got := values(Scan(units, RatePatterns, ThousandsComma, nil))

	// Unit 0: dollar pattern first (2000), then bare pattern (3000); unit 1 last.
	assert.Equal(t, []float64{2000, 3000, 2500}, got)
}

func TestScan_SkipsMalformedAndRejected(t *testing.T) {
	units := []string{"$500", "$1,500", "$ not a number", "$3,000"}

	got := values(Scan(units, PositionPatterns, ThousandsComma, Above(DefaultAmountFloor)))

	assert.Equal(t, []float64{1500, 3000}, got)
}

func TestScan_RecordsUnitAndRaw(t *testing.T) {
	c, ok := First(Scan([]string{"nothing", "total $1,234.50"}, PositionPatterns, ThousandsComma, nil))
	require.True(t, ok)
	assert.Equal(t, 1, c.Unit)
	assert.Equal(t, "1,234.50", c.Raw)
	assert.Equal(t, "dollar-amount", c.Pattern)
}

func TestScan_StopsEarly(t *testing.T) {
	var normalized []string
	counting := NormalizerFunc(func(raw string) (float64, error) {
		normalized = append(normalized, raw)
		return ThousandsComma.Normalize(raw)
	})

	_, ok := First(Scan([]string{"$1", "$2", "$3"}, PositionPatterns, counting, nil))
	require.True(t, ok)
	assert.Equal(t, []string{"1"}, normalized)
}

func TestMax(t *testing.T) {
	seq := Scan([]string{"$1,500 $3,000 $2,000"}, PositionPatterns, ThousandsComma, nil)

	c, ok := Max(seq)
	require.True(t, ok)
	assert.InDelta(t, 3000, c.Value, 1e-9)

	_, ok = Max(Scan(nil, PositionPatterns, ThousandsComma, nil))
	assert.False(t, ok)
}

func TestDollarFragments(t *testing.T) {
	got := DollarFragments([]string{"a", "$1", "b", "2 $"})
	assert.True(t, slices.Equal([]string{"$1", "2 $"}, got))
}
