package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	r := Compare(95000, 2500, 38.1)

	assert.InDelta(t, 95250, r.CurrentETHValue, 1e-6)
	assert.InDelta(t, 38.0, r.PositionInETH, 1e-9)
	assert.InDelta(t, -250, r.USDDelta, 1e-6)
	assert.InDelta(t, -0.1, r.ETHDelta, 1e-9)
	assert.False(t, r.Profit())
	assert.False(t, r.Growth())
}

func TestCompare_ProfitAndGrowth(t *testing.T) {
	r := Compare(100000, 2500, 38.1)

	assert.True(t, r.Profit())
	assert.True(t, r.Growth())
	assert.InDelta(t, 4750, r.USDDelta, 1e-6)
	assert.InDelta(t, 1.9, r.ETHDelta, 1e-9)
}

func TestModel(t *testing.T) {
	r := Compare(95000, 2500, 38.1)
	r.PositionRung = "max-dollar-amount"
	r.RateSource = "markup-parenthesized"

	m := r.Model()
	assert.Equal(t, "max-dollar-amount", m.PositionRung)
	assert.Equal(t, "markup-parenthesized", m.RateSource)
	assert.InDelta(t, r.USDDelta, m.USDDelta, 0)
}

func TestWrite(t *testing.T) {
	r := Compare(95000, 2500, 38.1)
	r.PositionRung = "max-dollar-amount"
	r.RateSource = "quote"

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "$95,000.00")
	assert.Contains(t, out, "$2,500.00 (quote)")
	assert.Contains(t, out, "$95,250.00")
	assert.Contains(t, out, "38.1 ETH")
	assert.Contains(t, out, "38.0000 ETH")
	assert.Contains(t, out, "Position shows a loss: $250.00")
	assert.Contains(t, out, "shows a decline: -0.1000 ETH")
}

type failingWriter struct{ n int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.n++
	return 0, errors.New("disk full")
}

func TestWrite_StopsOnError(t *testing.T) {
	w := &failingWriter{}
	err := Write(w, Compare(95000, 2500, 38.1))

	assert.EqualError(t, err, "disk full")
	assert.Equal(t, 1, w.n)
}
