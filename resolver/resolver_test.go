package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/lpcheck/extract"
	"github.com/use-agent/lpcheck/models"
	"github.com/use-agent/lpcheck/report"
)

type fakeEngine struct {
	snap  *models.Snapshot
	err   error
	calls int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Render(_ context.Context, url string) (*models.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s := *f.snap
	s.URL = url
	return &s, nil
}

type fakeQuoter struct {
	price float64
	ok    bool
	calls int
}

func (f *fakeQuoter) Price(context.Context) (float64, bool) {
	f.calls++
	return f.price, f.ok
}

func newPipeline(t *testing.T) *extract.Pipeline {
	t.Helper()
	p, err := extract.New(extract.Options{RateRange: extract.Range{Min: 2000, Max: 3000}})
	require.NoError(t, err)
	return p
}

func TestResolve_FromPage(t *testing.T) {
	eng := &fakeEngine{snap: &models.Snapshot{
		Markup:    "<span>95\u202f000,00 $</span><span>(2\u202f500,00 $)</span>",
		Fragments: []string{"95\u202f000,00 $", "(2\u202f500,00 $)"},
		Engine:    "fake",
	}}
	q := &fakeQuoter{price: 9999, ok: true}

	v, err := New(eng, newPipeline(t), q).Resolve(t.Context(), "https://app.uniswap.org/positions/v3/unichain/59044")
	require.NoError(t, err)

	assert.InDelta(t, 95000, v.PositionUSD, 1e-9)
	assert.InDelta(t, 2500, v.Rate, 1e-9)
	assert.Equal(t, "max-dollar-amount", v.PositionRung)
	assert.Equal(t, "markup-parenthesized", v.RateSource)
	assert.Zero(t, q.calls, "quote service must not be asked when the page has a rate")

	r := report.Compare(v.PositionUSD, v.Rate, 38.1)
	assert.InDelta(t, 95250, r.CurrentETHValue, 1e-6)
	assert.InDelta(t, 38.0, r.PositionInETH, 1e-9)
}

func TestResolve_USFormattedPage(t *testing.T) {
	eng := &fakeEngine{snap: &models.Snapshot{
		Markup:    `<span>$95,000.00</span><span>(2,500 $)</span>`,
		Fragments: []string{"$95,000.00", "(2,500 $)"},
	}}
	q := &fakeQuoter{price: 9999, ok: true}

	v, err := New(eng, newPipeline(t), q).Resolve(t.Context(), "u")
	require.NoError(t, err)

	assert.InDelta(t, 95000, v.PositionUSD, 1e-9)
	assert.InDelta(t, 2500, v.Rate, 1e-9)
	assert.Equal(t, "first-fragment-us-format", v.PositionRung)
	assert.Equal(t, "markup-parenthesized-verbose", v.RateSource)
	assert.Zero(t, q.calls)
}

func TestResolve_QuoteFallback(t *testing.T) {
	eng := &fakeEngine{snap: &models.Snapshot{
		Markup:    `<span>$95,000.00</span>`,
		Fragments: []string{"$95,000.00"},
	}}
	q := &fakeQuoter{price: 2500, ok: true}

	v, err := New(eng, newPipeline(t), q).Resolve(t.Context(), "u")
	require.NoError(t, err)

	assert.Equal(t, 1, q.calls)
	assert.InDelta(t, 2500, v.Rate, 1e-9)
	assert.Equal(t, RateSourceQuote, v.RateSource)
}

func TestResolve_RateUnresolved(t *testing.T) {
	eng := &fakeEngine{snap: &models.Snapshot{Fragments: []string{"$95,000.00"}}}

	tests := []struct {
		name   string
		quoter Quoter
	}{
		{"quote absent", &fakeQuoter{}},
		{"quote disabled", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(eng, newPipeline(t), tt.quoter).Resolve(t.Context(), "u")

			var se *models.ScrapeError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, models.ErrCodeRateUnresolved, se.Code)
			assert.Contains(t, models.Hints(err), models.HintRange)
		})
	}
}

func TestResolve_PositionUnresolvedSkipsQuote(t *testing.T) {
	eng := &fakeEngine{snap: &models.Snapshot{
		Markup:    `<span>Fees $12.00</span><span>(2,500)</span>`,
		Fragments: []string{"Fees $12.00", "(2,500)"},
	}}
	q := &fakeQuoter{price: 2500, ok: true}

	_, err := New(eng, newPipeline(t), q).Resolve(t.Context(), "u")

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodePositionUnresolved, se.Code)
	assert.Zero(t, q.calls)
}

func TestResolve_RenderFailurePropagates(t *testing.T) {
	boom := models.NewScrapeError(models.ErrCodeTimeout, "navigation timed out", context.DeadlineExceeded)
	eng := &fakeEngine{err: boom}
	q := &fakeQuoter{price: 2500, ok: true}

	_, err := New(eng, newPipeline(t), q).Resolve(t.Context(), "u")

	assert.Same(t, boom, err)
	assert.Zero(t, q.calls)
}
