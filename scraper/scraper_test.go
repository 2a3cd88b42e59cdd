package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/lpcheck/models"
	"github.com/ysmood/gson"
)

func TestIsTrackerDomain(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"google-analytics.com", true},
		{"www.google-analytics.com", true},
		{"o4504.ingest.sentry.io", true},
		{"API.AMPLITUDE.COM", true},
		{"app.uniswap.org", false},
		{"interface.gateway.uniswap.org", false},
		{"notsentry.io", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, isTrackerDomain(tt.host))
		})
	}
}

func TestBlockedSet(t *testing.T) {
	set := blockedSet([]string{"Image", "Font", "Script", "Bogus"})

	assert.Len(t, set, 2)
	assert.Contains(t, set, proto.NetworkResourceTypeImage)
	assert.Contains(t, set, proto.NetworkResourceTypeFont)
	assert.NotContains(t, set, proto.NetworkResourceTypeScript, "scripts must load for figures to render")
}

func TestDecodeFragments(t *testing.T) {
	v := gson.New([]any{"$95,000.00", "", "(2,500 $)", nil, "Fees"})

	assert.Equal(t, []string{"$95,000.00", "(2,500 $)", "Fees"}, decodeFragments(v))
}

func TestSleepCtx(t *testing.T) {
	require.NoError(t, sleepCtx(context.Background(), 0))
	require.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sleepCtx(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"deadline", fmt.Errorf("navigate: %w", context.DeadlineExceeded), models.ErrCodeTimeout},
		{"canceled", context.Canceled, models.ErrCodeTimeout},
		{"other", errors.New("net::ERR_NAME_NOT_RESOLVED"), models.ErrCodeNavigation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := categorizeError(tt.err, "navigation failed")
			assert.Equal(t, tt.code, se.Code)
			assert.ErrorIs(t, se, tt.err)
		})
	}
}

func TestStats(t *testing.T) {
	s := &Scraper{maxPages: 1}
	s.activePages.Add(1)

	assert.Equal(t, models.PoolStats{MaxPages: 1, ActivePages: 1}, s.Stats())
}

func TestRenderFlags(t *testing.T) {
	assert.Contains(t, renderFlags, flags.Flag("disable-background-timer-throttling"))
	assert.Contains(t, renderFlags, flags.Flag("disable-renderer-backgrounding"))
}
