package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/lpcheck/models"
)

func TestKey(t *testing.T) {
	base := Key("https://app.uniswap.org/positions/v3/unichain/59044", 2000, 2500, 38.1)

	assert.Equal(t, base, Key("https://app.uniswap.org/positions/v3/unichain/59044", 2000, 2500, 38.1))
	assert.NotEqual(t, base, Key("https://app.uniswap.org/positions/v3/unichain/59045", 2000, 2500, 38.1))
	assert.NotEqual(t, base, Key("https://app.uniswap.org/positions/v3/unichain/59044", 2000, 2600, 38.1))
	assert.NotEqual(t, base, Key("https://app.uniswap.org/positions/v3/unichain/59044", 2000, 2500, 40))
}

func TestGetSet(t *testing.T) {
	c := New(10)
	defer c.Close()

	resp := &models.ReportResponse{Success: true, URL: "u"}
	c.Set("k", resp)

	got, ok := c.Get("k", 60_000)
	require.True(t, ok)
	assert.Same(t, resp, got)

	_, ok = c.Get("k", 0)
	assert.False(t, ok, "max age 0 disables lookups")

	_, ok = c.Get("missing", 60_000)
	assert.False(t, ok)
}

func TestGet_Expired(t *testing.T) {
	c := New(10)
	defer c.Close()

	c.Set("k", &models.ReportResponse{})
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k", 1)
	assert.False(t, ok)
}

func TestSet_Evicts(t *testing.T) {
	c := New(2)
	defer c.Close()

	c.Set("a", &models.ReportResponse{})
	c.Set("b", &models.ReportResponse{})
	c.Set("b", &models.ReportResponse{})
	assert.Equal(t, 2, c.Len(), "overwriting a key does not evict")

	c.Set("c", &models.ReportResponse{})
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c", 60_000)
	assert.True(t, ok)
}

func TestEvictOlderThan(t *testing.T) {
	c := New(10)
	defer c.Close()

	c.Set("old", &models.ReportResponse{})
	c.evictOlderThan(time.Now().Add(time.Second))
	assert.Zero(t, c.Len())
}
