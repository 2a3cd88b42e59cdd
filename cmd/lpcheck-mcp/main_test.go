package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/lpcheck/models"
)

func TestFetchReport_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/positions/unichain/59044/report", r.URL.Path)
		assert.Equal(t, "2100", r.URL.Query().Get("rate_min"))
		assert.Equal(t, "k1", r.Header.Get("X-API-Key"))

		_ = json.NewEncoder(w).Encode(models.ReportResponse{
			Success: true,
			URL:     "https://app.uniswap.org/positions/v3/unichain/59044",
			Report: &models.Report{
				PositionUSD: 95000, PositionRung: "max-dollar-amount",
				ETHRate: 2500, RateSource: "markup-parenthesized",
				ETHInitial: 38.1, CurrentETHValue: 95250, PositionInETH: 38,
				USDDelta: -250, ETHDelta: -0.1,
			},
			Timing: models.TimingInfo{RenderMs: 10500, ExtractMs: 2},
		})
	}))
	defer srv.Close()

	resp, err := fetchReport(context.Background(), srv.Client(), srv.URL+"/", "k1", "unichain", "59044",
		url.Values{"rate_min": {"2100"}})
	require.NoError(t, err)
	require.True(t, resp.Success)

	out := formatReport(resp)
	assert.Contains(t, out, "Position value: $95000.00 (max-dollar-amount)")
	assert.Contains(t, out, "Position shows a loss: $250.00")
	assert.Contains(t, out, "ETH holdings shrank by 0.1000 ETH")
	assert.NotContains(t, out, "cache")
}

func TestFetchReport_ErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(models.ReportResponse{
			Error: &models.ErrorDetail{
				Code:    models.ErrCodeRateUnresolved,
				Message: "no plausible ETH rate",
				Hints:   []string{models.HintRange},
			},
		})
	}))
	defer srv.Close()

	resp, err := fetchReport(context.Background(), srv.Client(), srv.URL, "k1", "unichain", "1", nil)
	require.NoError(t, err)
	assert.False(t, resp.Success)

	msg := formatFailure(resp.Error)
	assert.Contains(t, msg, "[RATE_UNRESOLVED] no plausible ETH rate")
	assert.Contains(t, msg, "1. "+models.HintRange)
}

func TestFetchReport_NonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := fetchReport(context.Background(), srv.Client(), srv.URL, "k1", "unichain", "1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestFetchReport_MissingDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	resp, err := fetchReport(context.Background(), srv.Client(), srv.URL, "k1", "unichain", "1", nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "HTTP 401", resp.Error.Message)
}

func TestFormatFailure_Nil(t *testing.T) {
	assert.Equal(t, "report failed", formatFailure(nil))
}
