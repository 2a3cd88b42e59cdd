package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/lpcheck/models"
)

func main() {
	apiURL := os.Getenv("LPCHECK_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("LPCHECK_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "LPCHECK_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"lpcheck",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	reportTool := mcp.NewTool("position_report",
		mcp.WithDescription("Render a Uniswap v3 liquidity position page and compare its current dollar value with simply holding the ETH originally deposited. Rendering takes several seconds because the page fills in its figures with JavaScript."),
		mcp.WithString("chain",
			mcp.Required(),
			mcp.Description("Network segment of the position URL, e.g. 'unichain', 'base', 'ethereum'"),
		),
		mcp.WithString("position_id",
			mcp.Required(),
			mcp.Description("Numeric position token id"),
		),
		mcp.WithNumber("rate_min",
			mcp.Description("Lower bound of the plausible ETH/USD rate (default: server configuration)"),
		),
		mcp.WithNumber("rate_max",
			mcp.Description("Upper bound of the plausible ETH/USD rate (default: server configuration)"),
		),
		mcp.WithNumber("eth_initial",
			mcp.Description("ETH originally deposited into the position (default: server configuration)"),
		),
	)
	s.AddTool(reportTool, handlePositionReport(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handlePositionReport(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		chain, err := request.RequireString("chain")
		if err != nil {
			return mcp.NewToolResultError("chain is required"), nil
		}
		id, err := request.RequireString("position_id")
		if err != nil {
			return mcp.NewToolResultError("position_id is required"), nil
		}

		query := url.Values{}
		for _, name := range []string{"rate_min", "rate_max", "eth_initial"} {
			if v := request.GetFloat(name, 0); v > 0 {
				query.Set(name, strconv.FormatFloat(v, 'f', -1, 64))
			}
		}

		resp, err := fetchReport(ctx, client, apiURL, apiKey, chain, id, query)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(formatFailure(resp.Error)), nil
		}
		return mcp.NewToolResultText(formatReport(resp)), nil
	}
}

// fetchReport calls the report endpoint. Non-2xx responses still decode into
// a ReportResponse carrying the error detail.
func fetchReport(ctx context.Context, client *http.Client, apiURL, apiKey, chain, id string, query url.Values) (*models.ReportResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/positions/%s/%s/report",
		strings.TrimRight(apiURL, "/"), url.PathEscape(chain), url.PathEscape(id))
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", apiKey)

	httpResp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp models.ReportResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse response (HTTP %d): %w", httpResp.StatusCode, err)
	}
	if !resp.Success && resp.Error == nil {
		resp.Error = &models.ErrorDetail{
			Code:    models.ErrCodeInternal,
			Message: fmt.Sprintf("HTTP %d", httpResp.StatusCode),
		}
	}
	return &resp, nil
}

func formatReport(resp *models.ReportResponse) string {
	r := resp.Report
	var sb strings.Builder
	fmt.Fprintf(&sb, "Position: %s\n\n", resp.URL)
	fmt.Fprintf(&sb, "Position value: $%.2f (%s)\n", r.PositionUSD, r.PositionRung)
	fmt.Fprintf(&sb, "ETH rate: $%.2f (%s)\n", r.ETHRate, r.RateSource)
	fmt.Fprintf(&sb, "Holding %.4f ETH would be worth: $%.2f\n", r.ETHInitial, r.CurrentETHValue)
	fmt.Fprintf(&sb, "Position in ETH: %.4f\n\n", r.PositionInETH)

	if r.USDDelta >= 0 {
		fmt.Fprintf(&sb, "Position shows a profit: $%.2f\n", r.USDDelta)
	} else {
		fmt.Fprintf(&sb, "Position shows a loss: $%.2f\n", -r.USDDelta)
	}
	if r.ETHDelta > 0 {
		fmt.Fprintf(&sb, "ETH holdings grew by %.4f ETH\n", r.ETHDelta)
	} else {
		fmt.Fprintf(&sb, "ETH holdings shrank by %.4f ETH\n", -r.ETHDelta)
	}

	fmt.Fprintf(&sb, "\n---\nrender %dms, extract %dms", resp.Timing.RenderMs, resp.Timing.ExtractMs)
	if resp.CacheStatus != "" {
		fmt.Fprintf(&sb, ", cache %s", resp.CacheStatus)
	}
	return sb.String()
}

func formatFailure(detail *models.ErrorDetail) string {
	if detail == nil {
		return "report failed"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", detail.Code, detail.Message)
	if len(detail.Hints) > 0 {
		sb.WriteString("\nPossible causes:")
		for i, h := range detail.Hints {
			fmt.Fprintf(&sb, "\n  %d. %s", i+1, h)
		}
	}
	return sb.String()
}
