package quote_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/use-agent/lpcheck/quote"
	"go.uber.org/mock/gomock"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestPrice(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: the request targets the simple-price endpoint for the asset
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "http://quotes.test/api/v3/simple/price", req.URL.Scheme+"://"+req.URL.Host+req.URL.Path)
			require.Equal(t, "ethereum", req.URL.Query().Get("ids"))
			require.Equal(t, "usd", req.URL.Query().Get("vs_currencies"))
			require.Equal(t, "demo-key", req.Header.Get("x-cg-demo-api-key"))

			_, hasDeadline := req.Context().Deadline()
			require.True(t, hasDeadline, "expected the request to carry a timeout")

			return jsonResponse(http.StatusOK, `{"ethereum":{"usd":2500.12}}`), nil
		}).
		Times(1)

	// Arrange: create a client with the mock
	client := quote.New(
		quote.WithBaseURL("http://quotes.test/api/v3"),
		quote.WithAPIKey("demo-key"),
		quote.WithHTTPClient(httpClient),
	)

	// Act
	price, ok := client.Price(t.Context())

	// Assert
	require.True(t, ok)
	require.InDelta(t, 2500.12, price, 1e-9)
}

func TestPrice_Absent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  *http.Response
		err  error
	}{
		{name: "transport error", err: errors.New("dial tcp: no route to host")},
		{name: "rate limited", res: jsonResponse(http.StatusTooManyRequests, `{}`)},
		{name: "unauthorized", res: jsonResponse(http.StatusUnauthorized, `{}`)},
		{name: "server error", res: jsonResponse(http.StatusBadGateway, `bad gateway`)},
		{name: "malformed body", res: jsonResponse(http.StatusOK, `{"ethereum":`)},
		{name: "missing asset", res: jsonResponse(http.StatusOK, `{"bitcoin":{"usd":60000}}`)},
		{name: "missing currency", res: jsonResponse(http.StatusOK, `{"ethereum":{"eur":2300}}`)},
		{name: "zero price", res: jsonResponse(http.StatusOK, `{"ethereum":{"usd":0}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)
			httpClient.EXPECT().Do(gomock.Any()).Return(tt.res, tt.err).Times(1)

			client := quote.New(quote.WithHTTPClient(httpClient))

			// Act
			price, ok := client.Price(t.Context())

			// Assert
			require.False(t, ok)
			require.Zero(t, price)
		})
	}
}

func TestFetchPrice_Timeout(t *testing.T) {
	t.Parallel()

	// Arrange: a client that blocks until the request context ends
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		}).
		Times(1)

	client := quote.New(quote.WithHTTPClient(httpClient), quote.WithTimeout(20*time.Millisecond))

	// Act
	_, err := client.FetchPrice(context.Background())

	// Assert
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithAssetAndHeader(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "weth", req.URL.Query().Get("ids"))
			require.Equal(t, "lpcheck", req.Header.Get("User-Agent"))
			return jsonResponse(http.StatusOK, `{"weth":{"usd":2499.5}}`), nil
		}).
		Times(1)

	client := quote.New(
		quote.WithHTTPClient(httpClient),
		quote.WithAsset("weth"),
		quote.WithHeader(http.Header{"User-Agent": []string{"lpcheck"}}),
	)

	price, err := client.FetchPrice(t.Context())
	require.NoError(t, err)
	require.InDelta(t, 2499.5, price, 1e-9)
}
