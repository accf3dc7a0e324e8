package price

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	domainerrors "subpay-indexer.backend/internal/domain/errors"
)

// Client queries a price venue's average-price endpoint for the Price
// Oracle's native-coin-to-token conversion (token units per native coin).
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

// NewClient builds a price venue client.
func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.Logger = nil

	return &Client{baseURL: baseURL, http: rc}
}

type avgPriceResponse struct {
	Price string `json:"price"`
}

// AvgPrice queries GET {base}/api/v3/avgPrice?symbol={symbol} and returns
// its price field as a float.
func (c *Client) AvgPrice(ctx context.Context, symbol string) (float64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/avgPrice", nil)
	if err != nil {
		return 0, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientRPC)
	}
	q := req.URL.Query()
	q.Set("symbol", symbol)
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientRPC)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, domainerrors.NewAppError(resp.StatusCode, "", "price venue returned non-200", domainerrors.ErrUnsupportedToken)
	}

	var parsed avgPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrUnsupportedToken)
	}

	price, err := strconv.ParseFloat(parsed.Price, 64)
	if err != nil {
		return 0, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrUnsupportedToken)
	}
	return price, nil
}
