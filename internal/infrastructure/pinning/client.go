package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	domainerrors "subpay-indexer.backend/internal/domain/errors"
)

// Client talks to the content-addressed pinning service backing the
// Metadata Resolver: GET fetches a blob by CID, Put pins new metadata
// and returns the CID the service assigned.
type Client struct {
	gatewayBaseURL string
	pinAPIKey      string
	http           *retryablehttp.Client
}

// NewClient builds a pinning client. gatewayBaseURL serves GET {base}/{cid}
// reads; pinAPIKey authenticates POSTs to Pinata's pinFileToIPFS endpoint.
func NewClient(gatewayBaseURL, pinAPIKey string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil

	return &Client{
		gatewayBaseURL: gatewayBaseURL,
		pinAPIKey:      pinAPIKey,
		http:           rc,
	}
}

// Get fetches the raw bytes stored under cid. A non-200 response is
// reported as a transient metadata error so the caller can decide
// whether the blob was mandatory.
func (c *Client) Get(ctx context.Context, cid string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.gatewayBaseURL, cid), nil)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientMetadata)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientMetadata)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.NewAppError(resp.StatusCode, "", "pinning gateway returned non-200", domainerrors.ErrTransientMetadata)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientMetadata)
	}
	return body, nil
}

type pinFileResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// Pin uploads a blob to Pinata's pinFileToIPFS endpoint and returns the
// CID it was assigned. Used by the Query Interface's store-metadata
// endpoint on a cache miss.
func (c *Client) Pin(ctx context.Context, filename string, content []byte) (string, error) {
	var body bytes.Buffer
	boundary := "subpay-indexer-boundary"
	fmt.Fprintf(&body, "--%s\r\nContent-Disposition: form-data; name=\"file\"; filename=\"%s\"\r\nContent-Type: application/octet-stream\r\n\r\n", boundary, filename)
	body.Write(content)
	fmt.Fprintf(&body, "\r\n--%s--\r\n", boundary)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.pinata.cloud/pinning/pinFileToIPFS", body.Bytes())
	if err != nil {
		return "", domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientMetadata)
	}
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	req.Header.Set("Authorization", "Bearer "+c.pinAPIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientMetadata)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domainerrors.NewAppError(resp.StatusCode, "", "pinning service rejected upload", domainerrors.ErrTransientMetadata)
	}

	var parsed pinFileResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientMetadata)
	}
	return parsed.IpfsHash, nil
}
