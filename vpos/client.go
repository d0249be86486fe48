package vpos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultHTTPTimeout = 15 * time.Second

// GatewayClient posts a JSON body to a gateway endpoint and returns the decoded JSON
// answer. An empty answer is returned as an empty object.
type GatewayClient interface {
	PostJSON(ctx context.Context, url string, body any) (json.RawMessage, error)
}

// HTTPClient is the default GatewayClient over net/http.
type HTTPClient struct {
	httpClient *http.Client
	log        *zap.Logger
}

// NewHTTPClient builds a gateway client. A nil http.Client gets a 15s timeout.
func NewHTTPClient(httpClient *http.Client, log *zap.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPClient{httpClient: httpClient, log: log}
}

var emptyObject = json.RawMessage(`{}`)

func (c *HTTPClient) PostJSON(ctx context.Context, url string, body any) (json.RawMessage, error) {
	log := c.log.With(zap.String("url", url))

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("failed to marshal gateway request", zap.Error(err))
		return nil, fmt.Errorf("%w: marshal request: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		log.Error("failed creating gateway request", zap.Error(err))
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("gateway request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read gateway response body", zap.Error(err))
		return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	bodyBytes = bytes.TrimSpace(bodyBytes)

	if len(bodyBytes) == 0 {
		if success {
			return emptyObject, nil
		}
		log.Error("gateway returned non-success status without body", zap.Int("http_status", resp.StatusCode))
		return nil, fmt.Errorf("%w: http status %d", ErrTransport, resp.StatusCode)
	}

	// JSON bodies on 4xx answers carry the gateway's error messages.
	if !json.Valid(bodyBytes) {
		log.Error("gateway returned a non-JSON body",
			zap.Int("http_status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("%w: http status %d: non-JSON body", ErrTransport, resp.StatusCode)
	}

	log.Debug("gateway answered", zap.Int("http_status", resp.StatusCode))
	return json.RawMessage(bodyBytes), nil
}
