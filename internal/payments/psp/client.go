package psp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"expopass/internal/shared/apperrors"
	"expopass/pkg/metrics"

	"github.com/shopspring/decimal"
)

// Client is an HTTP Gateway implementation. Transport failures and 5xx
// responses surface as UpstreamUnavailable so callers can retry; 4xx
// responses are terminal and returned verbatim.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) GetPayment(ctx context.Context, externalRef string) (*PaymentDetail, error) {
	start := time.Now()
	defer func() { metrics.TrackPSPCall("get_payment", time.Since(start)) }()

	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, externalRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build PSP request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("psp get payment %s: %v: %w", externalRef, err, apperrors.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("psp get payment %s: %w", externalRef, err)
	}

	var detail PaymentDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("failed to decode PSP payment response: %w", err)
	}
	return &detail, nil
}

func (c *Client) RequestRefund(ctx context.Context, externalRef string, amount decimal.Decimal, reason string) (*RefundResult, error) {
	start := time.Now()
	defer func() { metrics.TrackPSPCall("request_refund", time.Since(start)) }()

	body, err := json.Marshal(map[string]interface{}{
		"amount": amount,
		"reason": reason,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refund request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/payments/%s/refunds", c.baseURL, externalRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build PSP request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("psp refund %s: %v: %w", externalRef, err, apperrors.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("psp refund %s: %w", externalRef, err)
	}

	var result RefundResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode PSP refund response: %w", err)
	}
	return &result, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 500 {
		return fmt.Errorf("status %d: %s: %w", resp.StatusCode, payload, apperrors.ErrUpstreamUnavailable)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("status %d: %s: %w", resp.StatusCode, payload, apperrors.ErrNotFound)
	}
	return fmt.Errorf("psp rejected request: status %d: %s", resp.StatusCode, payload)
}
