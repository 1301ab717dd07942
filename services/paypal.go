package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"mpoint-server/utils"
)

// PayPalClient talks to the PayPal REST API: client-credentials OAuth plus
// order capture. Calls are synchronous with a request timeout and no retry.
type PayPalClient struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

// NewPayPalClient reads credentials from the environment. PAYPAL_BASE_URL
// defaults to the sandbox.
func NewPayPalClient() *PayPalClient {
	baseURL := os.Getenv("PAYPAL_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api-m.sandbox.paypal.com"
	}
	return &PayPalClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   os.Getenv("PAYPAL_CLIENT_ID"),
		secret:     os.Getenv("PAYPAL_CLIENT_SECRET"),
	}
}

type payPalTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// CaptureResult is the subset of the capture response the platform uses.
type CaptureResult struct {
	ID     string `json:"id"`
	Status string `json:"status"` // COMPLETED when the payment went through
}

// getAccessToken fetches a client-credentials token from the OAuth endpoint.
func (c *PayPalClient) getAccessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: paypal token request: %v", utils.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: paypal token endpoint returned %d: %s", utils.ErrUpstream, resp.StatusCode, string(body))
	}

	var tokenRes payPalTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenRes); err != nil {
		return "", fmt.Errorf("%w: decoding paypal token response: %v", utils.ErrUpstream, err)
	}
	return tokenRes.AccessToken, nil
}

// CaptureOrder captures an approved PayPal order and returns its status.
func (c *PayPalClient) CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: missing PayPal order id", utils.ErrValidation)
	}

	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v2/checkout/orders/%s/capture", c.baseURL, url.PathEscape(orderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader("{}"))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: paypal capture request: %v", utils.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading paypal capture response: %v", utils.ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: paypal capture returned %d: %s", utils.ErrUpstream, resp.StatusCode, string(body))
	}

	var result CaptureResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decoding paypal capture response: %v", utils.ErrUpstream, err)
	}
	return &result, nil
}
