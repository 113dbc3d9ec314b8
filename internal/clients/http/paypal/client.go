package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// VerificationSuccess is the verification_status PayPal returns for an authentic webhook.
const VerificationSuccess = "SUCCESS"

// Client calls the PayPal REST API with client-credential tokens.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client
	now          func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// VerifyRequest carries the transmission headers and raw event of one webhook.
type VerifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Detail  string `json:"error_description"`
}

// NewClient builds a client. A nil httpClient gets a traced client with a short timeout.
func NewClient(baseURL, clientID, clientSecret string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("paypal base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse paypal base URL: %w", err)
	}
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" {
		return nil, errors.New("paypal client credentials are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         httpClient,
		now:          time.Now,
	}, nil
}

// VerifyWebhookSignature asks PayPal whether the transmission is authentic and
// returns the verification status it reported.
func (c *Client) VerifyWebhookSignature(ctx context.Context, req VerifyRequest) (string, error) {
	if c == nil || c.http == nil {
		return "", errors.New("paypal client not configured")
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode verification request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/notifications/verify-webhook-signature", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	var out verifyResponse
	if err := c.do(httpReq, &out); err != nil {
		if errors.Is(err, errUnauthorized) {
			c.resetToken()
		}
		return "", fmt.Errorf("call paypal verification API: %w", err)
	}
	return strings.ToUpper(strings.TrimSpace(out.VerificationStatus)), nil
}

var errUnauthorized = errors.New("paypal rejected the access token")

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out tokenResponse
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("obtain paypal access token: %w", err)
	}
	if out.AccessToken == "" {
		return "", errors.New("paypal returned an empty access token")
	}
	// Refresh a minute early so a token never expires mid-request.
	ttl := time.Duration(out.ExpiresIn)*time.Second - time.Minute
	if ttl < 0 {
		ttl = 0
	}
	c.token = out.AccessToken
	c.tokenExpiry = c.now().Add(ttl)
	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read paypal response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", errUnauthorized, errorMessage(body, resp.Status))
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("paypal API error: %s", errorMessage(body, resp.Status))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode paypal response: %w", err)
	}
	return nil
}

func errorMessage(body []byte, fallback string) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return fallback
	}
	for _, msg := range []string{e.Message, e.Detail, e.Name, e.Error} {
		if msg = strings.TrimSpace(msg); msg != "" {
			return fallback + ": " + msg
		}
	}
	return fallback
}
