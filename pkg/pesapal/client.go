package pesapal

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

	"github.com/sethvargo/go-retry"

	"github.com/sokohub/sokohub-backend/pkg/config"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/metrics"
)

const (
	authPath              = "/api/Auth/RequestToken"
	registerIPNPath       = "/api/URLSetup/RegisterIPN"
	submitOrderPath       = "/api/Transactions/SubmitOrderRequest"
	transactionStatusPath = "/api/Transactions/GetTransactionStatus"

	// Tokens live for 5 minutes server-side; refresh a little early.
	tokenExpirySkew = 30 * time.Second

	sandboxBaseURL    = "https://cybqa.pesapal.com/pesapalv3"
	productionBaseURL = "https://pay.pesapal.com/v3"
)

var (
	errConsumerKeyRequired    = errors.New("pesapal consumer key is required")
	errConsumerSecretRequired = errors.New("pesapal consumer secret is required")
	errLoggerRequired         = errors.New("pesapal logger is required")
)

// Client exposes Pesapal v3 primitives with centralized auth, logging, and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cfg        config.PesapalConfig
	logger     *logger.Logger
	metrics    *metrics.OrderMetrics

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient initializes the Pesapal wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PesapalConfig, logg *logger.Logger, m *metrics.OrderMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.ConsumerKey) == "" {
		return nil, errConsumerKeyRequired
	}
	if strings.TrimSpace(cfg.ConsumerSecret) == "" {
		return nil, errConsumerSecretRequired
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// The environment flag picks the gateway host; an explicit BaseURL
	// (tests, proxies) wins.
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = sandboxBaseURL
		if cfg.IsLive() {
			baseURL = productionBaseURL
		}
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		cfg:        cfg,
		logger:     logg,
		metrics:    m,
	}

	logg.Info(ctx, "pesapal client initialized")
	return c, nil
}

// Environment reports the normalized Pesapal environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.cfg.Environment()
}

// Authenticate fetches a bearer token, reusing the cached one while valid.
// Transport failures are retried with exponential backoff; credential
// rejections are surfaced immediately without retry.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpirySkew)) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	maxAttempts := c.cfg.AuthMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoffBase := c.cfg.AuthBackoffBase
	if backoffBase <= 0 {
		backoffBase = time.Second
	}

	backoff := retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewExponential(backoffBase))

	var resp authResponse
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		reqErr := c.postJSON(ctx, authPath, "", authRequest{
			ConsumerKey:    c.cfg.ConsumerKey,
			ConsumerSecret: c.cfg.ConsumerSecret,
		}, &resp)
		if reqErr == nil {
			return nil
		}
		if typed := pkgerrors.As(reqErr); typed != nil && typed.Code() == pkgerrors.CodeGatewayTransport {
			return retry.RetryableError(reqErr)
		}
		return reqErr
	})
	if err != nil {
		c.observe("authenticate", "error")
		return "", err
	}

	if !resp.Error.isZero() || strings.TrimSpace(resp.Token) == "" {
		c.observe("authenticate", "rejected")
		return "", pkgerrors.New(pkgerrors.CodeGatewayAuth, "pesapal rejected credentials").
			WithDetails(resp.Error.text())
	}

	expiry, parseErr := time.Parse(time.RFC3339, resp.ExpiryDate)
	if parseErr != nil {
		expiry = time.Now().Add(5 * time.Minute)
	}

	c.mu.Lock()
	c.token = resp.Token
	c.tokenExpiry = expiry
	c.mu.Unlock()

	c.observe("authenticate", "ok")
	return resp.Token, nil
}

// InvalidateToken drops the cached bearer token so the next call re-authenticates.
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// RegisterIPN registers the callback URL that receives payment notifications.
func (c *Client) RegisterIPN(ctx context.Context, params RegisterIPNParams) (*IPNRegistration, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var resp IPNRegistration
	if err := c.postJSON(ctx, registerIPNPath, token, params, &resp); err != nil {
		c.observe("register_ipn", "error")
		return nil, err
	}
	if !resp.Error.isZero() {
		c.observe("register_ipn", "rejected")
		return nil, pkgerrors.New(pkgerrors.CodeGatewayBusiness, "pesapal rejected ipn registration").
			WithDetails(resp.Error.text())
	}

	c.observe("register_ipn", "ok")
	ctx = c.logger.WithFields(ctx, map[string]any{"ipn_id": resp.ID})
	c.logger.Info(ctx, "pesapal ipn registered")
	return &resp, nil
}

// SubmitOrder creates a hosted checkout session for the given order.
func (c *Client) SubmitOrder(ctx context.Context, params SubmitOrderParams) (*OrderSubmission, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	var resp OrderSubmission
	if err := c.postJSON(ctx, submitOrderPath, token, params, &resp); err != nil {
		c.observe("submit_order", "error")
		return nil, err
	}
	c.metrics.ObserveGatewayLatency("submit_order", time.Since(started))

	if !resp.Error.isZero() || strings.TrimSpace(resp.RedirectURL) == "" {
		c.observe("submit_order", "rejected")
		return nil, pkgerrors.New(pkgerrors.CodeGatewayBusiness, "pesapal rejected order submission").
			WithDetails(resp.Error.text())
	}

	c.observe("submit_order", "ok")
	ctx = c.logger.WithFields(ctx, map[string]any{
		"merchant_reference": resp.MerchantReference,
		"tracking_id":        resp.OrderTrackingID,
	})
	c.logger.Info(ctx, "pesapal order submitted")
	return &resp, nil
}

// GetTransactionStatus fetches the gateway's view of one payment attempt.
func (c *Client) GetTransactionStatus(ctx context.Context, orderTrackingID string) (*TransactionStatus, error) {
	if strings.TrimSpace(orderTrackingID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order tracking id is required")
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{"orderTrackingId": {orderTrackingID}}
	started := time.Now()
	var resp TransactionStatus
	if err := c.getJSON(ctx, transactionStatusPath+"?"+query.Encode(), token, &resp); err != nil {
		c.observe("transaction_status", "error")
		return nil, err
	}
	c.metrics.ObserveGatewayLatency("transaction_status", time.Since(started))

	if !resp.Error.isZero() {
		c.observe("transaction_status", "rejected")
		return nil, pkgerrors.New(pkgerrors.CodeGatewayBusiness, "pesapal rejected status lookup").
			WithDetails(resp.Error.text())
	}

	c.observe("transaction_status", "ok")
	return &resp, nil
}

func (c *Client) postJSON(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding pesapal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building pesapal request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, token, out)
}

func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building pesapal request")
	}
	return c.do(req, token, out)
}

func (c *Client) do(req *http.Request, token string, out any) error {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGatewayTransport, err, "pesapal request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGatewayTransport, err, "reading pesapal response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeGatewayAuth, "pesapal rejected credentials")
	case resp.StatusCode >= 500:
		return pkgerrors.New(pkgerrors.CodeGatewayTransport,
			fmt.Sprintf("pesapal returned status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return pkgerrors.New(pkgerrors.CodeGatewayBusiness,
			fmt.Sprintf("pesapal returned status %d", resp.StatusCode)).
			WithDetails(strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGatewayTransport, err, "decoding pesapal response")
	}
	return nil
}

func (c *Client) observe(operation, result string) {
	c.metrics.IncGatewayRequest(operation, result)
}
