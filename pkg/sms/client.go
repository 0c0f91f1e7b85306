package sms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sokohub/sokohub-backend/pkg/config"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
)

var (
	errAPIKeyRequired   = errors.New("sms api key is required")
	errUsernameRequired = errors.New("sms username is required")
	errLoggerRequired   = errors.New("sms logger is required")
)

// Message is one outbound text message.
type Message struct {
	To   string
	Body string
}

// Sender delivers text messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client posts messages to the Africa's Talking messaging API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	username   string
	senderID   string
	logger     *logger.Logger
}

// New validates the SMS configuration and returns a message sender.
func New(cfg config.SMSConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errAPIKeyRequired
	}
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, errUsernameRequired
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		username:   cfg.Username,
		senderID:   cfg.SenderID,
		logger:     logg,
	}, nil
}

// Send delivers one text message.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient phone number is required")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}

	form := url.Values{
		"username": {c.username},
		"to":       {msg.To},
		"message":  {msg.Body},
	}
	if c.senderID != "" {
		form.Set("from", c.senderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building sms request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending sms")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("sms gateway returned status %d", resp.StatusCode))
	}

	c.logger.Info(ctx, "sms dispatched")
	return nil
}
