package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/sokohub/sokohub-backend/pkg/config"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
)

var (
	errAPIKeyRequired = errors.New("sendgrid api key is required")
	errFromRequired   = errors.New("sendgrid from address is required")
	errLoggerRequired = errors.New("mailer logger is required")
)

// Message is one transactional email.
type Message struct {
	To      string
	Subject string
	Plain   string
	HTML    string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client wraps SendGrid delivery with logging and error mapping.
type Client struct {
	sg     *sendgrid.Client
	from   string
	logger *logger.Logger
}

// New validates the SendGrid configuration and returns a mail sender.
func New(cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errAPIKeyRequired
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, errFromRequired
	}
	return &Client{
		sg:     sendgrid.NewSendClient(cfg.APIKey),
		from:   cfg.DefaultFrom,
		logger: logg,
	}, nil
}

// Send delivers one email through SendGrid.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email is required")
	}

	from := mail.NewEmail("", c.from)
	to := mail.NewEmail("", msg.To)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Plain, msg.HTML)

	resp, err := c.sg.SendWithContext(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending email")
	}
	if resp.StatusCode >= 400 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("sendgrid returned status %d", resp.StatusCode))
	}

	ctx = c.logger.WithFields(ctx, map[string]any{"subject": msg.Subject})
	c.logger.Info(ctx, "email dispatched")
	return nil
}
