package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	pkgerrors "github.com/angelmondragon/yardops-backend/pkg/errors"
)

const (
	defaultHost           = "https://api.sendgrid.com"
	mailSendEndpoint      = "/v3/mail/send"
	responseBodyLogLimit  = 1024
	defaultRequestTimeout = 10 * time.Second
)

var (
	errAPIKeyRequired = errors.New("sendgrid api key is required")
	errFromRequired   = errors.New("sendgrid sender address is required")
)

// Client sends transactional email through the SendGrid v3 mail API.
type Client struct {
	rest        *rest.Client
	host        string
	apiKey      string
	defaultFrom string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client requests go through.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.rest = &rest.Client{HTTPClient: client}
		}
	}
}

// WithHost overrides the API host, e.g. for a sandbox relay.
func WithHost(host string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(host), "/")
		if trimmed != "" {
			c.host = trimmed
		}
	}
}

// NewClient builds a SendGrid client for the given key and default sender.
func NewClient(apiKey, defaultFrom string, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}
	from := strings.TrimSpace(defaultFrom)
	if from == "" {
		return nil, errFromRequired
	}

	client := &Client{
		apiKey:      key,
		defaultFrom: from,
		host:        defaultHost,
		rest:        &rest.Client{HTTPClient: &http.Client{Timeout: defaultRequestTimeout}},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Message is a single-recipient email.
type Message struct {
	To       string
	From     string
	Subject  string
	TextBody string
	HTMLBody string
}

func (c *Client) build(msg Message) (*mail.SGMailV3, error) {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject is required")
	}
	if msg.TextBody == "" && msg.HTMLBody == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}
	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = c.defaultFrom
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", from))
	m.Subject = msg.Subject
	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", to))
	m.AddPersonalizations(p)
	if msg.TextBody != "" {
		m.AddContent(mail.NewContent("text/plain", msg.TextBody))
	}
	if msg.HTMLBody != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTMLBody))
	}
	return m, nil
}

// Send posts the message to /v3/mail/send. SendGrid answers 202 once the
// message is queued for delivery.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "sendgrid client not configured")
	}
	m, err := c.build(msg)
	if err != nil {
		return err
	}

	request := sg.GetRequest(c.apiKey, mailSendEndpoint, c.host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(m)

	resp, err := c.rest.SendWithContext(ctx, request)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeCollaborator, err, "execute mail send request")
	}
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		body := strings.TrimSpace(resp.Body)
		if len(body) > responseBodyLogLimit {
			body = body[:responseBodyLogLimit]
		}
		return pkgerrors.Wrap(pkgerrors.CodeCollaborator, fmt.Errorf("status %d: %s", resp.StatusCode, body), "mail send request failed")
	}
	return nil
}
