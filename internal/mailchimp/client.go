package mailchimp

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/studentorg/newsletter-service/internal/models"
	"github.com/studentorg/newsletter-service/internal/validation"
)

// Config holds the audience credentials. All three values are required to
// issue requests; New accepts a partial Config so the service can boot
// without them, and Subscribe fails with ErrNotConfigured instead.
type Config struct {
	APIKey       string
	ServerPrefix string
	AudienceID   string
}

// Client talks to the Mailchimp marketing API for a single audience.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests to point the
// client at a local server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the given audience.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" && cfg.ServerPrefix != "" {
		c.baseURL = fmt.Sprintf("https://%s.api.mailchimp.com/3.0", cfg.ServerPrefix)
	}
	return c
}

// SubscriberHash returns the stable per-address member key: the lowercase
// hex MD5 digest of the trimmed, lowercased email. MD5 is what the API
// keys members by; collision resistance is not a requirement here, only a
// deterministic key so repeat calls address the same member.
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(validation.Normalize(email)))
	return fmt.Sprintf("%x", sum)
}

// apiErrorBody is the JSON problem document the API returns on failure.
type apiErrorBody struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

// Subscribe upserts a member into the audience.
//
// The request is a PUT keyed by the subscriber hash, so it is idempotent:
// a new member is created with status "subscribed" (single opt-in), while
// an existing member only has profile fields updated — status_if_new never
// flips an unsubscribed or cleaned member back to subscribed.
//
// Failures are returned as *APIError with the upstream title classified
// into a Code; missing configuration returns ErrNotConfigured.
func (c *Client) Subscribe(ctx context.Context, sub models.Subscription) error {
	if c.cfg.APIKey == "" || c.cfg.ServerPrefix == "" || c.cfg.AudienceID == "" {
		return ErrNotConfigured
	}

	email := validation.Normalize(sub.Email)
	url := fmt.Sprintf("%s/lists/%s/members/%s", c.baseURL, c.cfg.AudienceID, SubscriberHash(email))

	body := map[string]any{
		"email_address": email,
		"status_if_new": "subscribed",
	}
	mergeFields := map[string]string{}
	if sub.FirstName != "" {
		mergeFields["FNAME"] = sub.FirstName
	}
	if sub.LastName != "" {
		mergeFields["LNAME"] = sub.LastName
	}
	if len(mergeFields) > 0 {
		body["merge_fields"] = mergeFields
	}
	if sub.Source != "" {
		body["tags"] = []string{sub.Source}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal member: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Basic auth with an arbitrary username; only the key matters.
	cred := base64.StdEncoding.EncodeToString([]byte("anystring:" + c.cfg.APIKey))
	req.Header.Set("Authorization", "Basic "+cred)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailchimp request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Tolerate an unparsable error body; the status code alone still
	// identifies a failure.
	var errBody apiErrorBody
	_ = json.NewDecoder(resp.Body).Decode(&errBody)
	if errBody.Title == "" {
		errBody.Title = "Unknown Error"
	}
	if errBody.Status == 0 {
		errBody.Status = resp.StatusCode
	}

	return &APIError{
		Code:   codeForTitle(errBody.Title),
		Status: errBody.Status,
		Title:  errBody.Title,
		Detail: errBody.Detail,
	}
}
