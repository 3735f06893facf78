// Package dtek fetches the outage status document from a DTEK regional
// shutdowns site.
//
// The site guards its AJAX endpoint with a session cookie and a CSRF token
// embedded in the shutdowns page. Each fetch loads the page first, extracts
// the token and then posts the address form to /ua/ajax.
package dtek

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/outage-notifier/internal/domain"
)

const (
	shutdownsPath = "/ua/shutdowns"
	ajaxPath      = "/ua/ajax"

	// updateFactLayout mirrors the browser's uk-UA locale string.
	updateFactLayout = "02.01.2006, 15:04:05"

	maxBodyBytes = 8 << 20
)

var (
	metaTagRe = regexp.MustCompile(`(?i)<meta[^>]+name=["']csrf-token["'][^>]*>`)
	contentRe = regexp.MustCompile(`(?i)content=["']([^"']+)["']`)
)

// ErrNoToken is returned when the shutdowns page carries no CSRF token.
var ErrNoToken = errors.New("dtek: csrf token not found")

// Client implements the pipeline's document fetcher.
type Client struct {
	baseURL    string
	city       string
	street     string
	httpClient *http.Client
	loc        *time.Location
	clock      clockwork.Clock
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the clock used for the updateFact form field.
func WithClock(c clockwork.Clock) Option {
	return func(cl *Client) {
		if c != nil {
			cl.clock = c
		}
	}
}

// WithLocation sets the zone used to format the updateFact form field.
func WithLocation(loc *time.Location) Option {
	return func(cl *Client) {
		if loc != nil {
			cl.loc = loc
		}
	}
}

// NewClient creates a DTEK client for one street.
func NewClient(baseURL, city, street string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		city:    city,
		street:  street,
		loc:     time.UTC,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = &http.Client{Timeout: timeout}
	return c
}

// Fetch retrieves and decodes the status document.
func (c *Client) Fetch(ctx context.Context) (*domain.RawDocument, error) {
	body, err := c.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ParseDocument(body)
}

// FetchRaw retrieves the status document without decoding it.
func (c *Client) FetchRaw(ctx context.Context) ([]byte, error) {
	// A fresh jar per fetch keeps expired sessions from leaking between cycles.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	hc := *c.httpClient
	hc.Jar = jar

	token, err := c.csrfToken(ctx, &hc)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"method":         {"getHomeNum"},
		"data[0][name]":  {"city"},
		"data[0][value]": {c.city},
		"data[1][name]":  {"street"},
		"data[1][value]": {c.street},
		"data[2][name]":  {"updateFact"},
		"data[2][value]": {c.clock.Now().In(c.loc).Format(updateFactLayout)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ajaxPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-CSRF-Token", token)
	req.Header.Set("Referer", c.baseURL+shutdownsPath)

	body, err := c.do(&hc, req, "status")
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched outage document", "bytes", len(body), "street", c.street)
	return body, nil
}

func (c *Client) csrfToken(ctx context.Context, hc *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+shutdownsPath, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	page, err := c.do(hc, req, "shutdowns page")
	if err != nil {
		return "", err
	}
	return extractToken(page)
}

func (c *Client) do(hc *http.Client, req *http.Request, what string) ([]byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", what, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", what, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dtek %s: status %d", what, resp.StatusCode)
	}
	return body, nil
}

func extractToken(page []byte) (string, error) {
	tag := metaTagRe.Find(page)
	if tag == nil {
		return "", ErrNoToken
	}
	m := contentRe.FindSubmatch(tag)
	if m == nil {
		return "", ErrNoToken
	}
	return string(m[1]), nil
}
