// Package fetch implements window.PageFetcher over the HTTP collection
// endpoint served by internal/httpapi.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"sqwerl/internal/window"
	"sqwerl/pkg/types"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "sqwerl",
		Subsystem: "fetch",
		Name:      "requests_total",
		Help:      "Page requests sent to the collection endpoint by status code",
	},
	[]string{"code"},
)

func init() {
	prometheus.MustRegister(requestsTotal)
}

// Config configures a Client.
type Config struct {
	// BaseURL of the collection server, e.g. http://localhost:8080.
	BaseURL string
	// Timeout bounds each page request (default 10s).
	Timeout time.Duration
	// HTTPClient defaults to a client with Timeout.
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client fetches collection pages over HTTP.
type Client struct {
	base    *url.URL
	timeout time.Duration
	http    *http.Client
	log     zerolog.Logger
}

var _ window.PageFetcher = (*Client)(nil)

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("empty base url")
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	c := &Client{base: u, timeout: cfg.Timeout, http: cfg.HTTPClient}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if cfg.Logger != nil {
		c.log = cfg.Logger.With().Str("component", "fetch").Logger()
	} else {
		c.log = zerolog.Nop()
	}
	return c, nil
}

// PageURL builds the request URL for req.
func (c *Client) PageURL(req window.PageRequest) string {
	u := *c.base
	u.Path = c.base.Path + "/things/" + req.Handle.ThingID
	u.RawPath = c.base.EscapedPath() + "/things/" + url.PathEscape(req.Handle.ThingID)
	q := url.Values{}
	q.Set("property", req.Handle.Property)
	q.Set("offset", strconv.Itoa(req.Offset))
	q.Set("limit", strconv.Itoa(req.Limit))
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage requests one window and decodes the named collection property.
func (c *Client) FetchPage(ctx context.Context, req window.PageRequest) (window.Page, error) {
	if req.Offset < 0 || req.Limit <= 0 {
		return window.Page{}, fmt.Errorf("invalid page request offset=%d limit=%d", req.Offset, req.Limit)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	target := c.PageURL(req)
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return window.Page{}, err
	}
	hreq.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(hreq)
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		return window.Page{}, fmt.Errorf("get %s: %w", target, err)
	}
	defer resp.Body.Close()
	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return window.Page{}, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return window.Page{}, newStatusError(resp.StatusCode, body)
	}
	page, err := DecodePage(body, req.Handle.Property)
	if err != nil {
		return window.Page{}, err
	}
	c.log.Debug().Str("url", target).Int("members", len(page.Items)).Int("total", page.TotalCount).Msg("page fetched")
	return page, nil
}

// DecodePage extracts {members, offset, totalCount} from the named property
// of a thing document. Unrelated properties are ignored. Missing fields
// yield a malformed page error.
func DecodePage(body []byte, property string) (window.Page, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return window.Page{}, window.ErrMalformedPage("decode document: %v", err)
	}
	raw, ok := doc[property]
	if !ok {
		return window.Page{}, window.ErrMalformedPage("missing property %q", property)
	}
	var wire struct {
		Members    *[]types.Item `json:"members"`
		Offset     *int          `json:"offset"`
		TotalCount *int          `json:"totalCount"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return window.Page{}, window.ErrMalformedPage("decode %s: %v", property, err)
	}
	switch {
	case wire.Members == nil:
		return window.Page{}, window.ErrMalformedPage("missing members")
	case wire.Offset == nil:
		return window.Page{}, window.ErrMalformedPage("missing offset")
	case wire.TotalCount == nil:
		return window.Page{}, window.ErrMalformedPage("missing totalCount")
	}
	return window.Page{Items: *wire.Members, Offset: *wire.Offset, TotalCount: *wire.TotalCount}, nil
}

// statusError reports a non-2xx response.
type statusError struct {
	code int
	msg  string
}

func newStatusError(code int, body []byte) error {
	var er types.ErrorResponse
	msg := http.StatusText(code)
	if json.Unmarshal(body, &er) == nil && er.Error != "" {
		msg = er.Error
	}
	return statusError{code: code, msg: msg}
}

func (e statusError) Error() string { return fmt.Sprintf("status %d: %s", e.code, e.msg) }

// StatusCode is the HTTP status of the failed response.
func (e statusError) StatusCode() int { return e.code }

// IsStatus reports whether err is a non-2xx response error and returns its code.
func IsStatus(err error) (int, bool) {
	var e statusError
	if errors.As(err, &e) {
		return e.code, true
	}
	return 0, false
}
