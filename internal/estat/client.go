// Package estat fetches classification data from the e-Stat portal: the code
// list download and the per-class example pages.
package estat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/estat-master/estat-master/internal/jsic"
	"github.com/estat-master/estat-master/internal/version"
	"github.com/estat-master/estat-master/pkg/pipeline/core"
)

// DefaultBaseURL is the public e-Stat portal.
const DefaultBaseURL = "https://www.e-stat.go.jp"

// Supported values of Config.Charset.
const (
	CharsetUTF8     = "UTF-8"
	CharsetShiftJIS = "Shift_JIS"
)

// MasterFetcher downloads the long-format code list of one classification
// revision. An empty revision means the latest one.
type MasterFetcher interface {
	FetchMaster(ctx context.Context, classificationType, revision string) ([]jsic.RawRow, error)
}

// ExampleFetcher fetches the example page of one class code.
type ExampleFetcher interface {
	FetchExample(ctx context.Context, code, revision string) (jsic.ExampleRecord, error)
}

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL        string
	Charset        string
	MasterTimeout  time.Duration
	ExampleTimeout time.Duration
	Revisions      Revisions

	// HTTPClient is used as-is when set.
	HTTPClient *http.Client
}

// Client talks to e-Stat (or a compatible mock).
type Client struct {
	base           *url.URL
	charset        string
	masterTimeout  time.Duration
	exampleTimeout time.Duration
	revisions      Revisions
	http           *http.Client
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := parseBaseURL(raw)
	if err != nil {
		return nil, err
	}

	charset := strings.TrimSpace(cfg.Charset)
	switch {
	case charset == "":
		charset = CharsetUTF8
	case strings.EqualFold(charset, CharsetUTF8):
		charset = CharsetUTF8
	case strings.EqualFold(charset, CharsetShiftJIS), strings.EqualFold(charset, "SJIS"):
		charset = CharsetShiftJIS
	default:
		return nil, fmt.Errorf("unsupported charset %q (want %s or %s)", cfg.Charset, CharsetUTF8, CharsetShiftJIS)
	}

	c := &Client{
		base:           base,
		charset:        charset,
		masterTimeout:  cfg.MasterTimeout,
		exampleTimeout: cfg.ExampleTimeout,
		revisions:      cfg.Revisions,
		http:           cfg.HTTPClient,
	}
	if c.masterTimeout <= 0 {
		c.masterTimeout = 60 * time.Second
	}
	if c.exampleTimeout <= 0 {
		c.exampleTimeout = 30 * time.Second
	}
	if c.revisions == nil {
		c.revisions = DefaultRevisions()
	}
	if c.http == nil {
		c.http = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	return c, nil
}

// BaseURL returns the normalized base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Revisions returns the revision table the client resolves against.
func (c *Client) Revisions() Revisions {
	return c.revisions
}

// ResolveRevision returns rev unchanged, or the latest known revision when
// rev is empty.
func (c *Client) ResolveRevision(rev string) (string, error) {
	rev = strings.TrimSpace(rev)
	if rev != "" {
		return rev, nil
	}
	latest, ok := c.revisions.Latest()
	if !ok {
		return "", &SourceError{Op: "resolveRevision", Err: errors.New("revision table is empty")}
	}
	return latest, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse e-stat base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("e-stat base URL must include a host (got %q)", raw)
	}
	// Trailing slash so ResolveReference treats the base path as a directory.
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func (c *Client) resolve(p string, q url.Values) *url.URL {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimLeft(p, "/")})
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u
}

// get performs one GET and returns the body of a 2xx response. Failures are
// wrapped in a SourceError; retryable ones additionally carry a
// core.TransientError.
func (c *Client) get(ctx context.Context, op string, u *url.URL, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &SourceError{Op: op, Err: err}
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &SourceError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SourceError{Op: op, Err: err}
	}
	if resp.StatusCode/100 != 2 {
		herr := newHTTPError(op, resp, b)
		if herr.Retryable() {
			return nil, &SourceError{Op: op, Err: &core.TransientError{Err: herr}}
		}
		return nil, &SourceError{Op: op, Err: herr}
	}
	return b, nil
}

// SourceError is a failed fetch. It matches core.ErrSourceUnavailable and
// the underlying cause with errors.Is / errors.As.
type SourceError struct {
	Op  string
	Err error
}

func (e *SourceError) Error() string {
	if e == nil || e.Err == nil {
		return core.ErrSourceUnavailable.Error()
	}
	return fmt.Sprintf("%s: op=%s: %v", core.ErrSourceUnavailable, e.Op, e.Err)
}

func (e *SourceError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{core.ErrSourceUnavailable}
	}
	return []error{core.ErrSourceUnavailable, e.Err}
}
