package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gocolly/colly/v2"
)

// DefaultFetchTimeout bounds every remote request when no override is set.
const DefaultFetchTimeout = 10 * time.Second

// FetchConfig controls the remote HTTP client.
type FetchConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// Client performs single bounded GETs against the remote notice site using
// a Colly collector.
type Client struct {
	cfg           FetchConfig
	baseCollector *colly.Collector
}

// NewClient builds a Client with connection pooling shared across fetches.
func NewClient(cfg FetchConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// Clones share the visited-URL store. The index URL is refetched every
	// cycle and failed detail URLs are retried on later cycles, so revisits
	// must stay allowed.
	c.AllowURLRevisit = true
	c.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: cfg.Timeout,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	})
	return &Client{cfg: cfg, baseCollector: c}
}

// Get issues one HTTP GET and returns the response body. Timeouts map to
// ErrFetchTimeout, non-2xx statuses to HTTPStatusError.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	collector := c.baseCollector.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)

	var (
		body       []byte
		statusCode int
		fetchErr   error
	)
	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch %s canceled: %w", rawURL, ctx.Err())
	case err := <-done:
		if err == nil {
			err = fetchErr
		}
		if err != nil {
			if isTimeout(err) {
				return nil, fmt.Errorf("fetch %s: %w", rawURL, ErrFetchTimeout)
			}
			if statusCode != 0 && (statusCode < 200 || statusCode >= 300) {
				return nil, &HTTPStatusError{URL: rawURL, Status: statusCode}
			}
			return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
		}
		return body, nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
