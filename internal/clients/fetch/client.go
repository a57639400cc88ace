// Package fetch is the resilient HTTP retrieval layer: rotated browser
// headers, retry with exponential backoff, bot-challenge detection and an
// ordered list of transport strategies with a per-run fallback preference.
package fetch

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	ErrBotChallenge = errors.New("bot challenge detected")
	ErrAllFailed    = errors.New("all transports failed")
)

// challengeMarkers are substrings of known anti-automation interstitials,
// matched against the lowercased body prefix.
var challengeMarkers = []string{
	"just a moment",
	"attention required",
	"cf-browser-verification",
	"cf-chl",
	"challenge-platform",
	"px-captcha",
	"_pxhd",
	"datadome",
	"geo.captcha-delivery.com",
	"distil_r_captcha",
	"verifica que eres humano",
}

// minPlausibleBodySize: a real listing page is never this small; anything
// under it is treated as an interstitial even without a known marker.
const minPlausibleBodySize = 1024

const challengeScanWindow = 8192

type Options struct {
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

func DefaultOptions() Options {
	return Options{
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		BaseDelay:  2 * time.Second,
	}
}

// Client is request-scoped and stateless apart from the shared rate limiter;
// run-scoped state (transport preference) lives in Session.
type Client struct {
	transports  []Transport
	opts        Options
	rateLimiter *rate.Limiter
	sleep       func(time.Duration)
}

func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.BaseDelay == 0 {
		opts.BaseDelay = DefaultOptions().BaseDelay
	}
	return &Client{
		transports: []Transport{
			newHTTPTransport(opts.Timeout),
			newCollyTransport(opts.Timeout),
		},
		opts:  opts,
		sleep: time.Sleep,
	}
}

// SetTransports replaces the strategy list; tests inject fakes here.
func (c *Client) SetTransports(transports ...Transport) {
	c.transports = transports
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (c *Client) fetch(ctx context.Context, pageURL string, preferred string) (html string, via string, err error) {

	ordered := c.orderedTransports(preferred)

	for i, transport := range ordered {
		attempts := c.opts.MaxRetries + 1
		if i > 0 {
			// fallback strategies get a single shot
			attempts = 1
		}

		body, err := c.fetchWithRetries(ctx, transport, pageURL, attempts)
		if err == nil {
			return string(body), transport.Name(), nil
		}

		if errors.Is(err, ErrBotChallenge) {
			log.Warnf("bot challenge via %v transport for %v", transport.Name(), pageURL)
		} else {
			log.Warnf("%v transport failed for %v: %v", transport.Name(), pageURL, err)
		}
	}

	return "", "", errors.Wrapf(ErrAllFailed, "url %v", pageURL)
}

func (c *Client) fetchWithRetries(ctx context.Context, transport Transport, pageURL string, attempts int) ([]byte, error) {

	delay := c.opts.BaseDelay
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {

		if attempt > 0 {
			c.sleep(delay)
			delay *= 2
		}

		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		status, body, err := transport.Get(ctx, pageURL, browserHeaders(randomUserAgent()))
		if err != nil {
			lastErr = err
			continue
		}
		if status != http.StatusOK {
			lastErr = errors.Errorf("request failed with status %v", status)
			continue
		}

		// A challenge page is served instead of content; retrying the same
		// transport only burns requests against the same block.
		if isBotChallenge(body) {
			return nil, ErrBotChallenge
		}

		return body, nil
	}

	return nil, lastErr
}

func (c *Client) orderedTransports(preferred string) []Transport {
	if preferred == "" {
		return c.transports
	}
	ordered := make([]Transport, 0, len(c.transports))
	for _, t := range c.transports {
		if t.Name() == preferred {
			ordered = append(ordered, t)
		}
	}
	for _, t := range c.transports {
		if t.Name() != preferred {
			ordered = append(ordered, t)
		}
	}
	return ordered
}

func isBotChallenge(body []byte) bool {
	if len(body) < minPlausibleBodySize {
		return true
	}
	window := body
	if len(window) > challengeScanWindow {
		window = window[:challengeScanWindow]
	}
	prefix := strings.ToLower(string(window))
	for _, marker := range challengeMarkers {
		if strings.Contains(prefix, marker) {
			return true
		}
	}
	return false
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	return u.Host
}
