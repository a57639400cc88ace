package fetch

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

// Session scopes transport preference to one alert run. When a fallback
// transport succeeds for a host, the rest of the run prefers it for that
// host; the preference dies with the session, so long-lived clients shared
// across logically independent runs never leak it.
type Session struct {
	client    *Client
	preferred *gocache.Cache
}

func (c *Client) NewSession() *Session {
	return &Session{
		client:    c,
		preferred: gocache.New(gocache.NoExpiration, gocache.NoExpiration),
	}
}

// Fetch retrieves a page as HTML. All failure modes resolve to an empty
// string plus an error describing the last failure; callers treat any error
// as "this page is unavailable" and move on.
func (s *Session) Fetch(ctx context.Context, pageURL string) (string, error) {

	host := hostOf(pageURL)

	var preferred string
	if value, found := s.preferred.Get(host); found {
		preferred = value.(string)
	}

	html, via, err := s.client.fetch(ctx, pageURL, preferred)
	if err != nil {
		return "", err
	}

	if via != preferred && via != s.client.transports[0].Name() {
		log.Infof("preferring %v transport for %v for the rest of this run", via, host)
		s.preferred.SetDefault(host, via)
	}
	return html, nil
}
