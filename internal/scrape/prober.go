package scrape

import (
	"context"
	"fmt"
	"net/http"

	"recproxy/internal/credential"
)

// CookieProber validates uploaded cookies by fetching the target's root page
// with them. A redirect means the target bounced the session to a consent or
// login interstitial, which marks the cookies invalid. Any other non-2xx is
// inconclusive: the probe failed, not necessarily the cookies.
type CookieProber struct {
	nav      Navigator
	probeURL string
}

func NewCookieProber(nav Navigator, probeURL string) *CookieProber {
	return &CookieProber{nav: nav, probeURL: probeURL}
}

func (p *CookieProber) Probe(ctx context.Context, cookies []credential.Cookie) (bool, error) {
	status, _, err := p.nav.Fetch(ctx, p.probeURL, cookies, nil)
	if err != nil {
		return false, err
	}
	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return true, nil
	case status >= http.StatusMultipleChoices && status < http.StatusBadRequest:
		return false, nil
	default:
		return false, fmt.Errorf("probe returned status %d", status)
	}
}
