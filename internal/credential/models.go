// Package credential stores encrypted session material (cookies, headers) per
// owner, with a per-record reader ACL driven by the permission index.
package credential

import "sort"

// Kind selects which blob of an owner's store an operation addresses.
type Kind string

const (
	KindCookies Kind = "cookies"
	KindHeaders Kind = "headers"
)

// Cookie is a single session cookie as uploaded by a browser extension.
// Domain and Path are not trusted from the client; Normalize overwrites them.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// Normalize drops cookies without a name or value and forces domain and path
// to the configured target, so a stored blob can only ever be replayed against
// the scraping target regardless of what the client claimed.
func Normalize(cookies []Cookie, domain, path string) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" || c.Value == "" {
			continue
		}
		c.Domain = domain
		c.Path = path
		out = append(out, c)
	}
	return out
}

// Ack acknowledges a store operation. Values are never echoed back; only the
// names of what was accepted.
type Ack struct {
	OwnerID string   `json:"owner"`
	Kind    Kind     `json:"kind"`
	Names   []string `json:"names"`
}

// CookieNames returns the sorted cookie names for an Ack.
func CookieNames(cookies []Cookie) []string {
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// HeaderNames returns the sorted header names for an Ack.
func HeaderNames(headers map[string]string) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
