// Package scrape fetches and parses target pages through a brokered session,
// so one user's browsing rides on another user's recommendations.
package scrape

// RecommendationItem is one video extracted from a rendered page.
type RecommendationItem struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"title"`
	Channel   string `json:"channel,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	URL       string `json:"url"`
}

// Result is a parsed page. Owner is only populated when the session was not
// anonymous; anonymous owners are never revealed to the requester.
// RequestToken identifies this scrape for telemetry correlation and is echoed
// exactly as the session broker minted it.
type Result struct {
	Kind         string               `json:"kind"`
	Stage        string               `json:"stage"`
	Owner        string               `json:"owner,omitempty"`
	RequestToken string               `json:"request_token"`
	Items        []RecommendationItem `json:"items"`
}

const (
	KindHome    = "home"
	KindWatch   = "watch"
	KindResults = "results"
)
