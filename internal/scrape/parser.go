package scrape

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const initialDataMarker = "ytInitialData"

// Parse extracts recommendation items from a rendered page. The target embeds
// its data as a JSON blob assigned to ytInitialData inside a script tag; the
// surrounding markup is just a shell. The blob's shape shifts between page
// kinds and experiments, so extraction walks it generically looking for video
// renderer objects instead of decoding a fixed schema. Item URLs are built
// under baseURL (no trailing slash).
func Parse(body []byte, baseURL string) ([]RecommendationItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page markup: %w", err)
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if !strings.Contains(text, initialDataMarker) {
			return true
		}
		if extracted, ok := extractJSON(text); ok {
			raw = extracted
			return false
		}
		return true
	})
	if raw == "" {
		return nil, fmt.Errorf("no %s blob in page", initialDataMarker)
	}

	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode %s blob: %w", initialDataMarker, err)
	}

	seen := make(map[string]bool)
	var items []RecommendationItem
	collect(data, baseURL, seen, &items)
	return items, nil
}

// extractJSON pulls the object literal assigned to ytInitialData out of the
// script text by brace counting; the assignment ends with a semicolon but the
// blob itself can contain anything.
func extractJSON(script string) (string, bool) {
	idx := strings.Index(script, initialDataMarker)
	if idx < 0 {
		return "", false
	}
	start := strings.Index(script[idx:], "{")
	if start < 0 {
		return "", false
	}
	start += idx

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(script); i++ {
		c := script[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return script[start : i+1], true
			}
		}
	}
	return "", false
}

// renderer keys that wrap a single video entry across the page kinds.
var videoRendererKeys = []string{
	"videoRenderer",
	"compactVideoRenderer",
	"gridVideoRenderer",
	"playlistVideoRenderer",
}

func collect(node any, baseURL string, seen map[string]bool, out *[]RecommendationItem) {
	switch v := node.(type) {
	case map[string]any:
		for _, key := range videoRendererKeys {
			if rendered, ok := v[key].(map[string]any); ok {
				if item, ok := parseRenderer(rendered, baseURL); ok && !seen[item.VideoID] {
					seen[item.VideoID] = true
					*out = append(*out, item)
				}
			}
		}
		for _, child := range v {
			collect(child, baseURL, seen, out)
		}
	case []any:
		for _, child := range v {
			collect(child, baseURL, seen, out)
		}
	}
}

func parseRenderer(r map[string]any, baseURL string) (RecommendationItem, bool) {
	videoID, _ := r["videoId"].(string)
	if videoID == "" {
		return RecommendationItem{}, false
	}
	item := RecommendationItem{
		VideoID: videoID,
		Title:   text(r["title"]),
		Channel: firstText(r, "longBylineText", "shortBylineText", "ownerText"),
		URL:     baseURL + "/watch?v=" + videoID,
	}
	if thumbs, ok := dig(r, "thumbnail", "thumbnails").([]any); ok && len(thumbs) > 0 {
		if last, ok := thumbs[len(thumbs)-1].(map[string]any); ok {
			item.Thumbnail, _ = last["url"].(string)
		}
	}
	return item, true
}

// text resolves the two label shapes the blob uses: {"simpleText": "..."} and
// {"runs": [{"text": "..."}]}.
func text(node any) string {
	m, ok := node.(map[string]any)
	if !ok {
		return ""
	}
	if s, ok := m["simpleText"].(string); ok {
		return s
	}
	if runs, ok := m["runs"].([]any); ok {
		var parts []string
		for _, run := range runs {
			if rm, ok := run.(map[string]any); ok {
				if s, ok := rm["text"].(string); ok {
					parts = append(parts, s)
				}
			}
		}
		return strings.Join(parts, "")
	}
	return ""
}

func firstText(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := text(m[key]); s != "" {
			return s
		}
	}
	return ""
}

func dig(m map[string]any, keys ...string) any {
	var node any = m
	for _, key := range keys {
		current, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = current[key]
	}
	return node
}
