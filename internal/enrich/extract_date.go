package enrich

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

const (
	maxPastAge    = 400 * 24 * time.Hour
	maxFutureSkew = 7 * 24 * time.Hour
)

var (
	epochAttrRe     = regexp.MustCompile(`^\d{10,13}$`)
	rawDatePostedRe = regexp.MustCompile(`(?i)"datePosted"\s*:\s*"([^"]+)"`)
)

// jsonLDDateFields are read from a JobPosting node in this order.
var jsonLDDateFields = []string{"datePosted", "datePublished", "dateCreated", "postedDate", "publicationDate"}

// metaDateNames are <meta> name/property values that carry a publish date.
var metaDateNames = map[string]bool{
	"article:published_time": true,
	"og:published_time":      true,
	"date":                   true,
	"dc.date":                true,
	"dc.date.issued":         true,
	"pubdate":                true,
	"dateposted":             true,
	"date_published":         true,
}

// ExtractPostedDate looks for a posting date in an employer page. Sources are
// tried in order: JSON-LD JobPosting data, <meta> tags, then data-posted-at,
// <time datetime> and a raw "datePosted" fragment. Dates outside
// [now-400d, now+7d] are ignored.
func ExtractPostedDate(html string, now time.Time) *time.Time {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	d := dateExtractor{now: now}

	if t := d.fromJSONLD(doc); t != nil {
		return t
	}
	if t := d.fromMeta(doc); t != nil {
		return t
	}
	return d.fromAttributes(doc, html)
}

type dateExtractor struct {
	now time.Time
}

func (d dateExtractor) fromJSONLD(doc *goquery.Document) *time.Time {
	var found *time.Time
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		var node any
		if err := json.Unmarshal([]byte(raw), &node); err != nil {
			return true
		}
		found = d.findInJSONLD(node)
		return found == nil
	})
	return found
}

// findInJSONLD walks arrays and @graph containers looking for JobPosting nodes.
func (d dateExtractor) findInJSONLD(node any) *time.Time {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if t := d.findInJSONLD(item); t != nil {
				return t
			}
		}
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			if t := d.findInJSONLD(graph); t != nil {
				return t
			}
		}
		if !isJobPosting(v["@type"]) {
			return nil
		}
		for _, field := range jsonLDDateFields {
			if t := d.parseValue(v[field]); t != nil {
				return t
			}
		}
	}
	return nil
}

func isJobPosting(typeValue any) bool {
	var names []any
	switch v := typeValue.(type) {
	case string:
		names = []any{v}
	case []any:
		names = v
	}
	for _, n := range names {
		if s, ok := n.(string); ok && strings.Contains(strings.ToLower(s), "jobposting") {
			return true
		}
	}
	return false
}

func (d dateExtractor) fromMeta(doc *goquery.Document) *time.Time {
	var found *time.Time
	doc.Find("meta[content]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, ok := s.Attr("property")
		if !ok {
			name, _ = s.Attr("name")
		}
		if !metaDateNames[strings.ToLower(name)] {
			return true
		}
		content, _ := s.Attr("content")
		found = d.parseValue(content)
		return found == nil
	})
	return found
}

func (d dateExtractor) fromAttributes(doc *goquery.Document, html string) *time.Time {
	if val, ok := doc.Find("[data-posted-at]").First().Attr("data-posted-at"); ok && epochAttrRe.MatchString(val) {
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			if t := d.parseValue(n); t != nil {
				return t
			}
		}
	}

	if val, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if t := d.parseValue(val); t != nil {
			return t
		}
	}

	if m := rawDatePostedRe.FindStringSubmatch(html); m != nil {
		return d.parseValue(m[1])
	}
	return nil
}

// parseValue accepts epoch numbers (seconds, or milliseconds above 1e12)
// and date strings.
func (d dateExtractor) parseValue(value any) *time.Time {
	var t time.Time
	switch v := value.(type) {
	case float64:
		if v <= 0 {
			return nil
		}
		if v > 1e12 {
			t = time.UnixMilli(int64(v)).UTC()
		} else {
			t = time.Unix(int64(v), 0).UTC()
		}
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		parsed, err := dateparse.ParseIn(v, time.UTC)
		if err != nil {
			return nil
		}
		t = parsed
	default:
		return nil
	}

	if !d.plausible(t) {
		return nil
	}
	return &t
}

func (d dateExtractor) plausible(t time.Time) bool {
	return !t.Before(d.now.Add(-maxPastAge)) && !t.After(d.now.Add(maxFutureSkew))
}
