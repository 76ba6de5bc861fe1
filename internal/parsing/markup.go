package parsing

import (
	"regexp"
	"strings"
)

var (
	brTagRe       = regexp.MustCompile(`(?i)<br\s*/?>`)
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	mdImageRe     = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLinkTextRe  = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdCodeRe      = regexp.MustCompile("`([^`]+)`")
	mdBoldRe      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	mdItalicRe    = regexp.MustCompile(`\*([^*]+)\*`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	badgeLinkRe   = regexp.MustCompile(`\[\s*!\[[^\]]*\]\([^)]+\)\s*\]\((https?://[^)\s]+)\)`)
	hrefRe        = regexp.MustCompile(`href="([^"]+)"`)
	mdLinkURLRe   = regexp.MustCompile(`\[[^\]]+\]\((https?://[^)\s]+)\)`)
	angleURLRe    = regexp.MustCompile(`<\s*(https?://[^>\s]+)\s*>`)
	bareURLRe     = regexp.MustCompile(`https?://[^\s)<>"']+`)
	trailingPunct = regexp.MustCompile(`[),.;]+$`)
	imageExtRe    = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|svg)(\?|$)`)
	imageHostRe   = regexp.MustCompile(`(?i)img\.shields\.io|camo\.githubusercontent\.com`)
)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&NBSP;", " ",
	"&amp;", "&",
	"&AMP;", "&",
	"&quot;", `"`,
	"&QUOT;", `"`,
	"&#39;", "'",
)

// StripMarkup removes HTML tags, entities and markdown decoration from a
// table cell, keeping link text and collapsing whitespace.
func StripMarkup(value string) string {
	if value == "" {
		return ""
	}
	text := brTagRe.ReplaceAllString(value, " ")
	text = entityReplacer.Replace(text)
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = mdImageRe.ReplaceAllString(text, " ")
	text = mdLinkTextRe.ReplaceAllString(text, "$1")
	text = mdCodeRe.ReplaceAllString(text, "$1")
	text = mdBoldRe.ReplaceAllString(text, "$1")
	text = mdItalicRe.ReplaceAllString(text, "$1")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// ExtractLinks returns every http(s) link found in a cell, in priority order:
// badge-wrapped links, href attributes, markdown links, angle-bracket
// autolinks, then bare URLs. Trailing punctuation is trimmed and duplicates
// are removed.
func ExtractLinks(value string) []string {
	if value == "" {
		return nil
	}

	var links []string
	for _, m := range badgeLinkRe.FindAllStringSubmatch(value, -1) {
		links = append(links, m[1])
	}
	for _, m := range hrefRe.FindAllStringSubmatch(value, -1) {
		links = append(links, m[1])
	}
	withoutImages := mdImageRe.ReplaceAllString(value, "")
	for _, m := range mdLinkURLRe.FindAllStringSubmatch(withoutImages, -1) {
		links = append(links, m[1])
	}
	for _, m := range angleURLRe.FindAllStringSubmatch(value, -1) {
		links = append(links, m[1])
	}
	links = append(links, bareURLRe.FindAllString(value, -1)...)

	seen := make(map[string]bool, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		link = trailingPunct.ReplaceAllString(link, "")
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, link)
	}
	return out
}

// PickJobURL returns the first link in value that is not an image or badge.
func PickJobURL(value string) (string, bool) {
	for _, link := range ExtractLinks(value) {
		if !isLikelyImageURL(link) {
			return link, true
		}
	}
	return "", false
}

func isLikelyImageURL(url string) bool {
	return imageExtRe.MatchString(url) || imageHostRe.MatchString(url)
}
