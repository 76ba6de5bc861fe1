package enrich

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/internship-radar/internal/fetch"
)

// noiseSelector lists blocks that never carry posting text.
const noiseSelector = "script, style, noscript, header, footer, nav, form, svg"

// blockSelector lists elements whose boundaries become line breaks.
const blockSelector = "p, div, li, h1, h2, h3, h4, h5, h6"

var horizontalSpaceRe = regexp.MustCompile(`[^\S\n]+`)

// ExtractDescription converts a posting page into plain text. Noise blocks
// are removed, block elements become line breaks and whitespace is
// collapsed. When pageURL belongs to a known hosting platform its
// description container is preferred over the whole body.
func ExtractDescription(html, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find(noiseSelector).Remove()
	doc.Find("br, hr").ReplaceWithHtml("\n")
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
		s.AppendHtml("\n")
	})

	for _, selector := range fetch.DescriptionSelectors(fetch.DetectPlatform(pageURL)) {
		if text := cleanText(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return cleanText(doc.Find("body").Text())
}

// cleanText collapses runs of spaces and tabs, trims each line and drops
// empty lines.
func cleanText(text string) string {
	lines := strings.Split(horizontalSpaceRe.ReplaceAllString(text, " "), "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
