package enrich

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestExtractPostedDate(t *testing.T) {
	tests := []struct {
		name string
		html string
		want *time.Time
	}{
		{
			name: "json-ld job posting",
			html: `<html><head><script type="application/ld+json">
				{"@context":"https://schema.org","@type":"JobPosting","title":"Intern","datePosted":"2026-03-01T09:00:00Z"}
			</script></head><body></body></html>`,
			want: ptr(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		},
		{
			name: "json-ld graph with type array and fallback field",
			html: `<script type="application/ld+json">
				{"@graph":[{"@type":"Organization","datePosted":"2026-01-01"},{"@type":["Thing","JobPosting"],"datePublished":"2026-02-15"}]}
			</script>`,
			want: ptr(time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "json-ld epoch milliseconds",
			html: `<script type="application/ld+json">[{"@type":"JobPosting","datePosted":1772409600000}]</script>`,
			want: ptr(time.UnixMilli(1772409600000).UTC()),
		},
		{
			name: "invalid json-ld falls through to meta",
			html: `<script type="application/ld+json">{not json</script>
				<meta property="article:published_time" content="2026-02-20T00:00:00Z">`,
			want: ptr(time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "meta name case-insensitive",
			html: `<meta name="DC.date" content="2026-03-05">`,
			want: ptr(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "data-posted-at seconds",
			html: `<div data-posted-at="1772409600">x</div>`,
			want: ptr(time.Unix(1772409600, 0).UTC()),
		},
		{
			name: "time element",
			html: `<p>Posted <time datetime="2026-03-08">2 days ago</time></p>`,
			want: ptr(time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "raw fragment in inline script",
			html: `<script>window.__DATA__ = {"job":{"datePosted" : "2026-03-02"}}</script>`,
			want: ptr(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "implausibly old date is ignored",
			html: `<meta property="article:published_time" content="2019-01-01">`,
		},
		{
			name: "far future date is ignored",
			html: `<time datetime="2026-06-01"></time>`,
		},
		{
			name: "non job posting json-ld ignored",
			html: `<script type="application/ld+json">{"@type":"Article","datePublished":"2026-03-01"}</script>`,
		},
		{
			name: "nothing",
			html: `<html><body>Apply now</body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPostedDate(tt.html, refNow)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v want %v", *got, *tt.want)
		})
	}
}

func TestExtractDescription(t *testing.T) {
	html := `<html><head><style>.x{}</style><script>var a=1;</script></head><body>
		<header>Site header</header>
		<nav>Jobs | About</nav>
		<h1>Software Engineer Intern</h1>
		<p>Build   <b>distributed</b> systems in Go.</p>
		<ul><li>Kubernetes</li><li>Postgres &amp; Redis</li></ul>
		<!-- tracking comment -->
		<form><input name="email">Apply form</form>
		<svg><text>logo</text></svg>
		<footer>Copyright</footer>
	</body></html>`

	text := ExtractDescription(html, "https://example.com/jobs/1")

	assert.Contains(t, text, "Software Engineer Intern")
	assert.Contains(t, text, "Build distributed systems in Go.")
	assert.Contains(t, text, "Postgres & Redis")
	for _, noise := range []string{"Site header", "About", "var a", "tracking", "Apply form", "logo", "Copyright", ".x{}"} {
		assert.NotContains(t, text, noise)
	}

	lines := strings.Split(text, "\n")
	assert.Contains(t, lines, "Kubernetes")
}

func TestExtractDescription_PlatformContainer(t *testing.T) {
	html := `<body><div class="sidebar">Other openings</div>
		<div class="job__description"><p>Greenhouse body text</p></div></body>`

	text := ExtractDescription(html, "https://boards.greenhouse.io/acme/jobs/1")
	assert.Equal(t, "Greenhouse body text", text)
}

func TestExtractDescription_Empty(t *testing.T) {
	assert.Empty(t, ExtractDescription(`<html><body><script>only()</script></body></html>`, ""))
}

func ptr[T any](v T) *T { return &v }
