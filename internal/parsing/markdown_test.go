package parsing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/internship-radar/internal/types"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestParser() *Parser {
	return &Parser{Now: func() time.Time { return fixedNow }}
}

var usaInternMeta = SourceMetadata{
	Source:  "github",
	File:    "README.md",
	JobType: types.JobTypeInternship,
	Region:  types.RegionUSA,
}

const speedyapplyFixture = `# 2026 SWE Internships

<!-- TABLE_FAANG_START -->
| Company | Position | Location | Salary | Posting | Age |
|---|---|---|---|---|---|
| <a href="https://google.com"><strong>Google</strong></a> | Software Engineering Intern | Mountain View, CA | $55/hr | <a href="https://careers.google.com/jobs/123"><img src="https://img.shields.io/badge/Apply-blue" alt="Apply"></a> | 3d |
| **Meta** | Production Engineer Intern | Menlo Park, CA | $140k/yr | [![Apply](https://camo.githubusercontent.com/abc.png)](https://metacareers.com/jobs/9) | Today |
<!-- TABLE_FAANG_END -->

## Other

<!-- TABLE_START -->
| Company | Position | Location | Posting | Age |
|:--|:--|:--|:--|:--|
| Acme Corp | SWE Intern | Remote | [Apply](https://acme.example/job/1) | 2d |
| Bolt | Backend Intern <br> Payments | NYC | <https://bolt.example/apply> | Yesterday |
| | Orphan Role | Nowhere | https://orphan.example | 1d |
| Lonely Inc | | Austin | https://lonely.example | 1d |
<!-- TABLE_END -->
`

func TestParse_SpeedyapplyDocument(t *testing.T) {
	jobs := newTestParser().Parse(speedyapplyFixture, usaInternMeta)
	require.Len(t, jobs, 4)

	google := jobs[0]
	assert.Equal(t, "Google", google.Company)
	assert.Equal(t, "Software Engineering Intern", google.Role)
	assert.Equal(t, "Mountain View, CA", google.LocationText())
	assert.Equal(t, "https://careers.google.com/jobs/123", google.URLText())
	require.NotNil(t, google.SalaryMin)
	assert.Equal(t, 55*40*52, *google.SalaryMin)
	assert.Equal(t, types.IntervalHourly, *google.SalaryInterval)
	require.NotNil(t, google.DatePosted)
	assert.Equal(t, fixedNow.Add(-3*24*time.Hour), *google.DatePosted)
	assert.True(t, google.Tags.Has(types.CategoryFAANG))

	meta := jobs[1]
	assert.Equal(t, "Meta", meta.Company)
	assert.Equal(t, "https://metacareers.com/jobs/9", meta.URLText())
	require.NotNil(t, meta.SalaryMax)
	assert.Equal(t, 140000, *meta.SalaryMax)
	assert.Equal(t, types.IntervalYearly, *meta.SalaryInterval)
	assert.Equal(t, fixedNow, *meta.DatePosted)

	acme := jobs[2]
	assert.True(t, acme.Tags.Has(types.CategoryOther))
	assert.Nil(t, acme.SalaryMin)

	bolt := jobs[3]
	assert.Equal(t, "Backend Intern Payments", bolt.Role)
	assert.Equal(t, "https://bolt.example/apply", bolt.URLText())
	assert.Equal(t, fixedNow.Add(-24*time.Hour), *bolt.DatePosted)
}

func TestParse_ExampleRow(t *testing.T) {
	md := "| Acme Corp | SWE Intern | Remote | [Apply](https://acme.example/job/1) | 2d |"
	jobs := newTestParser().Parse(md, usaInternMeta)
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, "Acme Corp", job.Company)
	assert.Equal(t, "SWE Intern", job.Role)
	assert.Equal(t, "Remote", job.LocationText())
	assert.Equal(t, "https://acme.example/job/1", job.URLText())
	require.NotNil(t, job.DatePosted)
	assert.Equal(t, fixedNow.Add(-48*time.Hour), *job.DatePosted)
	assert.True(t, job.Tags.Has(types.TagDateRepo))
	assert.True(t, job.Tags.Has(types.TagSeason))
	assert.True(t, job.Tags.Has(types.JobTypeInternship))
	assert.True(t, job.Tags.Has(types.RegionUSA))
	assert.True(t, strings.HasPrefix(job.SourceID, "github|"))
	assert.Len(t, job.SourceID, len("github|")+16)
}

func TestParse_Idempotent(t *testing.T) {
	p := newTestParser()
	first := p.Parse(speedyapplyFixture, usaInternMeta)
	second := ParseJobsFromMarkdown(speedyapplyFixture, usaInternMeta)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].SourceID, second[i].SourceID)
	}
}

func TestParse_SkipsRowsMissingCompanyOrRole(t *testing.T) {
	malformed := []string{
		"| | Role | Loc | https://x.example | 1d |",
		"| Company | | Loc | https://x.example | 1d |",
		"| only | three |",
		"|",
		"||||||",
		"| ![logo](https://img.shields.io/x.png) | **  ** | x | y |",
		"| --- | --- |",
		"| :-- | :-- | :-- | :-- |",
		"not a table row at all",
	}
	for _, line := range malformed {
		t.Run(line, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Empty(t, newTestParser().Parse(line, usaInternMeta))
			})
		})
	}
}

func TestParse_ArbitraryTextDoesNotPanic(t *testing.T) {
	inputs := []string{
		"| \x00\x01 | <<<>>> | [[[ | ((( |",
		"| a | b | c | d | e | f | g | h |",
		"|||\n|--|\n| x |",
		strings.Repeat("| ", 1000),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { newTestParser().Parse(in, usaInternMeta) })
	}
}

func TestParse_FallbackURLAndDisambiguator(t *testing.T) {
	md := strings.Join([]string{
		"| Company | Position | Location | Posting | Age |",
		"| [Zeta](https://zeta.example) | Data Intern | Boston | closed | 5d |",
		"| Nolink | Data Intern | Boston | closed | 5d |",
	}, "\n")

	jobs := newTestParser().Parse(md, usaInternMeta)
	require.Len(t, jobs, 2)
	assert.Equal(t, "https://zeta.example", jobs[0].URLText())
	assert.Nil(t, jobs[1].URL)

	other := usaInternMeta
	other.File = "NEW_GRAD_USA.md"
	again := newTestParser().Parse(md, other)
	assert.Equal(t, jobs[0].SourceID, again[0].SourceID, "link rows ignore file")
	assert.NotEqual(t, jobs[1].SourceID, again[1].SourceID, "linkless rows use file")
}

func TestParse_FourColumnLayout(t *testing.T) {
	md := "| Delta | Platform Intern | Seattle | https://delta.example/jobs/4 |"
	jobs := newTestParser().Parse(md, usaInternMeta)
	require.Len(t, jobs, 1)
	assert.Equal(t, "https://delta.example/jobs/4", jobs[0].URLText())
	assert.Nil(t, jobs[0].DatePosted)
}

func TestParse_HeadingCategory(t *testing.T) {
	md := strings.Join([]string{
		"### Quant Firms",
		"| Company | Position | Location | Posting | Age |",
		"| Jane Street | Trading Intern | NYC | https://js.example | 1d |",
	}, "\n")
	jobs := newTestParser().Parse(md, usaInternMeta)
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].Tags.Has(types.CategoryQuant))
	assert.False(t, jobs[0].Tags.Has(types.CategoryOther))
}

func TestParse_DefaultSource(t *testing.T) {
	md := "| Acme | SWE Intern | Remote | https://acme.example | 1d |"
	jobs := newTestParser().Parse(md, SourceMetadata{File: "x.md"})
	require.Len(t, jobs, 1)
	assert.Equal(t, DefaultSource, jobs[0].Source)
}
