// Package parsing turns markdown job tables from aggregator repositories into
// normalized job records.
//
// The tables are a loose convention rather than a format: rows are split into
// cells, cells are cleaned of markup, and fields are mapped by position using
// the layout announced by the most recent header row. Rows that do not fit are
// skipped, never reported as errors.
package parsing

import (
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/internship-radar/internal/types"
)

// DefaultSource is the source label used when metadata does not name one.
const DefaultSource = "github"

var separatorRowRe = regexp.MustCompile(`^\|[\s\-:]+\|`)

// SourceMetadata describes the document being parsed. JobType and Region are
// copied into each job's tags; File disambiguates source ids for rows that
// carry no link.
type SourceMetadata struct {
	Source  string
	File    string
	JobType string
	Region  string
}

// Parser converts markdown tables into jobs. Now is used for relative dates.
type Parser struct {
	Now func() time.Time
}

// NewParser returns a parser that reads the wall clock.
func NewParser() *Parser {
	return &Parser{Now: time.Now}
}

// ParseJobsFromMarkdown parses markdown with the wall clock as reference time.
func ParseJobsFromMarkdown(markdown string, meta SourceMetadata) []types.ScrapedJob {
	return NewParser().Parse(markdown, meta)
}

// row is a table row mapped onto typed fields before validation.
type row struct {
	company  string
	role     string
	location string
	url      string
	posted   *time.Time
	salary   Salary
}

// Parse scans markdown line by line and returns one job per usable table row.
func (p *Parser) Parse(markdown string, meta SourceMetadata) []types.ScrapedJob {
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	source := meta.Source
	if source == "" {
		source = DefaultSource
	}

	var jobs []types.ScrapedJob
	hasSalary := false
	category := types.CategoryOther

	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimRight(line, "\r")

		if c, ok := markerCategory(line); ok {
			category = c
			continue
		}
		if c, ok := headingCategory(line); ok {
			category = c
		}

		if salary, ok := headerLayout(line); ok {
			hasSalary = salary
			continue
		}

		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			continue
		}
		if strings.Contains(line, "---") || separatorRowRe.MatchString(line) {
			continue
		}

		cells := splitRow(trimmed)
		if strings.Contains(strings.ToLower(cells[0]), "company") {
			continue
		}

		r, ok := mapRow(cells, hasSalary, now)
		if !ok || r.company == "" || r.role == "" {
			continue
		}

		// fall back to links in the role or company cell
		if r.url == "" {
			if u, found := PickJobURL(cells[1]); found {
				r.url = u
			} else if u, found := PickJobURL(cells[0]); found {
				r.url = u
			}
		}

		applyKey := r.url
		if applyKey == "" {
			applyKey = meta.File
		}

		jobs = append(jobs, types.ScrapedJob{
			SourceID:       BuildSourceID(source, r.company, r.role, r.location, applyKey),
			Company:        r.company,
			Role:           r.role,
			Location:       types.StringPtr(r.location),
			URL:            types.StringPtr(r.url),
			DatePosted:     r.posted,
			Source:         source,
			Tags:           types.NewTags(meta.JobType, meta.Region, category, types.TagSeason, types.TagDateRepo),
			SalaryMin:      r.salary.Min,
			SalaryMax:      r.salary.Max,
			SalaryInterval: r.salary.Interval,
		})
	}

	return jobs
}

// mapRow assigns cells to fields according to the active layout. The salary
// layout needs 6 cells; otherwise 5 cells carry a date and 4 do not.
func mapRow(cells []string, hasSalary bool, now time.Time) (row, bool) {
	if len(cells) < 4 {
		return row{}, false
	}

	r := row{
		company:  StripMarkup(cells[0]),
		role:     StripMarkup(cells[1]),
		location: StripMarkup(cells[2]),
	}

	switch {
	case hasSalary && len(cells) >= 6:
		r.salary = ParseSalary(cells[3])
		r.url, _ = PickJobURL(cells[4])
		r.posted = ParsePostedDate(cells[5], now)
	case len(cells) >= 5:
		r.url, _ = PickJobURL(cells[3])
		r.posted = ParsePostedDate(cells[4], now)
	default:
		r.url, _ = PickJobURL(cells[3])
	}
	return r, true
}

// splitRow drops the outer pipes and trims each cell.
func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// markerCategory recognizes HTML comment section markers.
func markerCategory(line string) (string, bool) {
	switch {
	case strings.Contains(line, "TABLE_FAANG_START"):
		return types.CategoryFAANG, true
	case strings.Contains(line, "TABLE_QUANT_START"):
		return types.CategoryQuant, true
	case strings.Contains(line, "TABLE_START"):
		return types.CategoryOther, true
	}
	return "", false
}

// headingCategory recognizes markdown headings that name a section.
func headingCategory(line string) (string, bool) {
	heading := strings.ToLower(strings.TrimSpace(line))
	if !strings.HasPrefix(heading, "#") {
		return "", false
	}
	switch {
	case strings.Contains(heading, "faang"):
		return types.CategoryFAANG, true
	case strings.Contains(heading, "quant"):
		return types.CategoryQuant, true
	case strings.Contains(heading, "other") || strings.Contains(heading, "all"):
		return types.CategoryOther, true
	}
	return "", false
}

// headerLayout reports whether line is a table header and, if so, whether
// the table has a salary column.
func headerLayout(line string) (hasSalary bool, ok bool) {
	lower := strings.ToLower(line)
	if !strings.Contains(lower, "company") || !strings.Contains(lower, "position") {
		return false, false
	}
	if strings.Contains(lower, "salary") {
		return true, true
	}
	if strings.Contains(lower, "posting") {
		return false, true
	}
	return false, false
}
