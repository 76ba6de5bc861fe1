// Package observability provides formatted output utilities for the radar CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/internship-radar/internal/ingestion"
	"github.com/jonathan/internship-radar/internal/pipeline"
	"github.com/jonathan/internship-radar/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for CLI commands
type Printer struct {
	out      io.Writer
	maxItems int
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, maxItems: maxItemsToShow}
}

// WithMaxItems returns a printer listing up to n items per box
func (p *Printer) WithMaxItems(n int) *Printer {
	if n <= 0 {
		n = maxItemsToShow
	}
	return &Printer{out: p.out, maxItems: n}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to n runes, ending in "..." when cut
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (p *Printer) more(sb *strings.Builder, total int, noun string) {
	if total > p.maxItems {
		fmt.Fprintf(sb, "\n... and %d more %s", total-p.maxItems, noun)
	}
}

// PrintParsedJobs outputs the jobs parsed from a markdown document
func (p *Printer) PrintParsedJobs(jobs []types.ScrapedJob) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Parsed %d jobs\n", len(jobs))

	count := min(len(jobs), p.maxItems)
	for i := 0; i < count; i++ {
		job := &jobs[i]
		fmt.Fprintf(&sb, "\n%s · %s\n", job.Company, job.Role)
		if loc := job.LocationText(); loc != "" {
			fmt.Fprintf(&sb, "  %s\n", loc)
		}
		if job.DatePosted != nil {
			fmt.Fprintf(&sb, "  Posted %s", job.DatePosted.Format("2006-01-02"))
			if job.Tags.Has(types.TagDateCompany) {
				sb.WriteString(" (employer)")
			}
			sb.WriteString("\n")
		}
		if salary := types.FormatSalary(job.SalaryMin, job.SalaryMax, job.SalaryInterval); salary != "" {
			fmt.Fprintf(&sb, "  %s\n", salary)
		}
	}
	p.more(&sb, len(jobs), "jobs")

	p.printBox("PARSED JOBS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSyncResult outputs the counts of a sync run
func (p *Printer) PrintSyncResult(res *ingestion.SyncResult) {
	if res == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "UTC hour:  %d\n", res.Hour)
	fmt.Fprintf(&sb, "Scrapers:  %s\n", strings.Join(res.Stats.ScrapersRun, ", "))
	if res.Deleted > 0 {
		fmt.Fprintf(&sb, "Cleared:   %d\n", res.Deleted)
	}
	fmt.Fprintf(&sb, "Found:     %d (%d duplicates)\n", res.Stats.TotalFound, res.Stats.Duplicates)
	fmt.Fprintf(&sb, "New:       %d saved, %d existing\n", res.Saved, res.Existing)
	fmt.Fprintf(&sb, "Upserted:  %d (%d failed)\n", res.Upserted, res.Failed)
	if res.DateEnrich != nil {
		fmt.Fprintf(&sb, "Dates:     %s\n", enrichLine(res.DateEnrich.Attempted, res.DateEnrich.Updated, res.DateEnrich.CacheHits, res.DateEnrich.Errors))
	}
	if res.DescEnrich != nil {
		fmt.Fprintf(&sb, "Details:   %s\n", enrichLine(res.DescEnrich.Attempted, res.DescEnrich.Updated, res.DescEnrich.CacheHits, res.DescEnrich.Errors))
	}
	fmt.Fprintf(&sb, "Alerts:    %d\n", res.Notified)
	fmt.Fprintf(&sb, "Duration:  %.2fs", res.Duration.Seconds())

	p.printBox("SYNC RESULT", sb.String())
	p.PrintErrors(res.Errors)
}

func enrichLine(attempted, updated, cached, errs int) string {
	return fmt.Sprintf("%d/%d updated, %d cached, %d errors", updated, attempted, cached, errs)
}

// PrintMatches outputs ranked matches with the job each one refers to
func (p *Printer) PrintMatches(matches []types.JobMatchScore, jobs []types.MatchJob) {
	if len(matches) == 0 {
		p.printBox("TOP MATCHES", "No matching jobs")
		return
	}

	byID := make(map[string]*types.MatchJob, len(jobs))
	for i := range jobs {
		byID[jobs[i].ID] = &jobs[i]
	}

	var sb strings.Builder
	count := min(len(matches), p.maxItems)
	for i := 0; i < count; i++ {
		m := matches[i]
		title := m.JobID
		if job, ok := byID[m.JobID]; ok {
			title = job.Role + " · " + job.Company
		}
		fmt.Fprintf(&sb, "#%d  %3d%%  %s\n", i+1, m.Score, title)
		for _, reason := range m.Reasons {
			fmt.Fprintf(&sb, "          %s\n", reason)
		}
	}
	p.more(&sb, len(matches), "matches")

	p.printBox("TOP MATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRefreshResult outputs the counts of a match refresh
func (p *Printer) PrintRefreshResult(res *pipeline.RefreshResult) {
	if res == nil {
		return
	}
	content := fmt.Sprintf("Users:     %d\nMatches:   %d\nJobs:      %d\nBackfill:  %d\nDuration:  %.2fs",
		res.UsersProcessed, res.MatchesStored, res.JobsScanned, res.Backfilled, res.Duration.Seconds())
	p.printBox("MATCH REFRESH", content)
	p.PrintErrors(res.Errors)
}

// PrintDigestResult outputs the counts of a digest run
func (p *Printer) PrintDigestResult(res *pipeline.DigestResult) {
	if res == nil {
		return
	}
	p.printBox("WEEKLY DIGEST", fmt.Sprintf("Sent %d of %d", res.Sent, res.Users))
	p.PrintErrors(res.Errors)
}

// PrintErrors outputs collected partial-failure messages, if any
func (p *Printer) PrintErrors(errs []string) {
	if len(errs) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(errs), p.maxItems)
	for i := 0; i < count; i++ {
		fmt.Fprintf(&sb, "⚠ %s\n", errs[i])
	}
	p.more(&sb, len(errs), "errors")

	p.printBox(fmt.Sprintf("ERRORS (%d)", len(errs)), strings.TrimSuffix(sb.String(), "\n"))
}
