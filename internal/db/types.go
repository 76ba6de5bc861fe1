package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/internship-radar/internal/types"
)

// Column limits applied before a scraped job is written
const (
	MaxCompanyLength     = 200
	MaxRoleLength        = 200
	MaxLocationLength    = 200
	MaxURLLength         = 500
	MaxDescriptionLength = 5000
)

// Batch sizes for bulk statements
const (
	UpsertBatchSize = 50
	LookupChunkSize = 100
)

// DefaultMatchingJobLimit caps how many postings a match refresh scans
const DefaultMatchingJobLimit = 3000

// InternshipsSource labels postings copied from the legacy internships table
const InternshipsSource = "internships"

// Scraper log statuses
const (
	ScraperLogSuccess = "success"
	ScraperLogError   = "error"
)

// EmailFrequencyWeekly marks users who receive the weekly digest
const EmailFrequencyWeekly = "weekly"

// JobPosting is a persisted posting keyed by its source id
type JobPosting struct {
	ID                   string     `json:"id,omitempty"`
	SourceID             string     `json:"source_id"`
	Company              string     `json:"company"`
	Role                 string     `json:"role"`
	Location             *string    `json:"location,omitempty"`
	URL                  *string    `json:"url,omitempty"`
	Description          *string    `json:"description,omitempty"`
	JobKeywords          []string   `json:"job_keywords,omitempty"`
	DescriptionFetchedAt *time.Time `json:"description_fetched_at,omitempty"`
	DatePosted           *time.Time `json:"date_posted,omitempty"`
	Source               string     `json:"source"`
	Tags                 []string   `json:"tags"`
	SalaryMin            *int       `json:"salary_min,omitempty"`
	SalaryMax            *int       `json:"salary_max,omitempty"`
	SalaryInterval       *string    `json:"salary_interval,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// ToDBJob converts a scraped job into a row, truncating text columns to
// their limits. Description fields are only carried when a description exists.
func ToDBJob(job types.ScrapedJob) JobPosting {
	row := JobPosting{
		SourceID:       job.SourceID,
		Company:        types.Truncate(job.Company, MaxCompanyLength),
		Role:           types.Truncate(job.Role, MaxRoleLength),
		Location:       truncatePtr(job.Location, MaxLocationLength),
		URL:            truncatePtr(job.URL, MaxURLLength),
		DatePosted:     job.DatePosted,
		Source:         job.Source,
		Tags:           append([]string{}, job.Tags...),
		SalaryMin:      job.SalaryMin,
		SalaryMax:      job.SalaryMax,
		SalaryInterval: job.SalaryInterval,
	}
	if job.HasDescription() {
		row.Description = truncatePtr(job.Description, MaxDescriptionLength)
		row.DescriptionFetchedAt = job.DescriptionFetchedAt
	}
	if len(job.JobKeywords) > 0 {
		row.JobKeywords = append([]string{}, job.JobKeywords...)
	}
	return row
}

func truncatePtr(s *string, n int) *string {
	if s == nil {
		return nil
	}
	v := types.Truncate(*s, n)
	return &v
}

// MatchJob returns the fields the scorer needs
func (p *JobPosting) MatchJob() types.MatchJob {
	return types.MatchJob{
		ID:          p.ID,
		Role:        p.Role,
		Company:     p.Company,
		Location:    p.Location,
		URL:         p.URL,
		Tags:        p.Tags,
		Description: p.Description,
		JobKeywords: p.JobKeywords,
	}
}

// Summary returns the notification view of the posting
func (p *JobPosting) Summary() types.JobSummary {
	return types.JobSummary{
		Title:    p.Role,
		Company:  p.Company,
		Location: p.Location,
		URL:      p.URL,
		Salary:   types.FormatSalary(p.SalaryMin, p.SalaryMax, p.SalaryInterval),
	}
}

// UpsertResult reports the outcome of a batched upsert. A failed batch does
// not stop later batches.
type UpsertResult struct {
	Upserted int      `json:"upserted"`
	Failed   int      `json:"failed"`
	Written  []string `json:"-"` // source ids of rows in successful batches
	Errors   []string `json:"errors,omitempty"`
}

// JobPostingFilter narrows ListJobPostings
type JobPostingFilter struct {
	Source string
	Tag    string
	Query  string
	Limit  int
	Offset int
}

// UserMatch is a stored match score joined with its posting
type UserMatch struct {
	JobID          string     `json:"job_id"`
	Score          int        `json:"score"`
	Reasons        []string   `json:"reasons"`
	MatchedAt      time.Time  `json:"matched_at"`
	Company        string     `json:"company"`
	Role           string     `json:"role"`
	Location       *string    `json:"location,omitempty"`
	URL            *string    `json:"url,omitempty"`
	DatePosted     *time.Time `json:"date_posted,omitempty"`
	SalaryMin      *int       `json:"salary_min,omitempty"`
	SalaryMax      *int       `json:"salary_max,omitempty"`
	SalaryInterval *string    `json:"salary_interval,omitempty"`
}

// Summary returns the notification view of the matched posting
func (m *UserMatch) Summary() types.JobSummary {
	return types.JobSummary{
		Title:    m.Role,
		Company:  m.Company,
		Location: m.Location,
		URL:      m.URL,
		Salary:   types.FormatSalary(m.SalaryMin, m.SalaryMax, m.SalaryInterval),
	}
}

// MatchProfile is the per-user input to a match refresh
type MatchProfile struct {
	UserID         uuid.UUID              `json:"user_id"`
	ResumeText     *string                `json:"resume_text,omitempty"`
	ResumeKeywords []string               `json:"resume_keywords,omitempty"`
	Preferences    types.MatchPreferences `json:"preferences"`
}

// DigestProfile is a user due a digest along with their contact details
type DigestProfile struct {
	MatchProfile
	Email         *string    `json:"email,omitempty"`
	ChatID        *int64     `json:"telegram_chat_id,omitempty"`
	LastEmailSent *time.Time `json:"last_email_sent,omitempty"`
}

// Subscriber receives new-job alerts
type Subscriber struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	ChatID    *int64    `json:"telegram_chat_id,omitempty"`
	Interests []string  `json:"interests"`
	Status    string    `json:"status"`
}

// Internship is a row of the legacy internships table
type Internship struct {
	ID        string    `json:"id"`
	Title     *string   `json:"title,omitempty"`
	Company   *string   `json:"company,omitempty"`
	Location  *string   `json:"location,omitempty"`
	URL       *string   `json:"url,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SourceID is the job posting source id this row is stored under
func (i *Internship) SourceID() string {
	return InternshipsSource + "|" + i.ID
}

// ScraperLog is one scrape run record
type ScraperLog struct {
	ID              int64     `json:"id"`
	Status          string    `json:"status"`
	Scraped         int       `json:"scraped"`
	Saved           int       `json:"saved"`
	Duplicates      int       `json:"duplicates"`
	DurationSeconds float64   `json:"duration_seconds"`
	Sources         []string  `json:"sources"`
	ErrorMessage    *string   `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
