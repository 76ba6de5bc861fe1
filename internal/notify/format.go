package notify

import (
	"fmt"
	"html"
	"strings"
)

// FormatHTML renders msg using the HTML subset Telegram accepts
func FormatHTML(msg Message) string {
	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(msg.Subject))
	b.WriteString("</b>\n")

	for i, job := range msg.Jobs {
		b.WriteString(fmt.Sprintf("\n%d. ", i+1))
		if job.URL != nil && *job.URL != "" {
			b.WriteString(fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(*job.URL), html.EscapeString(job.Title)))
		} else {
			b.WriteString(html.EscapeString(job.Title))
		}
		b.WriteString(" at <b>")
		b.WriteString(html.EscapeString(job.Company))
		b.WriteString("</b>")
		if job.Location != nil && *job.Location != "" {
			b.WriteString(" · ")
			b.WriteString(html.EscapeString(*job.Location))
		}
		if job.Salary != "" {
			b.WriteString("\n   ")
			b.WriteString(html.EscapeString(job.Salary))
		}
	}

	if msg.UnsubscribeURL != "" {
		b.WriteString(fmt.Sprintf("\n\n<a href=\"%s\">Unsubscribe</a>", html.EscapeString(msg.UnsubscribeURL)))
	}
	return b.String()
}

// AlertSubject is the heading for a new-jobs alert
func AlertSubject(count int) string {
	if count == 1 {
		return "1 new job matching your interests"
	}
	return fmt.Sprintf("%d new jobs matching your interests", count)
}

// DigestSubject is the heading for the weekly digest
func DigestSubject(count int) string {
	if count == 1 {
		return "1 new internship matching your preferences"
	}
	return fmt.Sprintf("%d new internships matching your preferences", count)
}
