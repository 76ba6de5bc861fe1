// Package keywords tokenizes free text into stopword-filtered, frequency-ranked keywords.
package keywords

import (
	"sort"
	"strings"
)

// DefaultLimit is the number of keywords kept by ExtractKeywords when no limit is given.
const DefaultLimit = 120

// minTokenLen is the shortest token kept; anything shorter is noise.
const minTokenLen = 3

// stopwords filters common English words plus job-posting boilerplate.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true, "has": true,
	"have": true, "if": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "of": true, "on": true, "or": true, "our": true, "ours": true,
	"that": true, "the": true, "their": true, "them": true, "they": true, "this": true,
	"to": true, "was": true, "we": true, "were": true, "with": true, "you": true,
	"your": true, "years": true, "year": true, "team": true, "experience": true,
	"work": true, "role": true, "responsibilities": true, "requirements": true,
	"skills": true, "ability": true, "preferred": true, "including": true,
	"using": true, "will": true, "must": true, "plus": true, "strong": true,
	"new": true, "job": true, "position": true, "intern": true, "internship": true,
	"engineer": true, "developer": true, "software": true, "company": true,
	"candidate": true, "candidates": true, "opportunity": true, "about": true,
	"who": true, "what": true, "why": true, "how": true,
}

// IsStopword reports whether token is filtered out of keyword sets.
func IsStopword(token string) bool {
	return stopwords[token]
}

// Tokenize lower-cases text, splits it on runs of characters outside [a-z0-9]
// and drops short tokens and stopwords. Order and repeats are preserved.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if keep(f) {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// ExtractKeywords returns up to limit tokens ordered by descending frequency.
// Equal counts keep first-seen order. A limit <= 0 uses DefaultLimit.
func ExtractKeywords(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return []string{}
	}

	counts := make(map[string]int, len(tokens))
	order := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

// MergeKeywords normalizes each item of each list and returns the
// deduplicated union in first-seen order. Nil lists are skipped.
func MergeKeywords(lists ...[]string) []string {
	merged := []string{}
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, item := range list {
			normalized := strings.ToLower(strings.TrimSpace(item))
			if !keep(normalized) || seen[normalized] {
				continue
			}
			seen[normalized] = true
			merged = append(merged, normalized)
		}
	}
	return merged
}

// UniqueList removes duplicates while keeping first occurrences in order.
func UniqueList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// JobText is the text surface of a posting used to derive its keywords.
type JobText struct {
	Role        string
	Company     string
	Location    string
	Tags        []string
	Description string
}

// BuildJobKeywords extracts the default-sized keyword set from all text
// fields of a posting.
func BuildJobKeywords(job JobText) []string {
	parts := []string{job.Role, job.Company, job.Location}
	parts = append(parts, job.Tags...)
	parts = append(parts, job.Description)

	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return ExtractKeywords(strings.Join(nonEmpty, " "), DefaultLimit)
}

func keep(token string) bool {
	return len(token) >= minTokenLen && !stopwords[token]
}
