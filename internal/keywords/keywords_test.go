package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"lowercases and splits", "Build React apps in Python", []string{"build", "react", "apps", "python"}},
		{"drops short tokens", "Go is ok, C++ and AI too", []string{"too"}},
		{"drops domain noise", "Software Engineer Intern with experience", []string{}},
		{"non-ascii separates", "Zürich-based Kubernetes", []string{"rich", "based", "kubernetes"}},
		{"keeps digits", "k8s node18 2026", []string{"k8s", "node18", "2026"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractKeywords_FrequencyThenFirstSeen(t *testing.T) {
	text := "python react golang python react python docker"
	assert.Equal(t, []string{"python", "react", "golang", "docker"}, ExtractKeywords(text, 10))
}

func TestExtractKeywords_Limit(t *testing.T) {
	text := "alpha beta gamma delta"
	assert.Equal(t, []string{"alpha", "beta"}, ExtractKeywords(text, 2))
	assert.Len(t, ExtractKeywords(text, 0), 4)
}

func TestExtractKeywords_Deterministic(t *testing.T) {
	text := "rust kafka spark rust spark kafka flink"
	first := ExtractKeywords(text, DefaultLimit)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ExtractKeywords(text, DefaultLimit))
	}
	assert.Equal(t, []string{"rust", "kafka", "spark", "flink"}, first)
}

func TestExtractKeywords_NoTokens(t *testing.T) {
	assert.Empty(t, ExtractKeywords("the and of", 5))
}

func TestMergeKeywords(t *testing.T) {
	got := MergeKeywords(
		[]string{"Python", " react ", "go"},
		nil,
		[]string{"python", "Intern", "Kubernetes"},
	)
	assert.Equal(t, []string{"python", "react", "kubernetes"}, got)
}

func TestUniqueList(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, UniqueList([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, UniqueList(nil))
}

func TestBuildJobKeywords(t *testing.T) {
	got := BuildJobKeywords(JobText{
		Role:        "Backend Intern",
		Company:     "Acme",
		Location:    "Remote",
		Tags:        []string{"faang"},
		Description: "Golang services, golang tooling",
	})
	assert.Equal(t, "golang", got[0])
	assert.Contains(t, got, "backend")
	assert.Contains(t, got, "acme")
	assert.Contains(t, got, "remote")
	assert.Contains(t, got, "faang")
	assert.NotContains(t, got, "intern")
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("responsibilities"))
	assert.False(t, IsStopword("python"))
}
