package scoring

import "strings"

// Review is one crawled review. Only Content participates in scoring.
type Review struct {
	Content  string `json:"content"`
	Nickname string `json:"nickname,omitempty"`
	Date     string `json:"date,omitempty"`
}

// CountOccurrences counts non-overlapping occurrences of keyword in text, scanning left
// to right. An empty keyword never matches.
func CountOccurrences(text, keyword string) int {
	if keyword == "" {
		return 0
	}
	return strings.Count(text, keyword)
}

// countAll sums CountOccurrences over every keyword.
func countAll(text string, keywords []string) int {
	total := 0
	for _, kw := range keywords {
		total += CountOccurrences(text, kw)
	}
	return total
}

// joinContents concatenates review bodies with single spaces.
func joinContents(reviews []Review) string {
	parts := make([]string, len(reviews))
	for i, r := range reviews {
		parts[i] = r.Content
	}
	return strings.Join(parts, " ")
}
