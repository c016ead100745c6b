package scoring

import (
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

const (
	baseQualityScore       = 5.0
	sentimentWeight        = 3.0
	performanceBonus       = 0.5
	highIssuePenalty       = 1.0
	performanceStrongCount = 5
	weightStrongCount      = 3
	designStrongCount      = 2
)

// KeywordCounts maps an attribute category to its total keyword occurrences.
type KeywordCounts map[string]int

// Sentiment is the positive/negative tally over a batch of reviews.
type Sentiment struct {
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
	Ratio    float64 `json:"ratio"`
}

// Issue is an IssueRule that matched at least one review.
type Issue struct {
	IssueRule
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

// AnalyzeKeywords counts keyword occurrences per attribute category over the joined
// review text. Every category is present in the result, zero when unmatched.
func AnalyzeKeywords(reviews []Review) KeywordCounts {
	text := joinContents(reviews)
	out := make(KeywordCounts, len(attributeKeywords))
	for _, g := range attributeKeywords {
		out[g.Category] = countAll(text, g.Keywords)
	}
	return out
}

// AnalyzeSentiment scores each review independently: a keyword adds one point when it
// appears anywhere in the review, regardless of how often.
func AnalyzeSentiment(reviews []Review) Sentiment {
	var s Sentiment
	for _, r := range reviews {
		for _, kw := range positiveKeywords {
			if strings.Contains(r.Content, kw) {
				s.Positive++
			}
		}
		for _, kw := range negativeKeywords {
			if strings.Contains(r.Content, kw) {
				s.Negative++
			}
		}
	}
	s.Ratio = sentimentRatio(s.Positive, s.Negative)
	return s
}

func sentimentRatio(positive, negative int) float64 {
	denom := positive + negative
	if denom == 0 {
		denom = 1
	}
	return float64(positive) / float64(denom)
}

// ExtractIssues reports, for each issue rule, how many distinct reviews mention its
// keyword. Results are ordered by count descending; equal counts keep rule order.
func ExtractIssues(reviews []Review) []Issue {
	issues := make([]Issue, 0, len(issueRules))
	if len(reviews) == 0 {
		return issues
	}
	for _, rule := range issueRules {
		mentions := 0
		for _, r := range reviews {
			if strings.Contains(r.Content, rule.Keyword) {
				mentions++
			}
		}
		if mentions == 0 {
			continue
		}
		pct := float64(mentions) / float64(len(reviews)) * 100
		issues = append(issues, Issue{
			IssueRule:  rule,
			Count:      mentions,
			Percentage: FormatFixed1(pct),
		})
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Count > issues[j].Count
	})
	return issues
}

// CalculateQualityScore combines sentiment, keyword strength and high-severity issues
// into a score in [0, 10] rounded to one decimal.
func CalculateQualityScore(sentiment Sentiment, keywords KeywordCounts, issues []Issue) float64 {
	score := baseQualityScore
	score += sentiment.Ratio * sentimentWeight
	if keywords[CategoryPerformance] > performanceStrongCount {
		score += performanceBonus
	}
	for _, issue := range issues {
		if issue.Severity == SeverityHigh {
			score -= highIssuePenalty
		}
	}
	score = math.Max(0, math.Min(10, score))
	rounded, _ := strconv.ParseFloat(FormatFixed1(score), 64)
	return rounded
}

// FormatScore renders a quality score the way the API reports it, e.g. "7.5".
func FormatScore(score float64) string {
	return FormatFixed1(score)
}

// FormatFixed1 formats v with one decimal, rounding from its exact binary value.
// Exact ties round away from zero, so 0.25 renders as "0.3".
func FormatFixed1(v float64) string {
	if v < 0 {
		return "-" + FormatFixed1(-v)
	}
	if n, ok := exactTenthsTie(v); ok {
		return strconv.FormatFloat(n/10, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// exactTenthsTie reports whether v*10 is exactly halfway between two integers
// and returns the larger one. v must be non-negative.
func exactTenthsTie(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	tenths := new(big.Float).SetPrec(128).SetFloat64(v)
	tenths.Mul(tenths, big.NewFloat(10))
	floor, _ := tenths.Int(nil)
	frac := new(big.Float).SetPrec(128).Sub(tenths, new(big.Float).SetInt(floor))
	if frac.Cmp(big.NewFloat(0.5)) != 0 {
		return 0, false
	}
	n, _ := new(big.Float).SetInt(floor.Add(floor, big.NewInt(1))).Float64()
	return n, true
}
