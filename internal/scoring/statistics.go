package scoring

import (
	"math"
	"sort"
	"unicode/utf16"
)

const (
	maxTopKeywords    = 10
	shortReviewLength = 20
	longReviewLength  = 100
)

// Statistics labels for the overall tone of a batch.
const (
	ToneNegative = "부정적"
	TonePositive = "긍정적"
	ToneNeutral  = "중립적"
)

// KeywordFrequency is one row of the top-keyword table.
type KeywordFrequency struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Statistics summarises tone, keyword frequency and review length for a batch.
type Statistics struct {
	TotalReviews  int                `json:"totalReviews"`
	PositiveCount int                `json:"positiveCount"`
	NegativeCount int                `json:"negativeCount"`
	PositiveRatio string             `json:"positiveRatio"`
	Sentiment     string             `json:"sentiment"`
	TopKeywords   []KeywordFrequency `json:"topKeywords"`
	AverageLength int                `json:"averageLength"`
	ShortReviews  int                `json:"shortReviews"`
	LongReviews   int                `json:"longReviews"`
}

// ComputeStatistics counts sentiment keywords by occurrence over the joined text, builds
// the top keyword table and buckets reviews by length in UTF-16 code units.
func ComputeStatistics(reviews []Review) (Statistics, error) {
	if len(reviews) == 0 {
		return Statistics{}, ErrNoReviews
	}
	text := joinContents(reviews)
	positive := countAll(text, statsPositiveKeywords)
	negative := countAll(text, statsNegativeKeywords)

	freq := make([]KeywordFrequency, 0, len(statsKeywords))
	for _, k := range statsKeywords {
		if n := CountOccurrences(text, k.Word); n > 0 {
			freq = append(freq, KeywordFrequency{Keyword: k.Word, Category: k.Category, Count: n})
		}
	}
	sort.SliceStable(freq, func(i, j int) bool {
		return freq[i].Count > freq[j].Count
	})
	if len(freq) > maxTopKeywords {
		freq = freq[:maxTopKeywords]
	}

	totalLen, short, long := 0, 0, 0
	for _, r := range reviews {
		n := utf16Length(r.Content)
		totalLen += n
		if n < shortReviewLength {
			short++
		}
		if n > longReviewLength {
			long++
		}
	}

	tone := ToneNeutral
	switch {
	case positive > negative:
		tone = TonePositive
	case negative > positive:
		tone = ToneNegative
	}

	return Statistics{
		TotalReviews:  len(reviews),
		PositiveCount: positive,
		NegativeCount: negative,
		PositiveRatio: FormatFixed1(sentimentRatio(positive, negative) * 100),
		Sentiment:     tone,
		TopKeywords:   freq,
		AverageLength: int(math.Round(float64(totalLen) / float64(len(reviews)))),
		ShortReviews:  short,
		LongReviews:   long,
	}, nil
}

// utf16Length counts s the way browsers measure string length: characters outside
// the Basic Multilingual Plane, such as most emoji, count twice.
func utf16Length(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
