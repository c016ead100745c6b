package scoring

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"time"
)

func reviewsOf(contents ...string) []Review {
	out := make([]Review, len(contents))
	for i, c := range contents {
		out[i] = Review{Content: c}
	}
	return out
}

func TestAnalyzeKeywordsEmptyInput(t *testing.T) {
	got := AnalyzeKeywords(nil)
	for _, category := range Categories() {
		count, ok := got[category]
		if !ok {
			t.Fatalf("missing category %s", category)
		}
		if count != 0 {
			t.Fatalf("category %s = %d, want 0", category, count)
		}
	}
}

func TestAnalyzeKeywordsCountsOccurrences(t *testing.T) {
	got := AnalyzeKeywords(reviewsOf("성능 성능 좋아요", "속도도 빠르고 성능 최고"))
	// 성능 x3, 속도 x1, 빠르 x1
	if got[CategoryPerformance] != 5 {
		t.Fatalf("performance = %d, want 5", got[CategoryPerformance])
	}
}

func TestAnalyzeKeywordsMissingContent(t *testing.T) {
	got := AnalyzeKeywords([]Review{{Nickname: "no-content"}, {Content: "디자인"}})
	if got[CategoryDesign] != 1 {
		t.Fatalf("design = %d, want 1", got[CategoryDesign])
	}
}

func TestAnalyzeKeywordsAdditiveOverConcatenation(t *testing.T) {
	a := reviewsOf("성능 좋고 디자인 깔끔", "무게가 가벼워요")
	b := reviewsOf("가격이 비싸요 가성비 별로", "그립감이 손에 잘 맞아요 사용 편하")

	left := AnalyzeKeywords(a)
	right := AnalyzeKeywords(b)
	combined := AnalyzeKeywords(append(append([]Review{}, a...), b...))

	for _, category := range Categories() {
		if combined[category] != left[category]+right[category] {
			t.Fatalf("category %s: combined %d != %d + %d", category, combined[category], left[category], right[category])
		}
	}
}

func TestAnalyzeSentimentPresenceNotOccurrence(t *testing.T) {
	got := AnalyzeSentiment(reviewsOf("좋아요 좋아요 좋아요"))
	if got.Positive != 1 {
		t.Fatalf("positive = %d, want 1", got.Positive)
	}
	if got.Negative != 0 {
		t.Fatalf("negative = %d, want 0", got.Negative)
	}
	if got.Ratio != 1 {
		t.Fatalf("ratio = %v, want 1", got.Ratio)
	}
}

func TestAnalyzeSentimentZeroCounts(t *testing.T) {
	got := AnalyzeSentiment(reviewsOf("그냥 평범한 마우스"))
	if got.Positive != 0 || got.Negative != 0 {
		t.Fatalf("expected zero counts, got %+v", got)
	}
	if got.Ratio != 0 {
		t.Fatalf("ratio = %v, want 0", got.Ratio)
	}
}

func TestExtractIssuesCountsReviewsAndPercentage(t *testing.T) {
	issues := ExtractIssues(reviewsOf("더블클릭 고장 문제", "비싸요"))
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %+v", len(issues), issues)
	}
	wantKeywords := []string{"더블클릭", "고장", "비싸"}
	for i, issue := range issues {
		if issue.Keyword != wantKeywords[i] {
			t.Fatalf("issues[%d].Keyword = %q, want %q", i, issue.Keyword, wantKeywords[i])
		}
		if issue.Count != 1 {
			t.Fatalf("issues[%d].Count = %d, want 1", i, issue.Count)
		}
		if issue.Percentage != "50.0" {
			t.Fatalf("issues[%d].Percentage = %q, want 50.0", i, issue.Percentage)
		}
	}
}

func TestExtractIssuesStableSortByCount(t *testing.T) {
	issues := ExtractIssues(reviewsOf(
		"불편해요",
		"불편하고 무거워요",
		"고장났어요",
		"비싸요",
	))
	got := make([]string, len(issues))
	for i, issue := range issues {
		got[i] = issue.Keyword
	}
	want := []string{"불편", "고장", "비싸", "무거"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestExtractIssuesCountsEachReviewOnce(t *testing.T) {
	issues := ExtractIssues(reviewsOf("고장 고장 고장", "멀쩡해요", "괜찮아요"))
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if issues[0].Count != 1 {
		t.Fatalf("count = %d, want 1", issues[0].Count)
	}
	if issues[0].Percentage != "33.3" {
		t.Fatalf("percentage = %q, want 33.3", issues[0].Percentage)
	}
}

func TestCalculateQualityScore(t *testing.T) {
	tests := []struct {
		name      string
		sentiment Sentiment
		keywords  KeywordCounts
		issues    []Issue
		want      float64
	}{
		{name: "base", want: 5.0},
		{name: "all positive", sentiment: Sentiment{Ratio: 1}, want: 8.0},
		{
			name:      "performance bonus",
			sentiment: Sentiment{Ratio: 0.5},
			keywords:  KeywordCounts{CategoryPerformance: 6},
			want:      7.0,
		},
		{
			name:     "performance at threshold gets no bonus",
			keywords: KeywordCounts{CategoryPerformance: 5},
			want:     5.0,
		},
		{
			name: "high issues subtract",
			issues: []Issue{
				{IssueRule: IssueRule{Severity: SeverityHigh}},
				{IssueRule: IssueRule{Severity: SeverityHigh}},
				{IssueRule: IssueRule{Severity: SeverityMedium}},
			},
			want: 3.0,
		},
		{name: "rounds to one decimal", sentiment: Sentiment{Ratio: 0.7}, want: 7.1},
		{name: "binary value below half rounds down", sentiment: Sentiment{Ratio: 1.0 / 60}, want: 5.0},
		{name: "binary value above half rounds up", sentiment: Sentiment{Ratio: 1.0 / 40}, want: 5.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateQualityScore(tt.sentiment, tt.keywords, tt.issues); got != tt.want {
				t.Fatalf("CalculateQualityScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatFixed1(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{name: "zero", in: 0, want: "0.0"},
		{name: "one third", in: 1.0 / 3 * 100, want: "33.3"},
		{name: "stored just below half", in: 3.0 / 2000 * 100, want: "0.1"},
		{name: "score just below half", in: 5 + 1.0/60*3, want: "5.0"},
		{name: "exact tie rounds up", in: 0.25, want: "0.3"},
		{name: "exact tie above one", in: 2.75, want: "2.8"},
		{name: "stored just above half", in: 0.45, want: "0.5"},
		{name: "negative exact tie", in: -0.25, want: "-0.3"},
		{name: "whole number", in: 10, want: "10.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatFixed1(tt.in); got != tt.want {
				t.Fatalf("FormatFixed1(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatScoreOfRoundedScoreIsStable(t *testing.T) {
	for pos := 0; pos <= 60; pos++ {
		for neg := 0; neg <= 60; neg++ {
			total := pos + neg
			if total == 0 {
				total = 1
			}
			sentiment := Sentiment{Positive: pos, Negative: neg, Ratio: float64(pos) / float64(total)}
			raw := baseQualityScore + sentiment.Ratio*sentimentWeight
			score := CalculateQualityScore(sentiment, nil, nil)
			if FormatScore(score) != FormatFixed1(raw) {
				t.Fatalf("pos=%d neg=%d: FormatScore = %q, want %q", pos, neg, FormatScore(score), FormatFixed1(raw))
			}
		}
	}
}

func TestCalculateQualityScoreClamped(t *testing.T) {
	many := make([]Issue, 20)
	for i := range many {
		many[i].Severity = SeverityHigh
	}
	if got := CalculateQualityScore(Sentiment{}, nil, many); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
	if got := CalculateQualityScore(Sentiment{Ratio: 5}, nil, nil); got != 10 {
		t.Fatalf("expected clamp to 10, got %v", got)
	}
}

func TestAnalyzeScoreAndRatioBounds(t *testing.T) {
	vocabulary := []string{
		"좋", "최고", "문제", "고장", "더블클릭", "비싸", "무거", "불편", "성능", "디자인",
		"가벼", "센서", "별로", "최악", "마우스", " ", "손", "가성비",
	}
	rng := rand.New(rand.NewSource(42))
	now := time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(8)
		reviews := make([]Review, n)
		for i := range reviews {
			var b strings.Builder
			for w := rng.Intn(12); w > 0; w-- {
				b.WriteString(vocabulary[rng.Intn(len(vocabulary))])
			}
			reviews[i].Content = b.String()
		}
		res, err := Analyze(reviews, "p", now)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if res.QualityScore < 0 || res.QualityScore > 10 {
			t.Fatalf("quality score out of range: %v", res.QualityScore)
		}
		if res.Sentiment.Ratio < 0 || res.Sentiment.Ratio > 1 {
			t.Fatalf("ratio out of range: %v", res.Sentiment.Ratio)
		}
		for i := 1; i < len(res.Issues); i++ {
			if res.Issues[i-1].Count < res.Issues[i].Count {
				t.Fatalf("issues not sorted: %+v", res.Issues)
			}
		}
	}
}

func TestAnalyzeScenarioPositiveReview(t *testing.T) {
	res, err := Analyze(reviewsOf("성능 최고 가성비 좋음"), "마우스", time.Now())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Keywords[CategoryPerformance] < 1 {
		t.Fatalf("performance = %d, want >= 1", res.Keywords[CategoryPerformance])
	}
	if res.Sentiment.Positive < 2 {
		t.Fatalf("positive = %d, want >= 2", res.Sentiment.Positive)
	}
	if res.QualityScore <= 5.0 {
		t.Fatalf("quality score = %v, want > 5", res.QualityScore)
	}
}

func TestAnalyzeRejectsEmpty(t *testing.T) {
	if _, err := Analyze(nil, "p", time.Now()); err != ErrNoReviews {
		t.Fatalf("expected ErrNoReviews, got %v", err)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	reviews := reviewsOf("더블클릭 문제가 있어요", "디자인 예쁘고 가벼워요", "가격 대비 성능 최고")
	now := time.Date(2026, time.March, 2, 14, 30, 0, 0, time.UTC)

	first, err := Analyze(reviews, "G102", now)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := Analyze(reviews, "G102", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !reflect.DeepEqual(first.Keywords, second.Keywords) ||
		!reflect.DeepEqual(first.Sentiment, second.Sentiment) ||
		!reflect.DeepEqual(first.Issues, second.Issues) ||
		first.QualityScore != second.QualityScore {
		t.Fatalf("structured output differs between runs")
	}
	stamp := func(r string) string {
		idx := strings.Index(r, "**분석 일시**")
		if idx < 0 {
			t.Fatalf("report missing timestamp line")
		}
		return r[:idx]
	}
	if stamp(first.Report) != stamp(second.Report) {
		t.Fatalf("report differs outside the timestamp")
	}
}
