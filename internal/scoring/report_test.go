package scoring

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestKoreanTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{name: "afternoon", in: time.Date(2026, time.October, 19, 15, 4, 5, 0, time.UTC), want: "2026. 10. 19. 오후 3:04:05"},
		{name: "midnight", in: time.Date(2026, time.January, 2, 0, 5, 9, 0, time.UTC), want: "2026. 1. 2. 오전 12:05:09"},
		{name: "noon", in: time.Date(2026, time.June, 30, 12, 0, 0, 0, time.UTC), want: "2026. 6. 30. 오후 12:00:00"},
		{name: "morning", in: time.Date(2026, time.June, 30, 9, 41, 7, 0, time.UTC), want: "2026. 6. 30. 오전 9:41:07"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KoreanTimestamp(tt.in); got != tt.want {
				t.Fatalf("KoreanTimestamp() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTopAttributesTieKeepsCategoryOrder(t *testing.T) {
	got := TopAttributes(KeywordCounts{}, 3)
	want := []AttributeCount{
		{Category: CategoryPerformance},
		{Category: CategoryDesign},
		{Category: CategoryDurability},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TopAttributes() = %+v, want %+v", got, want)
	}

	got = TopAttributes(KeywordCounts{CategoryUsability: 4, CategoryPrice: 4, CategoryDesign: 1}, 3)
	want = []AttributeCount{
		{Category: CategoryPrice, Count: 4},
		{Category: CategoryUsability, Count: 4},
		{Category: CategoryDesign, Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TopAttributes() = %+v, want %+v", got, want)
	}
}

func TestMarketingMessages(t *testing.T) {
	fallback := MarketingMessages(KeywordCounts{})
	if len(fallback) != 1 || !strings.HasPrefix(fallback[0], "1. ") || !strings.Contains(fallback[0], "검증된 품질") {
		t.Fatalf("unexpected fallback: %v", fallback)
	}

	got := MarketingMessages(KeywordCounts{CategoryWeight: 4, CategoryDesign: 3})
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %v", got)
	}
	if !strings.HasPrefix(got[0], "1. ") || !strings.Contains(got[0], "가벼움") {
		t.Fatalf("unexpected first message: %q", got[0])
	}
	if !strings.HasPrefix(got[1], "2. ") || !strings.Contains(got[1], "두 마리 토끼") {
		t.Fatalf("unexpected second message: %q", got[1])
	}
}

func TestStrengthsAndWeaknesses(t *testing.T) {
	strengths := Strengths(KeywordCounts{CategoryPerformance: 6, CategoryWeight: 3, CategoryDesign: 3})
	want := []string{"우수한 성능과 센서 정확도", "세련된 디자인"}
	if !reflect.DeepEqual(strengths, want) {
		t.Fatalf("Strengths() = %v, want %v", strengths, want)
	}

	weaknesses := Weaknesses([]Issue{
		{IssueRule: IssueRule{Category: "내구성", Severity: SeverityHigh}, Percentage: "25.0"},
		{IssueRule: IssueRule{Category: "가격", Severity: SeverityMedium}, Percentage: "50.0"},
	})
	if !reflect.DeepEqual(weaknesses, []string{"내구성 문제 (25.0% 언급)"}) {
		t.Fatalf("Weaknesses() = %v", weaknesses)
	}
}

func TestSentimentLabel(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0.9, "긍정적"},
		{0.6, "중립적"},
		{0.41, "중립적"},
		{0.4, "부정적"},
		{0, "부정적"},
	}
	for _, tt := range tests {
		if got := SentimentLabel(tt.ratio); got != tt.want {
			t.Fatalf("SentimentLabel(%v) = %q, want %q", tt.ratio, got, tt.want)
		}
	}
}

func TestGenerateReportSections(t *testing.T) {
	now := time.Date(2026, time.October, 19, 15, 4, 5, 0, time.UTC)
	report := GenerateReport(ReportInput{
		ProductName: "로지텍 G102",
		ReviewCount: 2,
		Keywords:    KeywordCounts{CategoryPerformance: 7, CategoryPrice: 2},
		Sentiment:   Sentiment{Positive: 4, Negative: 1, Ratio: 0.8},
		Issues: []Issue{
			{IssueRule: IssueRule{Keyword: "고장", Category: "내구성", Severity: SeverityHigh}, Count: 1, Percentage: "50.0"},
		},
		QualityScore: 6.9,
		GeneratedAt:  now,
	})

	wantInOrder := []string{
		"# 로지텍 G102 리뷰 분석 보고서",
		"### 전반적인 품질 점수: **6.9/10**",
		"**감성 분석 결과**: 긍정적 (긍정 4회 / 부정 1회)",
		"1. 우수한 성능과 센서 정확도",
		"1. 내구성 문제 (50.0% 언급)",
		"가장 많이 언급된 문제는 \"고장\"로, 50.0%의 리뷰에서 언급되었습니다.",
		"---",
		"## 🎯 2. 마케팅 개선방안",
		"1. **성능** - 사용자들이 가장 많이 언급 (7회)",
		"2. **가격** - 사용자들이 가장 많이 언급 (2회)",
		"1. 내구성: 고장 문제 해결 강조",
		"1. \"프로가 선택한 성능, 이제 당신의 무기로\"",
		"- 1차: 프로게이머 및 하드코어 게이머",
		"- 2차: 고성능을 중시하는 사용자",
		"## 🔧 3. 제품 개선 제안",
		"1. **내구성 개선**: 고장 문제 (1건 언급)",
		"**분석 기준**: 총 2개 리뷰 분석 완료",
		"**분석 일시**: 2026. 10. 19. 오후 3:04:05",
	}
	pos := 0
	for _, fragment := range wantInOrder {
		idx := strings.Index(report[pos:], fragment)
		if idx < 0 {
			t.Fatalf("report missing %q after offset %d:\n%s", fragment, pos, report)
		}
		pos += idx + len(fragment)
	}
	if !strings.HasSuffix(report, "\n") {
		t.Fatalf("report should end with a newline")
	}
}

func TestGenerateReportFallbacks(t *testing.T) {
	report := GenerateReport(ReportInput{
		ProductName: "빈 상품",
		ReviewCount: 1,
		Keywords:    KeywordCounts{},
	})
	for _, fragment := range []string{
		"- 리뷰에서 명확한 장점을 찾기 어렵습니다.",
		"- 특별한 단점이 언급되지 않았습니다.",
		"특별한 품질 이슈가 발견되지 않았습니다.",
		"- 현재 큰 개선 사항은 없으나, 지속적인 품질 관리 필요",
		"- 긴급한 개선 사항 없음",
		"- 1차: 일반 사용자",
		"- 2차: 가성비를 중시하는 사용자",
		"**감성 분석 결과**: 부정적",
	} {
		if !strings.Contains(report, fragment) {
			t.Fatalf("report missing fallback %q", fragment)
		}
	}
}
