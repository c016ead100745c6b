package scoring

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const sectionSeparator = "\n\n---\n\n"

// ReportInput carries everything the Markdown report is assembled from.
type ReportInput struct {
	ProductName  string
	ReviewCount  int
	Keywords     KeywordCounts
	Sentiment    Sentiment
	Issues       []Issue
	QualityScore float64
	GeneratedAt  time.Time
}

// AttributeCount is a category with its keyword count.
type AttributeCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type reportSection func(ReportInput) string

var reportSections = []reportSection{
	qualitySection,
	marketingSection,
	improvementSection,
	footerSection,
}

// GenerateReport renders the Markdown analysis report. Output depends only on the input,
// including the GeneratedAt timestamp it embeds.
func GenerateReport(in ReportInput) string {
	parts := make([]string, 0, len(reportSections))
	for _, build := range reportSections {
		parts = append(parts, build(in))
	}
	return strings.Join(parts, sectionSeparator)
}

// Strengths lists the scripted strength sentences triggered by keyword counts.
func Strengths(keywords KeywordCounts) []string {
	var out []string
	if keywords[CategoryPerformance] > performanceStrongCount {
		out = append(out, "우수한 성능과 센서 정확도")
	}
	if keywords[CategoryWeight] > weightStrongCount {
		out = append(out, "가벼운 무게로 편안한 사용감")
	}
	if keywords[CategoryDesign] > designStrongCount {
		out = append(out, "세련된 디자인")
	}
	return out
}

// Weaknesses lists one line per high-severity issue.
func Weaknesses(issues []Issue) []string {
	var out []string
	for _, issue := range issues {
		if issue.Severity == SeverityHigh {
			out = append(out, fmt.Sprintf("%s 문제 (%s%% 언급)", issue.Category, issue.Percentage))
		}
	}
	return out
}

// TopAttributes returns the n most mentioned categories. Ties keep dictionary order.
func TopAttributes(keywords KeywordCounts, n int) []AttributeCount {
	attrs := make([]AttributeCount, 0, len(attributeKeywords))
	for _, category := range Categories() {
		attrs = append(attrs, AttributeCount{Category: category, Count: keywords[category]})
	}
	sort.SliceStable(attrs, func(i, j int) bool {
		return attrs[i].Count > attrs[j].Count
	})
	if n >= 0 && len(attrs) > n {
		attrs = attrs[:n]
	}
	return attrs
}

// MarketingMessages returns numbered marketing copy lines, falling back to a generic one.
func MarketingMessages(keywords KeywordCounts) []string {
	var scripted []string
	if keywords[CategoryPerformance] > performanceStrongCount {
		scripted = append(scripted, `"프로가 선택한 성능, 이제 당신의 무기로"`)
	}
	if keywords[CategoryWeight] > weightStrongCount {
		scripted = append(scripted, `"가벼움이 만드는 차이, 경험해보세요"`)
	}
	if keywords[CategoryDesign] > designStrongCount {
		scripted = append(scripted, `"성능과 디자인, 두 마리 토끼를 잡다"`)
	}
	if len(scripted) == 0 {
		scripted = append(scripted, `"검증된 품질, 신뢰할 수 있는 선택"`)
	}
	return numbered(scripted)
}

// SentimentLabel classifies a positive ratio for the report headline.
func SentimentLabel(ratio float64) string {
	switch {
	case ratio > 0.6:
		return "긍정적"
	case ratio > 0.4:
		return "중립적"
	default:
		return "부정적"
	}
}

func qualitySection(in ReportInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s 리뷰 분석 보고서\n\n", in.ProductName)
	b.WriteString("## 📊 1. 제품 품질 평가\n\n")
	fmt.Fprintf(&b, "### 전반적인 품질 점수: **%s/10**\n\n", FormatScore(in.QualityScore))
	fmt.Fprintf(&b, "**감성 분석 결과**: %s (긍정 %d회 / 부정 %d회)\n\n",
		SentimentLabel(in.Sentiment.Ratio), in.Sentiment.Positive, in.Sentiment.Negative)

	b.WriteString("### ✅ 주요 장점\n")
	b.WriteString(listOr(numbered(Strengths(in.Keywords)), "- 리뷰에서 명확한 장점을 찾기 어렵습니다."))
	b.WriteString("\n\n### ⚠️ 주요 단점\n")
	b.WriteString(listOr(numbered(Weaknesses(in.Issues)), "- 특별한 단점이 언급되지 않았습니다."))
	b.WriteString("\n\n### 🔍 품질 관련 핵심 이슈\n")
	if len(in.Issues) > 0 {
		top := in.Issues[0]
		fmt.Fprintf(&b, "가장 많이 언급된 문제는 \"%s\"로, %s%%의 리뷰에서 언급되었습니다.", top.Keyword, top.Percentage)
	} else {
		b.WriteString("특별한 품질 이슈가 발견되지 않았습니다.")
	}
	return b.String()
}

func marketingSection(in ReportInput) string {
	var b strings.Builder
	b.WriteString("## 🎯 2. 마케팅 개선방안\n\n")

	b.WriteString("### 강조해야 할 마케팅 포인트\n")
	top := TopAttributes(in.Keywords, 3)
	points := make([]string, 0, len(top))
	for _, attr := range top {
		points = append(points, fmt.Sprintf("**%s** - 사용자들이 가장 많이 언급 (%d회)", AttributeName(attr.Category), attr.Count))
	}
	b.WriteString(strings.Join(numbered(points), "\n"))

	b.WriteString("\n\n### 개선이 필요한 영역\n")
	areas := make([]string, 0, 3)
	for i, issue := range in.Issues {
		if i == 3 {
			break
		}
		areas = append(areas, fmt.Sprintf("%s: %s 문제 해결 강조", issue.Category, issue.Keyword))
	}
	b.WriteString(listOr(numbered(areas), "- 현재 큰 개선 사항은 없으나, 지속적인 품질 관리 필요"))

	b.WriteString("\n\n### 추천 마케팅 메시지\n")
	b.WriteString(strings.Join(MarketingMessages(in.Keywords), "\n"))

	primary := "일반 사용자"
	if in.Sentiment.Ratio > 0.5 {
		primary = "프로게이머 및 하드코어 게이머"
	}
	secondary := "가성비를 중시하는 사용자"
	if in.Keywords[CategoryPerformance] > performanceStrongCount {
		secondary = "고성능을 중시하는 사용자"
	}
	fmt.Fprintf(&b, "\n\n### 타겟 고객층\n- 1차: %s\n- 2차: %s", primary, secondary)
	return b.String()
}

func improvementSection(in ReportInput) string {
	var b strings.Builder
	b.WriteString("## 🔧 3. 제품 개선 제안\n\n")

	b.WriteString("### 즉시 개선 필요 사항\n")
	var urgent []string
	for _, issue := range in.Issues {
		if issue.Severity == SeverityHigh {
			urgent = append(urgent, fmt.Sprintf("**%s 개선**: %s 문제 (%d건 언급)", issue.Category, issue.Keyword, issue.Count))
		}
	}
	b.WriteString(listOr(numbered(urgent), "- 긴급한 개선 사항 없음"))

	b.WriteString("\n\n### 중장기 개선 방향\n")
	b.WriteString(strings.Join(numbered([]string{
		"품질 일관성 유지 및 내구성 강화",
		"사용자 피드백 기반 소프트웨어 업데이트",
		"A/S 정책 개선 및 고객 지원 강화",
	}), "\n"))

	b.WriteString("\n\n### 고객 만족도 향상 방안\n")
	b.WriteString(strings.Join(numbered([]string{
		"주요 이슈에 대한 투명한 커뮤니케이션",
		"보증 기간 연장 또는 교환 정책 개선",
		"사용자 커뮤니티 활성화",
	}), "\n"))
	return b.String()
}

func footerSection(in ReportInput) string {
	return fmt.Sprintf("**분석 기준**: 총 %d개 리뷰 분석 완료\n**분석 일시**: %s\n",
		in.ReviewCount, KoreanTimestamp(in.GeneratedAt))
}

// KoreanTimestamp formats t like the ko-KR locale, e.g. "2026. 10. 19. 오후 3:04:05".
func KoreanTimestamp(t time.Time) string {
	meridiem := "오전"
	hour := t.Hour()
	if hour >= 12 {
		meridiem = "오후"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d. %d. %d. %s %d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), meridiem, hour, t.Minute(), t.Second())
}

func numbered(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strconv.Itoa(i+1) + ". " + item
	}
	return out
}

func listOr(lines []string, fallback string) string {
	if len(lines) == 0 {
		return fallback
	}
	return strings.Join(lines, "\n")
}
