package scoring

// Attribute categories in their fixed iteration order. Tie-breaks that fall back to
// "category order" use this slice.
const (
	CategoryPerformance = "performance"
	CategoryDesign      = "design"
	CategoryDurability  = "durability"
	CategoryPrice       = "price"
	CategoryWeight      = "weight"
	CategoryUsability   = "usability"
)

// Severity levels attached to issue rules.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// KeywordGroup is one category of the attribute dictionary.
type KeywordGroup struct {
	Category string
	Keywords []string
}

// IssueRule flags reviews that mention a known defect or complaint.
type IssueRule struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
	Severity string `json:"severity"`
}

// StatisticsKeyword is one entry of the statistics frequency table.
type StatisticsKeyword struct {
	Word     string
	Category string
}

var attributeKeywords = []KeywordGroup{
	{Category: CategoryPerformance, Keywords: []string{"성능", "속도", "반응", "센서", "정확", "빠르"}},
	{Category: CategoryDesign, Keywords: []string{"디자인", "외관", "모양", "예쁘", "세련", "깔끔"}},
	{Category: CategoryDurability, Keywords: []string{"내구성", "고장", "오래", "튼튼", "견고", "수명"}},
	{Category: CategoryPrice, Keywords: []string{"가격", "비싸", "저렴", "가성비", "비용"}},
	{Category: CategoryWeight, Keywords: []string{"무게", "가벼", "무거", "무게감"}},
	{Category: CategoryUsability, Keywords: []string{"편하", "불편", "사용", "조작", "그립", "손"}},
}

var attributeNames = map[string]string{
	CategoryPerformance: "성능",
	CategoryDesign:      "디자인",
	CategoryDurability:  "내구성",
	CategoryPrice:       "가격",
	CategoryWeight:      "무게",
	CategoryUsability:   "사용성",
}

var (
	positiveKeywords = []string{"좋", "훌륭", "완벽", "최고", "만족", "추천", "괜찮", "우수", "뛰어나", "성능", "품질"}
	negativeKeywords = []string{"문제", "고장", "불만", "실망", "별로", "안좋", "최악", "아쉽", "불편", "단점"}
)

var issueRules = []IssueRule{
	{Keyword: "더블클릭", Category: "품질", Severity: SeverityHigh},
	{Keyword: "고장", Category: "내구성", Severity: SeverityHigh},
	{Keyword: "비싸", Category: "가격", Severity: SeverityMedium},
	{Keyword: "무거", Category: "무게", Severity: SeverityLow},
	{Keyword: "불편", Category: "사용성", Severity: SeverityMedium},
}

// The statistics endpoint keeps its own, narrower taxonomy.
var (
	statsPositiveKeywords = []string{"좋", "최고", "만족", "추천", "훌륭", "완벽", "괜찮", "우수"}
	statsNegativeKeywords = []string{"문제", "고장", "불만", "실망", "별로", "안좋", "최악", "아쉽"}
	statsKeywords         = []StatisticsKeyword{
		{Word: "가격", Category: "가격"},
		{Word: "성능", Category: "성능"},
		{Word: "디자인", Category: "디자인"},
		{Word: "품질", Category: "품질"},
		{Word: "무게", Category: "무게"},
		{Word: "클릭", Category: "사용성"},
		{Word: "센서", Category: "성능"},
		{Word: "내구성", Category: "내구성"},
		{Word: "고장", Category: "품질"},
		{Word: "게임", Category: "용도"},
	}
)

// Categories returns the attribute categories in dictionary order.
func Categories() []string {
	out := make([]string, 0, len(attributeKeywords))
	for _, g := range attributeKeywords {
		out = append(out, g.Category)
	}
	return out
}

// AttributeName returns the Korean display name of a category, or the key itself.
func AttributeName(category string) string {
	if name, ok := attributeNames[category]; ok {
		return name
	}
	return category
}

// IssueRules returns a copy of the issue rule list in declaration order.
func IssueRules() []IssueRule {
	return append([]IssueRule(nil), issueRules...)
}
