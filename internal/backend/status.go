package backend

// AnalysisStatus is the pipeline state the backend reports for a product.
type AnalysisStatus string

const (
	StatusPending   AnalysisStatus = "PENDING"
	StatusCrawling  AnalysisStatus = "CRAWLING"
	StatusCollected AnalysisStatus = "COLLECTED"
	StatusAnalyzing AnalysisStatus = "ANALYZING"
	StatusAnalyzed  AnalysisStatus = "ANALYZED"
	StatusFailed    AnalysisStatus = "FAILED"
)

// StatusInfo is the display label for a status.
type StatusInfo struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

var statusInfo = map[AnalysisStatus]StatusInfo{
	StatusPending:   {Text: "대기 중", Icon: "⏳"},
	StatusCrawling:  {Text: "리뷰 수집 중", Icon: "🔄"},
	StatusCollected: {Text: "수집 완료", Icon: "✅"},
	StatusAnalyzing: {Text: "분석 진행 중", Icon: "🧠"},
	StatusAnalyzed:  {Text: "분석 완료", Icon: "🎉"},
	StatusFailed:    {Text: "실패", Icon: "❌"},
}

// Info returns the display label; unknown statuses fall back to pending.
func (s AnalysisStatus) Info() StatusInfo {
	if info, ok := statusInfo[s]; ok {
		return info
	}
	return statusInfo[StatusPending]
}

// IsBusy reports whether a job is running for the product.
func (s AnalysisStatus) IsBusy() bool {
	return s == StatusCrawling || s == StatusAnalyzing
}

// Valid reports whether s is one of the known statuses.
func (s AnalysisStatus) Valid() bool {
	_, ok := statusInfo[s]
	return ok
}
