package domain

// ContentType is how a page was presented to the LLM.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
)

// Detection is one signature or face hit located by an Object Detector (C4).
type Detection struct {
	BBox         [4]float64 `json:"bbox"` // xmin, ymin, xmax, ymax
	Confidence   float64    `json:"confidence"`
	IsHit        bool       `json:"is_hit"`
	ImageBase64  string     `json:"image_base64"`
}

// TokenUsage mirrors the LLM provider's usage block.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	ReasoningTokens  int `json:"reasoning_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// PageStatus is the terminal outcome recorded for a page once the pipeline
// (C5) stops processing it.
type PageStatus string

const (
	PageDone      PageStatus = "done"
	PageFailed    PageStatus = "failed"
	PageCancelled PageStatus = "cancelled"
	PageTimeout   PageStatus = "timeout"
)

// PageResult is the output of running C1-C4 over a single page of a
// document, per spec.md §3.
type PageResult struct {
	DocumentID       string
	PageNumber       int // 1-based
	ContentType      ContentType
	HierarchicalData *Node

	Signatures []Detection
	Faces      []Detection

	TokenUsage   TokenUsage
	FinishReason string
	DurationMs   int64
	Retries      int

	Status       PageStatus
	FailedStage  string
	Error        error
}

// Valid enforces the spec.md §3 invariant: exactly one of (hierarchical_data
// non-empty, error set) holds for a page that isn't cancelled/timed out.
func (p *PageResult) Valid() bool {
	if p.Status == PageCancelled || p.Status == PageTimeout {
		return true
	}
	hasData := p.HierarchicalData != nil && (p.HierarchicalData.Kind != KindObject || len(p.HierarchicalData.Keys) > 0)
	hasErr := p.Error != nil
	return hasData != hasErr
}
