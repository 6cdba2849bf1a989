// Package llm implements C2, the LLM Client: a typed, retry-wrapped
// request/response wrapper around a chat-completions endpoint, with a JSON
// repair pipeline and token accounting.
//
// Grounded on the teacher's internal/clients/mageagent_client.go: a
// package-owned *http.Client with a bounded timeout, context-aware request
// construction, typed JSON request/response structs, and %w-wrapped errors.
// The domain changes from "delegate OCR/layout to MageAgent" to "call a
// chat-completions endpoint directly" (spec.md §4.2).
package llm

import "github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"

// Task is one of the recognized extraction tasks (spec.md §4.3).
type Task string

const (
	TaskFieldDetection            Task = "field_detection"
	TaskFormCreation              Task = "form_creation"
	TaskTemplateMatching          Task = "template_matching"
	TaskDBTemplateMatching        Task = "db_template_matching"
	TaskWithoutTemplateExtraction Task = "without_template_extraction"
	TaskTemplateGuidedExtraction  Task = "template_guided_extraction"
	TaskBankStatementExtraction   Task = "bank_statement_extraction"

	// TaskFieldMapping is C8's AI-assisted mapping batch call. It is not one
	// of spec.md §4.3's page-extraction tasks, so normalize() does not
	// special-case it; callers read Response.Parsed directly rather than
	// Response.HierarchicalData.
	TaskFieldMapping Task = "field_mapping"
)

// ContentType mirrors domain.ContentType for request construction.
type ContentType = domain.ContentType

// Request is C2's call(...) input (spec.md §4.2).
type Request struct {
	Prompt      string
	Content     string // raw text, or a data: URL for image content
	Schema      map[string]interface{}
	Task        Task
	DocTag      string // diagnostic tag carried into error messages
	ContentType ContentType
}

// Response is C2's call(...) output.
type Response struct {
	Parsed           map[string]interface{}
	HierarchicalData *domain.Node
	Fields           []domain.ExtractedField
	Usage            domain.TokenUsage
	FinishReason     string
	DurationMs       int64
}

// chatCompletionRequest is the wire shape sent to an OpenAI-compatible
// chat-completions endpoint.
type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
		CompletionTokensDetails struct {
			ReasoningTokens int `json:"reasoning_tokens"`
		} `json:"completion_tokens_details"`
	} `json:"usage"`
}
