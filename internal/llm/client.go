package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
	pkgerrors "github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/errors"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/logging"
)

// Client implements C2 against a chat-completions endpoint. One client
// instance owns a single bounded-pool *http.Client, sized to worker
// concurrency at construction time — spec.md §4.2's "per-thread HTTP
// client... recreated if pool size grows; closed on teardown" is modeled as
// one NewClient(concurrency) call at worker startup (cmd/worker), shared by
// every pipeline run, rather than one http.Client per goroutine; the pool is
// not resized afterwards. Go's http.Transport is already safe for
// concurrent use by many goroutines (spec.md §9: "use one connection pool
// owned by the LLM client with bounded concurrency; do not share mutable
// clients across workers" — the pool is shared, the workers are not).
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *logging.Logger
}

// backoffSchedule is spec.md §4.2's exponential backoff: 1, 2, 4 seconds.
var backoffSchedule = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// NewClient constructs a client with a connection pool sized to concurrency.
func NewClient(baseURL, apiKey, model string, concurrency int) *Client {
	transport := &http.Transport{
		MaxIdleConns:        concurrency * 2,
		MaxIdleConnsPerHost: concurrency * 2,
		MaxConnsPerHost:     concurrency * 2,
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout:   90 * time.Second, // spec.md §5: LLM transport timeout ~90s
			Transport: transport,
		},
		logger: logging.NewLogger("llm.Client"),
	}
}

// Close tears down the underlying transport's idle connections.
func (c *Client) Close() {
	if t, ok := c.httpClient.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}

// Call implements C2's call(prompt, content, schema, task, doc_tag,
// content_type) -> Response (spec.md §4.2).
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	wireReq := c.buildRequest(req)
	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("marshal llm request: %w", err)
	}

	var raw []byte
	var finishReason string
	var usage domain.TokenUsage
	var durationMs int64

	var lastErr error
	for attempt := 0; attempt <= len(backoffSchedule); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffSchedule[attempt-1]):
			}
		}

		start := time.Now()
		content, reason, u, err := c.doRequest(ctx, body)
		durationMs = time.Since(start).Milliseconds()
		if err == nil {
			raw = []byte(content)
			finishReason = reason
			usage = u
			lastErr = nil
			break
		}

		lastErr = err
		perr, ok := err.(*pkgerrors.ProcessingError)
		if !ok || !perr.Retryable() {
			// ProviderError and other non-network errors are not retried
			// here (spec.md §4.2).
			return nil, err
		}
		c.logger.Warn("llm transport error, retrying", "doc_tag", req.DocTag, "attempt", attempt, "error", err)
	}
	if lastErr != nil {
		return nil, lastErr
	}

	if len(raw) == 0 {
		return nil, pkgerrors.NewEmptyResponseError(req.DocTag, string(req.Task))
	}

	// OpenAI-style usage.completion_tokens includes reasoning tokens, so the
	// "all budget spent on reasoning, nothing left for text" case (spec.md
	// §4.2) shows up as completion_tokens > 0 with zero tokens left over once
	// reasoning is subtracted out, not as completion_tokens == 0 itself.
	textTokens := usage.CompletionTokens - usage.ReasoningTokens
	if finishReason == "length" && usage.ReasoningTokens > 0 && textTokens == 0 {
		return nil, pkgerrors.NewTokenLimitError(req.DocTag, string(req.Task))
	}

	parsed, repaired, err := Repair(string(raw))
	if err != nil {
		return nil, pkgerrors.NewJSONParseError(req.DocTag, string(req.Task), string(raw), err)
	}

	node, err := domain.FromJSON([]byte(repaired))
	if err != nil {
		return nil, pkgerrors.NewJSONParseError(req.DocTag, string(req.Task), string(raw), err)
	}

	node = normalize(req.Task, node)

	return &Response{
		Parsed:           parsed,
		HierarchicalData: node,
		Usage:            usage,
		FinishReason:     finishReason,
		DurationMs:       durationMs,
	}, nil
}

// normalize applies spec.md §4.2's per-task output normalization.
func normalize(task Task, node *domain.Node) *domain.Node {
	switch task {
	case TaskFieldDetection, TaskFormCreation:
		// Hierarchical object; insertion order already preserved by
		// domain.FromJSON's token-driven decode, which is the `_keyOrder`
		// guarantee spec.md asks for.
		return node
	case TaskWithoutTemplateExtraction, TaskTemplateGuidedExtraction, TaskBankStatementExtraction:
		return node
	default:
		if node.Kind == domain.KindObject {
			if _, hasFields := node.Fields["fields"]; hasFields {
				return node
			}
		}
		wrapper := domain.NewObject()
		arr := &domain.Node{Kind: domain.KindArray}
		if node.Kind == domain.KindObject {
			for _, k := range node.Keys {
				arr.Array = append(arr.Array, node.Fields[k])
			}
		} else {
			arr.Array = append(arr.Array, node)
		}
		wrapper.Set("fields", arr)
		return wrapper
	}
}

func (c *Client) buildRequest(req Request) chatCompletionRequest {
	var parts []contentPart
	parts = append(parts, contentPart{Type: "text", Text: req.Prompt})

	if req.ContentType == domain.ContentImage {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: req.Content}})
	} else {
		parts[0].Text = req.Prompt + "\n\n" + req.Content
	}

	rf := &responseFormat{Type: "json_object"}

	return chatCompletionRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: parts}},
		ResponseFormat: rf,
		Temperature:    0,
	}
}

func (c *Client) doRequest(ctx context.Context, body []byte) (string, string, domain.TokenUsage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", "", domain.TokenUsage{}, pkgerrors.NewTransportError("", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", "", domain.TokenUsage{}, pkgerrors.NewTransportError("", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", domain.TokenUsage{}, pkgerrors.NewTransportError("", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", "", domain.TokenUsage{}, pkgerrors.NewProviderError("", resp.StatusCode, string(respBody))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", "", domain.TokenUsage{}, pkgerrors.NewJSONParseError("", "", string(respBody), err)
	}
	if len(parsed.Choices) == 0 {
		return "", "", domain.TokenUsage{}, nil
	}

	usage := domain.TokenUsage{
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		ReasoningTokens:  parsed.Usage.CompletionTokensDetails.ReasoningTokens,
		TotalTokens:      parsed.Usage.TotalTokens,
	}

	return parsed.Choices[0].Message.Content, parsed.Choices[0].FinishReason, usage, nil
}
