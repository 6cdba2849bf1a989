// Package pipeline implements C5, the Page Pipeline: the staged,
// callback-driven flow that turns one page's PDF bytes into a PageResult by
// running C1 (PDF Page Resolver), C4 (Object Detectors) and C2 (LLM Client)
// in the order spec.md §4.5 requires, across bounded worker pools.
//
// Grounded on spec.md §9's guidance to model a page's intermediate
// artifacts as "a single value passed between stages, not a shared mutable
// map with keys per artifact": each page is driven by processPage, a plain
// function that threads one pageState value through PAGE_READY ->
// (TEXT_READY | IMAGE_RENDERED -> IMAGE_ENCODED) -> LLM_DONE -> PARSED ->
// MERGED, rather than a shared map of stage outputs. Concurrency follows
// the teacher's worker-pool idiom elsewhere in this module (buffered-
// channel semaphores), generalized to the four independently-sized pools
// spec.md §5 calls for.
package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/detect"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/llm"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/logging"
	pkgerrors "github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/errors"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/pdfpage"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/prompts"
)

// bankStatementDetectionWindow: spec.md §8 invariant 8 and §5's ordering
// guarantee. Pages 1-3 are tried sequentially, in order, until one yields
// `_table_headers` or the window is exhausted; the remaining pages are then
// dispatched in parallel, carrying the headers if one was found.
const bankStatementDetectionWindow = 3

// Config carries C5's tunable knobs (spec.md §5, §6's process_document
// config options).
type Config struct {
	MaxWorkers              int
	PagesPerThread          int
	MaxRetriesPerStage      int
	PipelineDeadlineSec     int
	TextConfidenceThreshold float64
	RenderScale             float64
	Coord                   pdfpage.CoordConfig
}

// Deps are C5's collaborators: C1, C2 and C4, each injected as an explicit
// value (spec.md §9: "make each component a value with an explicit
// constructor; inject into the pipeline struct").
type Deps struct {
	Resolver          *pdfpage.Resolver
	LLM               *llm.Client
	SignatureDetector *detect.Detector
	FaceDetector      *detect.Detector
	Logger            *logging.Logger
}

// Pipeline runs C5 over one document's pages.
type Pipeline struct {
	cfg  Config
	deps Deps

	pagePool    chan struct{} // bounds pages in flight
	renderPool  chan struct{} // pool1: CPU-light PDF ops
	encodePool  chan struct{} // pool2: image encoding
	llmPool     chan struct{} // pool3: LLM HTTP calls, sized to max_workers
	mergePool   chan struct{} // pool4: parse/merge
}

// New constructs a pipeline. Pool sizes all derive from cfg.MaxWorkers so a
// slow LLM provider cannot starve PDF rendering and vice versa (spec.md §5).
func New(cfg Config, deps Deps) *Pipeline {
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	if cfg.PagesPerThread < 1 {
		cfg.PagesPerThread = 1
	}
	pageConcurrency := cfg.MaxWorkers * cfg.PagesPerThread
	return &Pipeline{
		cfg:        cfg,
		deps:       deps,
		pagePool:   make(chan struct{}, pageConcurrency),
		renderPool: make(chan struct{}, cfg.MaxWorkers),
		encodePool: make(chan struct{}, cfg.MaxWorkers),
		llmPool:    make(chan struct{}, cfg.MaxWorkers),
		mergePool:  make(chan struct{}, cfg.MaxWorkers),
	}
}

// RunResult summarizes one document's pipeline pass.
type RunResult struct {
	Pages           []*domain.PageResult
	PagesProcessed  int
	PagesFailed     int
	PagesCancelled  int
}

// Run implements C5 over a whole document: page_count(pdf_bytes) pages,
// each staged through C1/C4/C2, honoring bank-statement sequential-prefix
// ordering (spec.md §5, §8 invariant 8) and the shared cancellation token
// and pipeline deadline (spec.md §5).
func (p *Pipeline) Run(ctx context.Context, documentID, jobID string, pdfBytes []byte, task llm.Task, documentType string, cancel *CancelToken) (*RunResult, error) {
	deadline := time.Duration(p.cfg.PipelineDeadlineSec) * time.Second
	if deadline <= 0 {
		deadline = 10 * time.Minute
	}
	runCtx, stop := context.WithTimeout(ctx, deadline)
	defer stop()
	defer p.deps.Resolver.Release(documentID)

	pageCount, err := p.deps.Resolver.PageCount(documentID, pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("page_count: %w", err)
	}

	results := make([]*domain.PageResult, pageCount)
	isBankStatement := documentType == "bank_statement" || task == llm.TaskBankStatementExtraction

	if isBankStatement && pageCount > 1 {
		p.runBankStatement(runCtx, documentID, jobID, pdfBytes, task, documentType, cancel, results)
	} else {
		p.runParallel(runCtx, documentID, jobID, pdfBytes, task, documentType, cancel, prompts.Context{}, results, allPages(pageCount))
	}

	out := &RunResult{Pages: results}
	for _, r := range results {
		if r == nil {
			continue
		}
		switch r.Status {
		case domain.PageDone:
			out.PagesProcessed++
		case domain.PageFailed, domain.PageTimeout:
			out.PagesFailed++
		case domain.PageCancelled:
			out.PagesCancelled++
		}
	}
	return out, nil
}

func allPages(n int) []int {
	pages := make([]int, n)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// runBankStatement implements spec.md §8 invariant 8: try pages 1..window
// sequentially until one yields `_table_headers`, then dispatch the rest in
// parallel carrying those headers (or with no headers, if none of the
// window's pages yielded any).
func (p *Pipeline) runBankStatement(ctx context.Context, documentID, jobID string, pdfBytes []byte, task llm.Task, documentType string, cancel *CancelToken, results []*domain.PageResult) {
	pageCount := len(results)
	window := bankStatementDetectionWindow
	if window > pageCount {
		window = pageCount
	}

	var headers []string
	lastPrefixPage := 0
	for i := 1; i <= window; i++ {
		promptCtx := prompts.Context{IsFirstPage: i == 1, PageNumber: i}
		r := p.processPage(ctx, documentID, jobID, pdfBytes, i, task, documentType, cancel, promptCtx)
		results[i-1] = r
		lastPrefixPage = i
		if r.HierarchicalData != nil {
			if h := tableHeaders(r.HierarchicalData); len(h) > 0 {
				headers = h
				break
			}
		}
	}

	remaining := make([]int, 0, pageCount-lastPrefixPage)
	for i := lastPrefixPage + 1; i <= pageCount; i++ {
		remaining = append(remaining, i)
	}
	if len(remaining) == 0 {
		return
	}
	promptCtx := prompts.Context{IsFirstPage: false, TableHeaders: headers}
	p.runParallel(ctx, documentID, jobID, pdfBytes, task, documentType, cancel, promptCtx, results, remaining)
}

// runParallel dispatches the given 1-based page indices concurrently,
// bounded by p.pagePool, writing each result into results[page-1].
func (p *Pipeline) runParallel(ctx context.Context, documentID, jobID string, pdfBytes []byte, task llm.Task, documentType string, cancel *CancelToken, promptCtx prompts.Context, results []*domain.PageResult, pages []int) {
	done := make(chan struct{}, len(pages))
	for _, pageNum := range pages {
		pageNum := pageNum
		p.pagePool <- struct{}{}
		go func() {
			defer func() { <-p.pagePool; done <- struct{}{} }()
			pc := promptCtx
			pc.PageNumber = pageNum
			results[pageNum-1] = p.processPage(ctx, documentID, jobID, pdfBytes, pageNum, task, documentType, cancel, pc)
		}()
	}
	for range pages {
		<-done
	}
}

// processPage runs C1 -> (C4) -> C2 over one page, threading a single
// pageState through the stages named in spec.md §4.5's order (spec.md §9:
// no shared mutable artifact map).
func (p *Pipeline) processPage(ctx context.Context, documentID, jobID string, pdfBytes []byte, pageNum int, task llm.Task, documentType string, cancel *CancelToken, promptCtx prompts.Context) *domain.PageResult {
	result := &domain.PageResult{DocumentID: documentID, PageNumber: pageNum}

	if cancel.Cancelled() {
		result.Status = domain.PageCancelled
		return result
	}
	if ctx.Err() != nil {
		result.Status = domain.PageTimeout
		result.FailedStage = "PAGE_READY"
		return result
	}

	// --- PAGE_READY: extract text (pool1, CPU-light) ---
	p.renderPool <- struct{}{}
	textData, retries, err := withRetry(p.cfg.MaxRetriesPerStage, func() (*pdfpage.TextData, error) {
		return p.deps.Resolver.ExtractText(documentID, pdfBytes, pageNum)
	})
	<-p.renderPool
	result.Retries += retries
	if err != nil {
		result.Status = domain.PageFailed
		result.FailedStage = "PAGE_READY"
		result.Error = err
		return result
	}

	quality := pdfpage.ComputeTextQuality(textData)

	var content string
	var contentType domain.ContentType
	var renderedImage []byte // processed/enhanced bytes sent to the LLM
	var originalImage []byte // stored original bytes, used for S1.6 IMAGE PATH detection

	if quality.Confidence >= p.cfg.TextConfidenceThreshold {
		// --- TEXT_READY ---
		content = textData.Text
		contentType = domain.ContentText

		// S1.6 TEXT PATH: detect on image blocks found in S1.4, not gated
		// on an LLM hint since there's no LLM response yet on this path
		// (spec.md §4.4/§4.5).
		if len(textData.ImageBlocks) > 0 {
			p.detectImageBlocks(ctx, documentID, pdfBytes, pageNum, textData.ImageBlocks, result)
		}
	} else {
		// --- IMAGE_RENDERED / IMAGE_ENHANCED (RenderPage enhances inline) ---
		p.renderPool <- struct{}{}
		rendered, rRetries, rErr := withRetry(p.cfg.MaxRetriesPerStage, func() (*pdfpage.RenderedPage, error) {
			return p.deps.Resolver.RenderPage(documentID, pdfBytes, pageNum, p.cfg.RenderScale)
		})
		<-p.renderPool
		result.Retries += rRetries
		if rErr != nil {
			result.Status = domain.PageFailed
			result.FailedStage = "IMAGE_RENDERED"
			result.Error = rErr
			return result
		}
		renderedImage = rendered.ProcessedImage
		originalImage = rendered.OriginalImage

		// --- IMAGE_ENCODED (pool2) ---
		p.encodePool <- struct{}{}
		content = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(rendered.ProcessedImage)
		<-p.encodePool
		contentType = domain.ContentImage
	}

	if cancel.Cancelled() {
		result.Status = domain.PageCancelled
		return result
	}
	if ctx.Err() != nil {
		result.Status = domain.PageTimeout
		result.FailedStage = "LLM_DONE"
		return result
	}

	spec := prompts.Resolve(task, contentType, documentType, promptCtx)

	// --- LLM_DONE (pool3, bounded to max_workers) ---
	p.llmPool <- struct{}{}
	resp, llmRetries, err := withRetry(p.cfg.MaxRetriesPerStage, func() (*llm.Response, error) {
		return p.deps.LLM.Call(ctx, llm.Request{
			Prompt:      spec.Prompt,
			Content:     content,
			Schema:      spec.Schema,
			Task:        task,
			DocTag:      fmt.Sprintf("%s#%d", documentID, pageNum),
			ContentType: contentType,
		})
	})
	<-p.llmPool
	result.Retries += llmRetries

	// An in-flight call is allowed to finish, but a cancellation observed
	// meanwhile means its result is discarded (spec.md §8 invariant 9).
	if cancel.Cancelled() {
		result.Status = domain.PageCancelled
		return result
	}
	if err != nil {
		result.Status = domain.PageFailed
		result.FailedStage = "LLM_DONE"
		result.Error = err
		return result
	}

	// S1.6 IMAGE PATH: deferred until here, where S7/S8 parses the LLM
	// response; only run the detector the hint names, against the stored
	// original image rather than the LLM-enhanced copy (spec.md §4.4:
	// "detectors run only when ... the LLM response signals presence";
	// spec.md §4.5: "then detect on the stored original image").
	if contentType == domain.ContentImage && originalImage != nil {
		if p.deps.SignatureDetector != nil && p.deps.SignatureDetector.IsEnabled() && hasDetectionHint(resp.HierarchicalData, "has_signature") {
			if hits, derr := p.deps.SignatureDetector.DetectInImage(ctx, originalImage); derr == nil {
				result.Signatures = hits
			}
		}
		if p.deps.FaceDetector != nil && p.deps.FaceDetector.IsEnabled() && hasDetectionHint(resp.HierarchicalData, "has_photo_id") {
			if hits, derr := p.deps.FaceDetector.DetectInImage(ctx, originalImage); derr == nil {
				result.Faces = hits
			}
		}
	}

	// --- PARSED / MERGED (pool4) ---
	p.mergePool <- struct{}{}
	result.ContentType = contentType
	result.HierarchicalData = resp.HierarchicalData
	result.TokenUsage = resp.Usage
	result.FinishReason = resp.FinishReason
	result.DurationMs = resp.DurationMs
	result.Status = domain.PageDone
	<-p.mergePool

	return result
}

// withRetry retries fn up to maxRetries additional times on error
// (spec.md §5: per-stage retries, max_retries_per_stage default 1),
// stopping early on a non-retryable ProcessingError, and returns the
// attempt count beyond the first as retries. Go methods cannot be generic,
// so this is a free function taking the retry budget explicitly.
func withRetry[T any](maxRetries int, fn func() (T, error)) (T, int, error) {
	var zero T
	var lastErr error
	retries := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		retries = attempt
		v, err := fn()
		if err == nil {
			return v, attempt, nil
		}
		lastErr = err
		if perr, ok := err.(*pkgerrors.ProcessingError); ok && !perr.Retryable() {
			break
		}
	}
	return zero, retries, lastErr
}

// hasDetectionHint reports whether the LLM's hierarchical_data carries a
// truthy boolean field named key (`has_signature`/`has_photo_id`, spec.md
// §4.4), tolerating the `{_type, value}` typed-wrapper leaf idiom (spec.md
// §4.6) as well as a bare bool.
func hasDetectionHint(node *domain.Node, key string) bool {
	if node == nil || node.Kind != domain.KindObject {
		return false
	}
	field, ok := node.Fields[key]
	if !ok {
		return false
	}
	switch field.Kind {
	case domain.KindBool:
		return field.Bool
	case domain.KindTyped:
		return field.TypedValue != nil && field.TypedValue.Kind == domain.KindBool && field.TypedValue.Bool
	default:
		return false
	}
}

// detectImageBlocks implements S1.6 TEXT PATH: rendering the page once and
// cropping each image block found by C1's text extraction (spec.md §4.5's
// S1.4), running both detectors over each crop. DetectorError is swallowed
// per spec.md §7, never fatal.
func (p *Pipeline) detectImageBlocks(ctx context.Context, documentID string, pdfBytes []byte, pageNum int, blocks []pdfpage.TextBlock, result *domain.PageResult) {
	signatureOn := p.deps.SignatureDetector != nil && p.deps.SignatureDetector.IsEnabled()
	faceOn := p.deps.FaceDetector != nil && p.deps.FaceDetector.IsEnabled()
	if !signatureOn && !faceOn {
		return
	}

	p.renderPool <- struct{}{}
	rendered, _, err := withRetry(p.cfg.MaxRetriesPerStage, func() (*pdfpage.RenderedPage, error) {
		return p.deps.Resolver.RenderPage(documentID, pdfBytes, pageNum, p.cfg.RenderScale)
	})
	<-p.renderPool
	if err != nil {
		return
	}

	img, err := pdfpage.DecodeImage(rendered.OriginalImage)
	if err != nil {
		return
	}

	scale := p.cfg.RenderScale
	if scale <= 0 {
		scale = 1
	}

	for _, block := range blocks {
		cropped, cropErr := pdfpage.CropRegionImage(img, pdfpage.BBox{
			Xmin: block.X * scale,
			Ymin: block.Y * scale,
			Xmax: (block.X + block.W) * scale,
			Ymax: (block.Y + block.H) * scale,
		})
		if cropErr != nil {
			continue
		}
		raw, encErr := pdfpage.EncodeJPEGBytes(cropped, 90)
		if encErr != nil {
			continue
		}
		// spec.md §4.4: a PDF image block doubling as the signature crop
		// needs no re-cropping on the detector's side; this is already the
		// smallest region C1 could locate it to.
		if signatureOn {
			if hits, derr := p.deps.SignatureDetector.DetectInImage(ctx, raw); derr == nil {
				result.Signatures = append(result.Signatures, hits...)
			}
		}
		if faceOn {
			if hits, derr := p.deps.FaceDetector.DetectInImage(ctx, raw); derr == nil {
				result.Faces = append(result.Faces, hits...)
			}
		}
	}
}

// tableHeaders extracts `_table_headers` from a bank-statement page's
// hierarchical_data (spec.md §4.3/§8 invariant 8), if present.
func tableHeaders(node *domain.Node) []string {
	if node == nil || node.Kind != domain.KindObject {
		return nil
	}
	headersNode, ok := node.Fields["_table_headers"]
	if !ok || headersNode.Kind != domain.KindArray {
		return nil
	}
	out := make([]string, 0, len(headersNode.Array))
	for _, item := range headersNode.Array {
		if item.Kind == domain.KindString {
			out = append(out, item.String)
		}
	}
	return out
}
