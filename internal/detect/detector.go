// Package detect implements C4, the optional Object Detectors: signature
// and face detection over page images, with batch inference and graceful
// degradation.
//
// No in-process vision-inference binding (ONNX/YOLO) exists anywhere in the
// retrieved corpus, so per DESIGN.md both detectors are implemented as thin
// HTTP clients against an external inference endpoint, reusing the
// request/retry/JSON-decoding idiom the teacher's
// internal/clients/mageagent_client.go established for talking to an
// external vision service — same plumbing, new domain (a bounding-box
// detector endpoint instead of MageAgent's OCR/layout orchestration).
package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/logging"
)

// Kind distinguishes the two detector domains (spec.md §4.4).
type Kind string

const (
	KindSignature Kind = "signature"
	KindFace      Kind = "face"
)

// Detector implements {is_enabled, detect_in_image, detect_in_images_batch}
// for one Kind, against an HTTP inference endpoint.
type Detector struct {
	kind       Kind
	enabled    bool
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// New constructs a detector. enabled mirrors config.Config.DetectorsEnabled;
// an empty baseURL forces IsEnabled() to false regardless.
func New(kind Kind, baseURL, apiKey string, enabled bool) *Detector {
	return &Detector{
		kind:    kind,
		enabled: enabled && baseURL != "",
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logging.NewLogger("detect." + string(kind)),
	}
}

// IsEnabled implements is_enabled().
func (d *Detector) IsEnabled() bool {
	return d.enabled
}

type batchRequest struct {
	Kind   Kind     `json:"kind"`
	Images []string `json:"images"` // base64, one per image
}

type batchResponse struct {
	Results [][]domain.Detection `json:"results"` // one slice per input image
}

// DetectInImage implements detect_in_image(img) for a single image.
func (d *Detector) DetectInImage(ctx context.Context, img []byte) ([]domain.Detection, error) {
	results, err := d.DetectInImagesBatch(ctx, [][]byte{img})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// DetectInImagesBatch implements detect_in_images_batch([img]). Per
// spec.md §4.4, batch inference is preferred; on any batch error the whole
// batch returns empty rather than falling back per-image (cost vs
// correctness tradeoff — explicitly not attempted).
func (d *Detector) DetectInImagesBatch(ctx context.Context, images [][]byte) ([][]domain.Detection, error) {
	if !d.enabled || len(images) == 0 {
		return make([][]domain.Detection, len(images)), nil
	}

	encoded := make([]string, len(images))
	for i, img := range images {
		encoded[i] = base64.StdEncoding.EncodeToString(img)
	}

	body, err := json.Marshal(batchRequest{Kind: d.kind, Images: encoded})
	if err != nil {
		d.logger.Warn("failed to marshal batch request", "kind", d.kind, "error", err)
		return make([][]domain.Detection, len(images)), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect/batch", bytes.NewReader(body))
	if err != nil {
		d.logger.Warn("failed to build batch request", "kind", d.kind, "error", err)
		return make([][]domain.Detection, len(images)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Warn("detector batch call failed, returning empty batch", "kind", d.kind, "error", err)
		return make([][]domain.Detection, len(images)), nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		d.logger.Warn("detector batch call returned error, returning empty batch", "kind", d.kind, "status", resp.StatusCode)
		return make([][]domain.Detection, len(images)), nil
	}

	var parsed batchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		d.logger.Warn("failed to parse detector batch response, returning empty batch", "kind", d.kind, "error", err)
		return make([][]domain.Detection, len(images)), nil
	}
	if len(parsed.Results) != len(images) {
		return make([][]domain.Detection, len(images)), nil
	}
	return parsed.Results, nil
}

// ExpandFaceCrop widens a detected face bounding box to capture surrounding
// photo-ID context: roughly 50% on each side, 30% on top, 110% on the
// bottom of the detected box (spec.md §4.4).
func ExpandFaceCrop(box [4]float64) [4]float64 {
	x0, y0, x1, y1 := box[0], box[1], box[2], box[3]
	w := x1 - x0
	h := y1 - y0
	return [4]float64{
		x0 - 0.5*w,
		y0 - 0.3*h,
		x1 + 0.5*w,
		y1 + 1.1*h,
	}
}

// SignatureCropFromImageBlock implements spec.md §4.4's rule for PDF-native
// image blocks: the block image is the signature crop directly, no
// re-cropping against a detector bounding box.
func SignatureCropFromImageBlock(blockImage []byte) domain.Detection {
	return domain.Detection{
		IsHit:       true,
		Confidence:  1.0,
		ImageBase64: base64.StdEncoding.EncodeToString(blockImage),
	}
}
