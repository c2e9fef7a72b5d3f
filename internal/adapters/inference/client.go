package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kbaah7/ultrascan-agent/internal/domain"
)

// Client calls the remote ultrasound inference service over HTTP. It also
// serves artifact (heatmap) status checks for the poller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// predictResponse mirrors the service's JSON. The label may arrive under
// either key; the numeric fields are pointers so absence is detectable.
type predictResponse struct {
	Prediction    string   `json:"prediction"`
	Diagnosis     string   `json:"diagnosis"`
	Confidence    *float64 `json:"confidence"`
	BenignProb    *float64 `json:"benign_prob"`
	MalignantProb *float64 `json:"malignant_prob"`
	ID            string   `json:"id"`
}

// Predict implements domain.InferenceClient: one multipart POST carrying
// the image bytes.
func (c *Client) Predict(ctx context.Context, img domain.UploadedImage) (*domain.InferencePrediction, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "upload")
	if err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(img.Bytes); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &body)
	if err != nil {
		return nil, fmt.Errorf("building predict request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.InferenceUnavailableError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &domain.InferenceUnavailableError{
			StatusCode: resp.StatusCode,
			Detail:     strings.TrimSpace(string(detail)),
		}
	}

	var raw predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &domain.MalformedResponseError{Detail: "invalid JSON body"}
	}

	label := raw.Prediction
	if label == "" {
		label = raw.Diagnosis
	}

	var missing []string
	if label == "" {
		missing = append(missing, "prediction")
	}
	if raw.Confidence == nil {
		missing = append(missing, "confidence")
	}
	if raw.BenignProb == nil {
		missing = append(missing, "benign_prob")
	}
	if raw.MalignantProb == nil {
		missing = append(missing, "malignant_prob")
	}
	if len(missing) > 0 {
		return nil, &domain.MalformedResponseError{Missing: missing}
	}

	return &domain.InferencePrediction{
		Diagnosis:     domain.DiagnosisLabel(label),
		BenignProb:    *raw.BenignProb,
		MalignantProb: *raw.MalignantProb,
		Confidence:    *raw.Confidence,
		ArtifactJobID: raw.ID,
	}, nil
}

type artifactResponse struct {
	Status string `json:"status"`
	URL    string `json:"url"`
}

// CheckArtifact implements domain.ArtifactClient against the heatmap
// endpoint: status "ready" carries a resolvable URL, anything else means
// not ready yet.
func (c *Client) CheckArtifact(ctx context.Context, jobID string) (domain.ArtifactCheck, error) {
	endpoint := c.baseURL + "/heatmap/" + url.PathEscape(jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ArtifactCheck{}, fmt.Errorf("building heatmap request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ArtifactCheck{}, fmt.Errorf("heatmap request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ArtifactCheck{}, fmt.Errorf("heatmap endpoint returned status %d", resp.StatusCode)
	}

	var raw artifactResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.ArtifactCheck{}, fmt.Errorf("decoding heatmap response: %w", err)
	}

	if strings.EqualFold(raw.Status, "ready") {
		return domain.ArtifactCheck{Ready: true, URL: raw.URL}, nil
	}
	return domain.ArtifactCheck{}, nil
}
