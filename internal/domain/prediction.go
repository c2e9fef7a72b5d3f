package domain

import (
	"fmt"
	"strings"
)

// UploadedImage is a raw client upload. It lives only for the duration of
// the prediction call and is never stored.
type UploadedImage struct {
	Bytes     []byte
	MimeType  string
	SizeBytes int64
}

// Validate checks the upload locally. A rejected image must cause no
// network call.
func (img UploadedImage) Validate(maxBytes int64) error {
	if len(img.Bytes) == 0 {
		return &ValidationError{Reason: "empty image upload"}
	}
	if !strings.HasPrefix(strings.ToLower(img.MimeType), "image/") {
		return &ValidationError{Reason: fmt.Sprintf("unsupported content type %q, expected an image", img.MimeType)}
	}
	if maxBytes > 0 && img.SizeBytes > maxBytes {
		return &ValidationError{Reason: fmt.Sprintf("image is %d bytes, limit is %d", img.SizeBytes, maxBytes)}
	}
	return nil
}

// PredictionResult is the outcome of one inference round trip, plus the
// advisory text fetched for it. A new prediction replaces it wholesale.
type PredictionResult struct {
	Diagnosis     DiagnosisLabel
	BenignProb    float64
	MalignantProb float64
	Confidence    float64
	ArtifactJobID string
	Advice        string
	CreatedAt     Timestamp
}
