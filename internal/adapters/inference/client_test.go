package inference_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbaah7/ultrascan-agent/internal/adapters/inference"
	"github.com/kbaah7/ultrascan-agent/internal/domain"
)

func testImage() domain.UploadedImage {
	return domain.UploadedImage{
		Bytes:     []byte("fake-png-bytes"),
		MimeType:  "image/png",
		SizeBytes: 14,
	}
}

func TestPredictParsesSuccessResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predict", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, _, err := r.FormFile("image")
		require.NoError(t, err)
		file.Close()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"prediction":     "Benign",
			"confidence":     92.3,
			"benign_prob":    85.0,
			"malignant_prob": 15.0,
		})
	}))
	defer srv.Close()

	client := inference.NewClient(srv.URL, 5*time.Second)
	pred, err := client.Predict(context.Background(), testImage())
	require.NoError(t, err)

	assert.Equal(t, domain.DiagnosisBenign, pred.Diagnosis)
	assert.InDelta(t, 92.3, pred.Confidence, 0.001)
	assert.InDelta(t, 85.0, pred.BenignProb, 0.001)
	assert.InDelta(t, 15.0, pred.MalignantProb, 0.001)
	assert.Empty(t, pred.ArtifactJobID)
}

func TestPredictAcceptsDiagnosisKeyAndJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"diagnosis":      "Malignant",
			"confidence":     88.1,
			"benign_prob":    12.0,
			"malignant_prob": 88.0,
			"id":             "job-42",
		})
	}))
	defer srv.Close()

	client := inference.NewClient(srv.URL, 5*time.Second)
	pred, err := client.Predict(context.Background(), testImage())
	require.NoError(t, err)

	assert.Equal(t, domain.DiagnosisMalignant, pred.Diagnosis)
	assert.Equal(t, "job-42", pred.ArtifactJobID)
}

func TestPredictNon2xxIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model is loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := inference.NewClient(srv.URL, 5*time.Second)
	_, err := client.Predict(context.Background(), testImage())

	var infErr *domain.InferenceUnavailableError
	require.ErrorAs(t, err, &infErr)
	assert.Equal(t, http.StatusServiceUnavailable, infErr.StatusCode)
	assert.Contains(t, infErr.Detail, "model is loading")
}

func TestPredictTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	client := inference.NewClient(srv.URL, time.Second)
	_, err := client.Predict(context.Background(), testImage())

	var infErr *domain.InferenceUnavailableError
	require.ErrorAs(t, err, &infErr)
	assert.Zero(t, infErr.StatusCode)
}

func TestPredictMissingFieldsAreMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"prediction": "Benign",
		})
	}))
	defer srv.Close()

	client := inference.NewClient(srv.URL, 5*time.Second)
	_, err := client.Predict(context.Background(), testImage())

	var malErr *domain.MalformedResponseError
	require.ErrorAs(t, err, &malErr)
	assert.ElementsMatch(t, []string{"confidence", "benign_prob", "malignant_prob"}, malErr.Missing)
}

func TestPredictInvalidJSONIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("<html>gateway timeout</html>"))
	}))
	defer srv.Close()

	client := inference.NewClient(srv.URL, 5*time.Second)
	_, err := client.Predict(context.Background(), testImage())

	var malErr *domain.MalformedResponseError
	require.ErrorAs(t, err, &malErr)
}

func TestCheckArtifactStates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/heatmap/job-ready":
			json.NewEncoder(w).Encode(map[string]string{"status": "ready", "url": "https://cdn.example.com/h.png"})
		case "/heatmap/job-pending":
			json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := inference.NewClient(srv.URL, 5*time.Second)

	ready, err := client.CheckArtifact(context.Background(), "job-ready")
	require.NoError(t, err)
	assert.True(t, ready.Ready)
	assert.Equal(t, "https://cdn.example.com/h.png", ready.URL)

	pending, err := client.CheckArtifact(context.Background(), "job-pending")
	require.NoError(t, err)
	assert.False(t, pending.Ready)

	_, err = client.CheckArtifact(context.Background(), "job-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
