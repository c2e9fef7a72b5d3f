package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbaah7/ultrascan-agent/internal/domain"
	"github.com/kbaah7/ultrascan-agent/internal/observability"
)

const advisorySystemPrompt = "You are a helpful medical assistant."

const advisoryQuestionTemplate = "In under 3 sentences, explain what a %s diagnosis with %.1f%% confidence " +
	"on a breast ultrasound means for the patient, and invite them to ask follow-up questions."

// fallbackAdvice is used when the advisory call fails or returns empty
// content. Prediction success is never blocked by advisory failure.
const fallbackAdvice = "I'm here to help you understand your result. Ask me anything about your diagnosis."

// Options carries the policy knobs of the coordinator.
type Options struct {
	MaxImageBytes int64
	// HeatmapLabels gates artifact polling: only these diagnoses qualify.
	HeatmapLabels []domain.DiagnosisLabel
}

// Service coordinates the image -> diagnosis round trip: local validation,
// the inference call with its narration ticker, the advisory seed exchange,
// the analysis record, and the conditional heatmap poll.
type Service struct {
	inference domain.InferenceClient
	chat      domain.ChatClient
	records   domain.RecordStore
	poller    *Poller
	narrator  *Narrator
	opts      Options
	now       func() time.Time
}

func NewService(
	inference domain.InferenceClient,
	chat domain.ChatClient,
	records domain.RecordStore,
	poller *Poller,
	narrator *Narrator,
	opts Options,
) *Service {
	return &Service{
		inference: inference,
		chat:      chat,
		records:   records,
		poller:    poller,
		narrator:  narrator,
		opts:      opts,
		now:       time.Now,
	}
}

// Analyze runs one prediction for the session. Validation and inference
// errors abort the attempt and surface to the caller; advisory and artifact
// problems degrade gracefully.
func (s *Service) Analyze(ctx context.Context, sess *domain.Session, img domain.UploadedImage) (*domain.PredictionResult, error) {
	log := observability.LoggerFromContext(ctx).With("session_id", sess.ID)

	if err := img.Validate(s.opts.MaxImageBytes); err != nil {
		log.Info("image rejected", "error", err)
		return nil, err
	}

	gen, err := sess.BeginPrediction()
	if err != nil {
		return nil, err
	}
	log.Info("prediction started", "size_bytes", img.SizeBytes, "mime_type", img.MimeType)

	tickCtx, stopTicker := context.WithCancel(context.Background())
	defer stopTicker()
	go s.narrator.Run(tickCtx, sess, gen)

	pred, err := s.inference.Predict(ctx, img)
	stopTicker()
	if err != nil {
		sess.FailPrediction(gen)
		log.Error("inference call failed", "error", err)
		return nil, err
	}

	advice := s.fetchAdvice(ctx, pred)

	now := s.now()
	result := &domain.PredictionResult{
		Diagnosis:     pred.Diagnosis,
		BenignProb:    pred.BenignProb,
		MalignantProb: pred.MalignantProb,
		Confidence:    pred.Confidence,
		ArtifactJobID: pred.ArtifactJobID,
		Advice:        advice,
		CreatedAt:     now,
	}
	greeting := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: sess.ID,
		Role:      domain.RoleAssistant,
		Content:   advice,
		CreatedAt: now,
	}
	sess.CompletePrediction(gen, result, greeting)

	if s.records != nil {
		rec := &domain.AnalysisRecord{
			ID:            domain.RecordID(uuid.NewString()),
			SessionID:     sess.ID,
			Diagnosis:     pred.Diagnosis,
			BenignProb:    pred.BenignProb,
			MalignantProb: pred.MalignantProb,
			Confidence:    pred.Confidence,
			ArtifactJobID: pred.ArtifactJobID,
			CreatedAt:     now,
		}
		if err := s.records.AppendRecord(rec); err != nil {
			log.Error("failed to append analysis record", "error", err)
		}
	}

	if pred.ArtifactJobID != "" && s.qualifiesForHeatmap(pred.Diagnosis) {
		go s.poller.Run(context.WithoutCancel(ctx), sess, gen, pred.ArtifactJobID)
	}

	log.Info("prediction completed", "diagnosis", pred.Diagnosis, "confidence", pred.Confidence)
	return result, nil
}

// fetchAdvice runs the single-shot advisory exchange. There is no prior
// conversation yet, so this bypasses the windowed context builder.
func (s *Service) fetchAdvice(ctx context.Context, pred *domain.InferencePrediction) string {
	question := fmt.Sprintf(advisoryQuestionTemplate, string(pred.Diagnosis), pred.Confidence)
	reply, err := s.chat.Complete(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: advisorySystemPrompt},
		{Role: domain.RoleUser, Content: question},
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error("advisory completion failed", "error", err)
		return fallbackAdvice
	}
	if strings.TrimSpace(reply) == "" {
		observability.LoggerFromContext(ctx).Error("advisory completion returned empty content")
		return fallbackAdvice
	}
	return reply
}

func (s *Service) qualifiesForHeatmap(label domain.DiagnosisLabel) bool {
	for _, l := range s.opts.HeatmapLabels {
		if l == label {
			return true
		}
	}
	return false
}
