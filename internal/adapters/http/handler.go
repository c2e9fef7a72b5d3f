package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbaah7/ultrascan-agent/internal/app/analysis"
	"github.com/kbaah7/ultrascan-agent/internal/app/conversation"
	"github.com/kbaah7/ultrascan-agent/internal/app/report"
	"github.com/kbaah7/ultrascan-agent/internal/domain"
	"github.com/kbaah7/ultrascan-agent/internal/observability"
)

// proxyPersona is the fixed system prompt the chatbot proxy forwards
// upstream, regardless of what the caller sent.
const proxyPersona = "You are a helpful medical assistant."

type Server struct {
	analysisSvc *analysis.Service
	chatSvc     *conversation.Service
	reportSvc   *report.Service
	sessions    domain.SessionStore
	proxyChat   domain.ChatClient
	maxUpload   int64
	now         func() time.Time
}

func NewServer(
	analysisSvc *analysis.Service,
	chatSvc *conversation.Service,
	reportSvc *report.Service,
	sessions domain.SessionStore,
	proxyChat domain.ChatClient,
	maxUpload int64,
) http.Handler {
	s := &Server{
		analysisSvc: analysisSvc,
		chatSvc:     chatSvc,
		reportSvc:   reportSvc,
		sessions:    sessions,
		proxyChat:   proxyChat,
		maxUpload:   maxUpload,
		now:         time.Now,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /sessions → create session (POST)
	mux.HandleFunc("/sessions", s.handleSessions)

	// /sessions/{id}          →  GET: session snapshot
	// /sessions/{id}/predict  → POST: run a prediction
	// /sessions/{id}/messages → POST: chat turn
	// /sessions/{id}/analyses →  GET: analysis history
	mux.HandleFunc("/sessions/", s.handleSessionWithID)

	// /api/chatbot → chat-completion proxy for the web front-end
	mux.HandleFunc("/api/chatbot", s.handleChatbot)

	return chainMiddlewares(mux, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type sessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type resultResponse struct {
	Diagnosis     string    `json:"diagnosis"`
	BenignProb    float64   `json:"benign_prob"`
	MalignantProb float64   `json:"malignant_prob"`
	Confidence    float64   `json:"confidence"`
	Advice        string    `json:"advice"`
	CreatedAt     time.Time `json:"created_at"`
}

type artifactStateResponse struct {
	State   string `json:"state"`
	JobID   string `json:"job_id,omitempty"`
	Attempt int    `json:"attempt,omitempty"`
	URL     string `json:"url,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type narrationResponse struct {
	Step     int    `json:"step"`
	Label    string `json:"label"`
	InFlight bool   `json:"in_flight"`
}

type sessionSnapshotResponse struct {
	Session   sessionResponse       `json:"session"`
	Messages  []messageResponse     `json:"messages"`
	Result    *resultResponse       `json:"result,omitempty"`
	Artifact  artifactStateResponse `json:"artifact"`
	Narration narrationResponse     `json:"narration"`
}

type predictResponse struct {
	Result   resultResponse        `json:"result"`
	Greeting *messageResponse      `json:"greeting,omitempty"`
	Artifact artifactStateResponse `json:"artifact"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	UserMessage      messageResponse `json:"user_message"`
	AssistantMessage messageResponse `json:"assistant_message"`
}

type analysisRecordResponse struct {
	ID            string    `json:"id"`
	Diagnosis     string    `json:"diagnosis"`
	BenignProb    float64   `json:"benign_prob"`
	MalignantProb float64   `json:"malignant_prob"`
	Confidence    float64   `json:"confidence"`
	ArtifactJobID string    `json:"artifact_job_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type chatbotMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatbotRequest struct {
	Messages []chatbotMessage `json:"messages"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// /sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /sessions/{id}[/predict|/messages|/analyses]
func (s *Server) handleSessionWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := domain.SessionID(parts[0])
	if id == "" {
		http.NotFound(w, r)
		return
	}

	sess, err := s.sessions.GetSession(id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSession(w, r, sess)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "predict":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			s.handlePredict(w, r, sess)
			return
		case "messages":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			s.handleSendMessage(w, r, sess)
			return
		case "analyses":
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			s.handleListAnalyses(w, r, sess)
			return
		}
	}

	http.NotFound(w, r)
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := domain.NewSession(domain.SessionID(uuid.NewString()), s.now())
	if err := s.sessions.CreateSession(sess); err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]sessionResponse{
		"session": toSessionResponse(sess),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	step := sess.NarrationStep()
	resp := sessionSnapshotResponse{
		Session:  toSessionResponse(sess),
		Messages: toMessagesResponse(sess.Messages()),
		Result:   toResultResponse(sess.Result()),
		Artifact: toArtifactResponse(sess.ArtifactState()),
		Narration: narrationResponse{
			Step:     step,
			Label:    analysis.NarrationLabel(step),
			InFlight: sess.PredictionInFlight(),
		},
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	// Leave some slack over the configured ceiling so a slightly oversize
	// upload still reaches domain validation and gets the proper message.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequest(w, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, "could not read image upload")
		return
	}

	img := domain.UploadedImage{
		Bytes:     data,
		MimeType:  header.Header.Get("Content-Type"),
		SizeBytes: int64(len(data)),
	}

	result, err := s.analysisSvc.Analyze(r.Context(), sess, img)
	if err != nil {
		writeAnalyzeError(w, err)
		return
	}

	var greeting *messageResponse
	if msgs := sess.Messages(); len(msgs) > 0 && msgs[0].Role == domain.RoleAssistant {
		g := toMessageResponse(msgs[0])
		greeting = &g
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Result:   *toResultResponse(result),
		Greeting: greeting,
		Artifact: toArtifactResponse(sess.ArtifactState()),
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	out, err := s.chatSvc.Ask(r.Context(), sess, req.Text)
	if err != nil {
		internalError(w, err)
		return
	}
	if out == nil {
		// a turn is already in flight; the conversation was left unchanged
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "a chat turn is already in flight",
		})
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		UserMessage:      toMessageResponse(out.UserMessage),
		AssistantMessage: toMessageResponse(out.AssistantMessage),
	})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	recs, err := s.reportSvc.ListAnalyses(r.Context(), sess.ID, 0)
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]analysisRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, analysisRecordResponse{
			ID:            string(rec.ID),
			Diagnosis:     string(rec.Diagnosis),
			BenignProb:    rec.BenignProb,
			MalignantProb: rec.MalignantProb,
			Confidence:    rec.Confidence,
			ArtifactJobID: rec.ArtifactJobID,
			CreatedAt:     rec.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string][]analysisRecordResponse{"analyses": out})
}

// handleChatbot is the chat-completion proxy: it requires at least one
// user-role entry and forwards a fixed persona plus that user content
// upstream. Upstream failures surface as a generic 500; detail stays in the
// server logs only.
func (s *Server) handleChatbot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req chatbotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	var userContent string
	for _, m := range req.Messages {
		if m.Role == string(domain.RoleUser) && strings.TrimSpace(m.Content) != "" {
			userContent = m.Content
			break
		}
	}
	if userContent == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No user message"})
		return
	}

	reply, err := s.proxyChat.Complete(r.Context(), []domain.Message{
		{Role: domain.RoleSystem, Content: proxyPersona},
		{Role: domain.RoleUser, Content: userContent},
	})
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error("chatbot proxy upstream failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to fetch assistant reply",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"assistant": reply})
}

// ─────────────────────────────────────────────
// Response helpers
// ─────────────────────────────────────────────

func toSessionResponse(sess *domain.Session) sessionResponse {
	return sessionResponse{
		ID:        string(sess.ID),
		CreatedAt: sess.CreatedAt,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:        string(m.ID),
		SessionID: string(m.SessionID),
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func toResultResponse(res *domain.PredictionResult) *resultResponse {
	if res == nil {
		return nil
	}
	return &resultResponse{
		Diagnosis:     string(res.Diagnosis),
		BenignProb:    res.BenignProb,
		MalignantProb: res.MalignantProb,
		Confidence:    res.Confidence,
		Advice:        res.Advice,
		CreatedAt:     res.CreatedAt,
	}
}

func toArtifactResponse(state domain.ArtifactPollState) artifactStateResponse {
	return artifactStateResponse{
		State:   string(state.Phase),
		JobID:   state.JobID,
		Attempt: state.Attempt,
		URL:     state.ArtifactURL,
		Reason:  state.Reason,
	}
}

func writeAnalyzeError(w http.ResponseWriter, err error) {
	var (
		valErr *domain.ValidationError
		infErr *domain.InferenceUnavailableError
		malErr *domain.MalformedResponseError
	)
	switch {
	case errors.As(err, &valErr):
		badRequest(w, valErr.Error())
	case errors.Is(err, domain.ErrPredictionInFlight):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &infErr), errors.As(err, &malErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		internalError(w, err)
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
