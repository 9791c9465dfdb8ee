package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"smartstudy/internal/llm"
	"smartstudy/internal/memory"
	"smartstudy/internal/models"
	"smartstudy/internal/services"
)

// degradedNotice is surfaced to the client whenever the fallback provider
// produced the payload.
const degradedNotice = "generated by the fallback model; quality may be reduced"

type Server struct {
	mux      *http.ServeMux
	study    *services.StudyService
	sessions *SessionManager
}

func NewServer(study *services.StudyService, sessions *SessionManager) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		study:    study,
		sessions: sessions,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("/api/sessions/", s.handleSessionActions)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	session, err := s.sessions.Create()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleSessionActions(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	session, ok := s.sessions.Get(parts[0])
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, http.MethodDelete)
			return
		}
		s.sessions.Remove(session.ID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
		return
	}

	switch parts[1] {
	case "explain":
		s.handleExplain(w, r, session)
	case "quiz":
		switch {
		case len(parts) == 2:
			s.handleCreateQuiz(w, r, session)
		case len(parts) == 4 && parts[3] == "answers":
			s.handleSubmitAnswers(w, r, session, parts[2])
		default:
			http.NotFound(w, r)
		}
	case "progress":
		s.handleProgress(w, r, session)
	case "revision":
		s.handleRevision(w, r, session)
	case "history":
		s.handleHistory(w, r, session)
	case "reset":
		s.handleReset(w, r, session)
	case "clear":
		s.handleClear(w, r, session)
	default:
		http.NotFound(w, r)
	}
}

type explainRequest struct {
	Topic         string `json:"topic"`
	ExtractedText string `json:"extractedText"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request, session *Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload explainRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(payload.Topic) == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	result, err := s.study.Explain(r.Context(), session.Memory, payload.Topic, payload.ExtractedText)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	resp := map[string]any{
		"topic":       payload.Topic,
		"explanation": result.Text,
		"source":      result.Source,
		"degraded":    result.Degraded,
	}
	if result.Degraded {
		resp["notice"] = degradedNotice
	}
	writeJSON(w, http.StatusOK, resp)
}

type quizRequest struct {
	Topic          string            `json:"topic"`
	ExtractedText  string            `json:"extractedText"`
	MultipleChoice int               `json:"multipleChoice"`
	FillBlank      int               `json:"fillBlank"`
	ShortAnswer    int               `json:"shortAnswer"`
	Difficulty     models.Difficulty `json:"difficulty"`
}

func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request, session *Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload quizRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(payload.Topic) == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	constraints := models.Constraints{
		MultipleChoice: payload.MultipleChoice,
		FillBlank:      payload.FillBlank,
		ShortAnswer:    payload.ShortAnswer,
		Difficulty:     payload.Difficulty,
	}
	if constraints.TotalQuestions() <= 0 {
		constraints = models.DefaultConstraints()
	}
	if constraints.Difficulty == "" {
		constraints.Difficulty = models.DifficultyMedium
	}

	quiz, err := s.study.CreateQuiz(r.Context(), session.Memory, payload.Topic, payload.ExtractedText, constraints)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	resp := map[string]any{"quiz": publicQuiz(quiz)}
	if quiz.Degraded {
		resp["notice"] = degradedNotice
	}
	writeJSON(w, http.StatusOK, resp)
}

type answersRequest struct {
	Answers map[string]string `json:"answers"`
}

func (s *Server) handleSubmitAnswers(w http.ResponseWriter, r *http.Request, session *Session, quizID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload answersRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	report, err := s.study.SubmitAnswers(r.Context(), session.Memory, session.Scheduler, quizID, payload.Answers)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request, session *Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	snapshot, err := session.Memory.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": snapshot})
}

func (s *Server) handleRevision(w http.ResponseWriter, r *http.Request, session *Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	plan, err := s.study.RevisionPlan(r.Context(), session.Memory, session.Scheduler)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	resp := map[string]any{"plan": plan}
	if plan.Degraded {
		resp["notice"] = degradedNotice
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, session *Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	exchanges, err := session.Memory.RecentExchanges(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": exchanges})
}

// handleReset clears all recorded progress and the review schedule.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, session *Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if err := session.Memory.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	session.Scheduler.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "progress reset"})
}

// handleClear clears only the conversational buffer; historical scores are
// kept.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request, session *Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if err := session.Memory.ClearSession(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "session cleared"})
}

// publicQuiz strips answer keys before the quiz goes to the client.
func publicQuiz(quiz *models.Quiz) map[string]any {
	items := make([]map[string]any, 0, len(quiz.Items))
	for _, item := range quiz.Items {
		entry := map[string]any{
			"id":     item.ID,
			"type":   item.Type,
			"prompt": item.Prompt,
		}
		if item.Type == models.ItemMultipleChoice {
			entry["options"] = item.Options
		}
		if item.Hint != "" {
			entry["hint"] = item.Hint
		}
		items = append(items, entry)
	}
	return map[string]any{
		"id":        quiz.ID,
		"topic":     quiz.Topic,
		"items":     items,
		"source":    quiz.Source,
		"degraded":  quiz.Degraded,
		"createdAt": quiz.CreatedAt,
	}
}

func statusForError(err error) int {
	var failed *llm.GenerationFailedError
	switch {
	case errors.Is(err, memory.ErrUnknownQuiz):
		return http.StatusNotFound
	case errors.Is(err, memory.ErrUnknownItem):
		return http.StatusBadRequest
	case errors.As(err, &failed):
		return http.StatusBadGateway
	case errors.Is(err, llm.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
