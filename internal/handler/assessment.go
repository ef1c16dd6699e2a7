package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/onevent/flowscore/internal/catalog"
	"github.com/onevent/flowscore/internal/flow"
	appI18n "github.com/onevent/flowscore/internal/i18n"
	"github.com/onevent/flowscore/internal/model"
	"github.com/onevent/flowscore/internal/scoring"
)

// optionView is one selectable choice with its label resolved for the
// session language.
type optionView struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// questionView is the API shape of a question, with all text resolved for
// the session language.
type questionView struct {
	ID          string       `json:"id"`
	Section     int          `json:"section"`
	Type        string       `json:"type"`
	Text        string       `json:"text"`
	Options     []optionView `json:"options,omitempty"`
	ScaleMin    int          `json:"scale_min,omitempty"`
	ScaleMax    int          `json:"scale_max,omitempty"`
	ScaleLabels []string     `json:"scale_labels,omitempty"`
	Min         int          `json:"min,omitempty"`
	Max         int          `json:"max,omitempty"`
	Suffix      string       `json:"suffix,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	HasHelper   bool         `json:"has_helper"`
}

// sessionState is the common response for every flow operation.
type sessionState struct {
	SessionID string        `json:"session_id"`
	Complete  bool          `json:"complete"`
	Answered  int           `json:"answered"`
	Total     int           `json:"total"`
	Position  int           `json:"position"`
	Question  *questionView `json:"question,omitempty"`
	Answer    *model.Value  `json:"answer,omitempty"`
}

func (h *Handler) state(s flow.Session) sessionState {
	answered, total := s.Progress()
	st := sessionState{
		SessionID: s.ID,
		Complete:  s.Complete,
		Answered:  answered,
		Total:     total,
		Position:  s.Position,
	}
	if q, ok := s.Current(h.catalog); ok {
		v := questionViewFor(q, s.Lang)
		st.Question = &v
		if ans, ok := s.Answers[q.ID]; ok {
			st.Answer = &ans.Value
		}
	}
	return st
}

func questionViewFor(q model.Question, lang string) questionView {
	en := lang == "en"
	text := q.Text
	if en && q.TextEN != "" {
		text = q.TextEN
	}
	labels := q.ScaleLabels
	if en && len(q.ScaleLabelsEN) == len(q.ScaleLabels) && len(q.ScaleLabelsEN) > 0 {
		labels = q.ScaleLabelsEN
	}
	var options []optionView
	for _, opt := range q.Options {
		label := opt.Label
		if en && opt.LabelEN != "" {
			label = opt.LabelEN
		}
		options = append(options, optionView{Value: opt.Value, Label: label})
	}
	return questionView{
		ID:          q.ID,
		Section:     q.Section,
		Type:        string(q.Type),
		Text:        text,
		Options:     options,
		ScaleMin:    q.ScaleMin,
		ScaleMax:    q.ScaleMax,
		ScaleLabels: labels,
		Min:         q.Min,
		Max:         q.Max,
		Suffix:      q.Suffix,
		Placeholder: q.Placeholder,
		HasHelper:   q.Helper != nil,
	}
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		Lang  string `json:"lang"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ok, err := h.webhook.ValidateToken(r.Context(), req.Token)
	if err != nil {
		slog.Error("token validation failed", "error", err)
		h.respondError(w, r, http.StatusBadGateway, "error.invalid_token")
		return
	}
	if !ok {
		h.respondError(w, r, http.StatusForbidden, "error.invalid_token")
		return
	}

	lang := req.Lang
	if lang == "" {
		lang = h.config.Lang
	}
	s, err := h.sessions.Start(req.Token, lang)
	if err != nil {
		slog.Error("failed to start session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	slog.Info("assessment started", "session_id", s.ID, "lang", lang)
	respondJSON(w, http.StatusCreated, h.state(s))
}

func (h *Handler) handleQuestion(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondFlowError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.state(s))
}

func (h *Handler) handleHelper(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondFlowError(w, r, err)
		return
	}
	q, ok := s.Current(h.catalog)
	if !ok || q.Helper == nil {
		h.respondError(w, r, http.StatusNotFound, "error.invalid_answer")
		return
	}
	respondJSON(w, http.StatusOK, q.Helper)
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID string      `json:"question_id"`
		Value      model.Value `json:"value"`
		HelperUsed bool        `json:"helper_used"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s, err := h.sessions.Answer(chi.URLParam(r, "sessionID"), req.QuestionID, req.Value, req.HelperUsed)
	if err != nil {
		h.respondFlowError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.state(s))
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Advance(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondFlowError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.state(s))
}

func (h *Handler) handlePrev(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Retreat(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondFlowError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.state(s))
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	var contact model.Contact
	if err := decodeJSON(r, &contact); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := contact.Validate(); err != nil {
		h.respondError(w, r, http.StatusUnprocessableEntity, "error.contact_required")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	s, err := h.sessions.Finalize(sessionID, contact)
	if err != nil {
		h.respondFlowError(w, r, err)
		return
	}

	loc := h.translator.Localizer(s.Lang)
	answers := orderedAnswers(h.catalog, s.Answers)
	bundle := scoring.BuildResult(h.catalog, s.Answers, loc)

	resultID, err := h.store.SaveResult(model.StoredResult{
		Token:               s.Token,
		Contact:             s.Contact,
		Answers:             answers,
		Scores:              bundle.Scores,
		Recommendation:      bundle.Recommendation.Type,
		RecommendationTitle: bundle.Recommendation.Title,
		Priorities:          bundle.Priorities,
		Summary:             bundle.Summary,
		CompletedAt:         time.Now(),
	})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Submission failures must not cost the respondent their result; it is
	// already stored and returned either way.
	if err := h.webhook.Submit(r.Context(), resultID, s.Token, s.Lang, s.Contact, bundle, answers); err != nil {
		slog.Error("result submission failed", "result_id", resultID, "error", err)
	}

	h.sessions.Remove(sessionID)
	slog.Info("assessment finalized", "session_id", sessionID, "result_id", resultID,
		"recommendation", bundle.Recommendation.Type)

	respondJSON(w, http.StatusOK, struct {
		ResultID int64              `json:"result_id"`
		Result   model.ResultBundle `json:"result"`
	}{resultID, bundle})
}

func (h *Handler) handleResendEmail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "resultID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid result id", http.StatusBadRequest)
		return
	}
	stored, err := h.store.GetResult(id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if stored == nil {
		http.Error(w, "result not found", http.StatusNotFound)
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = h.config.Lang
	}
	bundle := bundleFromStored(*stored, h.translator.Localizer(lang))
	if err := h.webhook.Resend(r.Context(), *stored, bundle, lang); err != nil {
		slog.Error("resend failed", "result_id", id, "error", err)
		http.Error(w, "resend failed", http.StatusBadGateway)
		return
	}

	loc := h.translator.FromContext(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{
		"message": appI18n.T(loc, "email.resent", nil),
	})
}

// orderedAnswers flattens the answer map into catalog order.
func orderedAnswers(cat *catalog.Catalog, answers map[string]model.Answer) []model.Answer {
	out := make([]model.Answer, 0, len(answers))
	for _, q := range cat.Questions() {
		if ans, ok := answers[q.ID]; ok {
			out = append(out, ans)
		}
	}
	return out
}

// bundleFromStored reconstructs the result bundle of a stored result. The
// recommendation description and details are not persisted; resends carry
// the stored title and summary.
func bundleFromStored(r model.StoredResult, loc *goi18n.Localizer) model.ResultBundle {
	return model.ResultBundle{
		Scores:          r.Scores,
		DimensionLabels: scoring.DimensionLabels(loc),
		Recommendation: model.Recommendation{
			Type:  r.Recommendation,
			Title: r.RecommendationTitle,
		},
		Priorities: r.Priorities,
		Summary:    r.Summary,
	}
}
