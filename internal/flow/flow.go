// Package flow drives a respondent through the question catalog: it keeps
// the live session state, validates incoming answers and applies the skip
// rules that shorten the question sequence.
package flow

import (
	"errors"
	"fmt"
	"time"

	"github.com/onevent/flowscore/internal/catalog"
	"github.com/onevent/flowscore/internal/model"
)

var (
	// ErrNotFound is returned for unknown or expired session IDs.
	ErrNotFound = errors.New("session not found")
	// ErrFinalized is returned when a session is modified after finalize.
	ErrFinalized = errors.New("session already finalized")
	// ErrNotComplete is returned when finalize is attempted before the
	// respondent has walked past the last question.
	ErrNotComplete = errors.New("assessment not complete")
	// ErrUnknownQuestion is returned for answers to questions that are not
	// part of the session's active sequence.
	ErrUnknownQuestion = errors.New("question not in session")
	// ErrInvalidAnswer is returned when an answer value does not fit the
	// question it targets.
	ErrInvalidAnswer = errors.New("invalid answer")
)

// Session is the live state of one assessment walk-through. Sessions are
// plain values owned by the Manager; all mutation goes through it.
type Session struct {
	ID        string
	Token     string
	Lang      string
	Order     []string // active question IDs, shrinks as skip rules fire
	Position  int
	Answers   map[string]model.Answer
	Contact   model.Contact
	Complete  bool // walked past the last active question
	Finalized bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newSession(id, token, lang string, cat *catalog.Catalog, now time.Time) *Session {
	order := make([]string, 0, cat.Len())
	for _, q := range cat.Questions() {
		order = append(order, q.ID)
	}
	return &Session{
		ID:        id,
		Token:     token,
		Lang:      lang,
		Order:     order,
		Answers:   make(map[string]model.Answer),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Current returns the question the session points at, or false when the
// session has walked past the end.
func (s *Session) Current(cat *catalog.Catalog) (model.Question, bool) {
	if s.Complete || s.Position >= len(s.Order) {
		return model.Question{}, false
	}
	return cat.ByID(s.Order[s.Position])
}

// Progress reports how many active questions are answered out of the total.
func (s *Session) Progress() (answered, total int) {
	for _, id := range s.Order {
		if _, ok := s.Answers[id]; ok {
			answered++
		}
	}
	return answered, len(s.Order)
}

// saveAnswer validates and stores an answer, replacing any previous answer
// for the same question, then applies the question's skip rules. Skipping is
// one-directional: changing an answer later never restores questions an
// earlier answer removed.
func (s *Session) saveAnswer(cat *catalog.Catalog, questionID string, v model.Value, helperUsed bool, now time.Time) error {
	if s.Finalized {
		return ErrFinalized
	}
	if !s.active(questionID) {
		return ErrUnknownQuestion
	}
	q, ok := cat.ByID(questionID)
	if !ok {
		return ErrUnknownQuestion
	}
	v, err := normalizeValue(q, v)
	if err != nil {
		return err
	}

	s.Answers[questionID] = model.Answer{
		QuestionID: questionID,
		Value:      v,
		AnsweredAt: now,
		HelperUsed: helperUsed,
	}
	s.UpdatedAt = now
	s.applyRules(q, v)
	return nil
}

// applyRules removes the skip targets of every rule matched by the answer
// value from the active sequence, in declaration order. Default rules are a
// fallback placeholder only and never match. Removing an already-removed
// question is a no-op, so re-answering is idempotent.
func (s *Session) applyRules(q model.Question, v model.Value) {
	skip := make(map[string]bool)
	for i := range q.Rules {
		r := &q.Rules[i]
		if r.Default || !v.Matches(r.AnyOf) {
			continue
		}
		for _, id := range r.Skip {
			skip[id] = true
		}
	}
	if len(skip) == 0 {
		return
	}

	kept := s.Order[:0]
	for i, id := range s.Order {
		if skip[id] {
			if i < s.Position {
				s.Position--
			}
			continue
		}
		kept = append(kept, id)
	}
	s.Order = kept
	if s.Position >= len(s.Order) {
		s.Position = len(s.Order) - 1
	}
	if s.Position < 0 {
		s.Position = 0
	}
}

// advance moves to the next active question. Walking past the last question
// marks the session complete; advancing a complete session stays complete.
func (s *Session) advance(now time.Time) {
	if s.Finalized || s.Complete {
		return
	}
	if s.Position < len(s.Order)-1 {
		s.Position++
	} else {
		s.Complete = true
	}
	s.UpdatedAt = now
}

// retreat moves back one question. At position zero it is a no-op; on a
// complete (but not finalized) session it reopens the last question.
func (s *Session) retreat(now time.Time) {
	if s.Finalized {
		return
	}
	if s.Complete {
		s.Complete = false
		s.UpdatedAt = now
		return
	}
	if s.Position > 0 {
		s.Position--
		s.UpdatedAt = now
	}
}

// finalize seals the session with the respondent's contact details.
func (s *Session) finalize(contact model.Contact, now time.Time) error {
	if s.Finalized {
		return ErrFinalized
	}
	if !s.Complete {
		return ErrNotComplete
	}
	if err := contact.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}
	s.Contact = contact
	s.Finalized = true
	s.UpdatedAt = now
	return nil
}

func (s *Session) active(questionID string) bool {
	for _, id := range s.Order {
		if id == questionID {
			return true
		}
	}
	return false
}

// normalizeValue checks an answer value against its question's type and
// returns the canonical form. A bare token on a multi-choice question is
// promoted to a one-element selection; a bare string on a text question is
// read as text.
func normalizeValue(q model.Question, v model.Value) (model.Value, error) {
	switch q.Type {
	case model.TypeSingle:
		if v.Kind != model.ValueToken || !hasOption(q, v.Token) {
			return model.Value{}, fmt.Errorf("%w: %s expects one of its option values", ErrInvalidAnswer, q.ID)
		}
		return model.TokenValue(v.Token), nil

	case model.TypeMulti:
		var tokens []string
		switch v.Kind {
		case model.ValueToken:
			tokens = []string{v.Token}
		case model.ValueTokens:
			tokens = v.Tokens
		default:
			return model.Value{}, fmt.Errorf("%w: %s expects option values", ErrInvalidAnswer, q.ID)
		}
		if len(tokens) == 0 {
			return model.Value{}, fmt.Errorf("%w: %s expects at least one selection", ErrInvalidAnswer, q.ID)
		}
		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			if !hasOption(q, tok) {
				return model.Value{}, fmt.Errorf("%w: %s has no option %q", ErrInvalidAnswer, q.ID, tok)
			}
			if seen[tok] {
				return model.Value{}, fmt.Errorf("%w: %s selected %q twice", ErrInvalidAnswer, q.ID, tok)
			}
			seen[tok] = true
		}
		return model.TokensValue(tokens...), nil

	case model.TypeScale:
		if v.Kind != model.ValueNumber || v.Number < q.ScaleMin || v.Number > q.ScaleMax {
			return model.Value{}, fmt.Errorf("%w: %s expects a value between %d and %d", ErrInvalidAnswer, q.ID, q.ScaleMin, q.ScaleMax)
		}
		return model.NumberValue(v.Number), nil

	case model.TypeNumber:
		if v.Kind != model.ValueNumber || v.Number < q.Min || v.Number > q.Max {
			return model.Value{}, fmt.Errorf("%w: %s expects a number between %d and %d", ErrInvalidAnswer, q.ID, q.Min, q.Max)
		}
		return model.NumberValue(v.Number), nil

	case model.TypeText:
		switch v.Kind {
		case model.ValueText:
			return model.TextValue(v.Text), nil
		case model.ValueToken:
			// Decoded JSON strings carry both token and text.
			if v.Text != "" {
				return model.TextValue(v.Text), nil
			}
			return model.TextValue(v.Token), nil
		}
		return model.Value{}, fmt.Errorf("%w: %s expects text", ErrInvalidAnswer, q.ID)
	}
	return model.Value{}, fmt.Errorf("%w: unknown question type %q", ErrInvalidAnswer, q.Type)
}

func hasOption(q model.Question, value string) bool {
	for _, opt := range q.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}
