package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UserRole represents an admin user's access level.
type UserRole string

const (
	// UserRoleViewer can browse submitted results.
	UserRoleViewer UserRole = "viewer"
	// UserRoleAdmin can browse results and manage users.
	UserRoleAdmin UserRole = "admin"
)

// User represents an admin user of the review surface.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an admin authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// QuestionType classifies how a question is answered.
type QuestionType string

const (
	TypeSingle QuestionType = "single"
	TypeMulti  QuestionType = "multi"
	TypeScale  QuestionType = "scale"
	TypeNumber QuestionType = "number"
	TypeText   QuestionType = "text"
)

// Dimension is one of the five fixed scoring axes.
type Dimension string

const (
	DimFinancialImpact Dimension = "financial_impact"
	DimTimeWaste       Dimension = "time_waste"
	DimRiskControl     Dimension = "risk_control"
	DimDigitalMaturity Dimension = "digital_maturity"
	DimAutomatable     Dimension = "automatable_score"
)

// Dimensions lists all axes in their canonical order. Scoring iterates this
// slice so accumulation order is deterministic.
var Dimensions = []Dimension{
	DimFinancialImpact,
	DimTimeWaste,
	DimRiskControl,
	DimDigitalMaturity,
	DimAutomatable,
}

// Scores maps each dimension to its normalized value in [0, 100].
type Scores map[Dimension]int

// RecommendationType identifies one of the three fixed recommendations.
type RecommendationType string

const (
	RecommendWebApp     RecommendationType = "web_app"
	RecommendAutomation RecommendationType = "automation"
	RecommendHybrid     RecommendationType = "hybrid"
)

// Recommendation is the selected top-level recommendation with display text
// resolved for the active language.
type Recommendation struct {
	Type        RecommendationType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Details     []string           `json:"details"`
}

// Level is a qualitative impact or effort rating.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Priority is a ranked action item materialized from the priority catalog.
// It carries only display fields; the trigger predicate stays in the catalog.
type Priority struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      Level  `json:"impact"`
	ImpactLabel string `json:"impact_label"`
	Effort      Level  `json:"effort"`
	EffortLabel string `json:"effort_label"`
}

// Option is one selectable choice of a single- or multi-choice question.
type Option struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	LabelEN string `json:"label_en,omitempty"`
}

// FormulaKind selects a named formula for numeric-question weights.
type FormulaKind string

// FormulaLinear multiplies the numeric answer by a constant, optionally
// capped. It is the only kind currently defined.
const FormulaLinear FormulaKind = "linear"

// Formula converts a numeric answer into a raw score contribution.
type Formula struct {
	Kind       FormulaKind `json:"kind"`
	Multiplier float64     `json:"multiplier"`
	Cap        float64     `json:"cap,omitempty"`
}

// Weight describes how an answer converts into a raw contribution for one
// dimension. Exactly one field is set, depending on the question type:
// Levels for scale questions, Options for choice questions, Formula for
// numeric questions.
type Weight struct {
	Levels  []float64
	Options map[string]float64
	Formula *Formula
}

// UnmarshalJSON accepts the three wire shapes: a positional array, a
// token-to-weight object, or a formula object carrying a "kind" field.
func (w *Weight) UnmarshalJSON(data []byte) error {
	var levels []float64
	if err := json.Unmarshal(data, &levels); err == nil {
		w.Levels = levels
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("weight must be an array or an object: %w", err)
	}
	if _, ok := probe["kind"]; ok {
		var f Formula
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("parse formula weight: %w", err)
		}
		w.Formula = &f
		return nil
	}

	opts := make(map[string]float64, len(probe))
	for token, raw := range probe {
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("weight for token %q: %w", token, err)
		}
		opts[token] = v
	}
	w.Options = opts
	return nil
}

// MarshalJSON writes the natural wire shape back out.
func (w Weight) MarshalJSON() ([]byte, error) {
	switch {
	case w.Levels != nil:
		return json.Marshal(w.Levels)
	case w.Formula != nil:
		return json.Marshal(w.Formula)
	default:
		return json.Marshal(w.Options)
	}
}

// FlowRule conditionally removes questions from the live flow after its
// question is answered. A rule with Default set is an explicit fallback
// placeholder and is never matched.
type FlowRule struct {
	AnyOf   []string `json:"any_of,omitempty"`
	Skip    []string `json:"skip,omitempty"`
	Default bool     `json:"default,omitempty"`
}

// Helper is the optional guidance shown for a question.
type Helper struct {
	Explanation string   `json:"explanation"`
	Examples    []string `json:"examples,omitempty"`
	Tip         string   `json:"tip,omitempty"`
}

// Question is one entry of the assessment catalog.
type Question struct {
	ID            string               `json:"id"`
	Section       int                  `json:"section"`
	Type          QuestionType         `json:"type"`
	Text          string               `json:"text"`
	TextEN        string               `json:"text_en,omitempty"`
	Options       []Option             `json:"options,omitempty"`
	ScaleMin      int                  `json:"scale_min,omitempty"`
	ScaleMax      int                  `json:"scale_max,omitempty"`
	ScaleLabels   []string             `json:"scale_labels,omitempty"`
	ScaleLabelsEN []string             `json:"scale_labels_en,omitempty"`
	Min           int                  `json:"min,omitempty"`
	Max           int                  `json:"max,omitempty"`
	Suffix        string               `json:"suffix,omitempty"`
	Placeholder   string               `json:"placeholder,omitempty"`
	Weights       map[Dimension]Weight `json:"weights,omitempty"`
	Rules         []FlowRule           `json:"rules,omitempty"`
	Helper        *Helper              `json:"helper,omitempty"`
}

// HasWeights reports whether the question contributes to scoring.
func (q Question) HasWeights() bool {
	return q.Type != TypeText && len(q.Weights) > 0
}

// ValueKind tags the shape of an answer value.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueToken
	ValueTokens
	ValueNumber
	ValueText
)

// Value is a polymorphic answer value: a single option token, a set of
// tokens, an integer, or free text. The wire shape follows the question
// type: JSON string, array of strings, or number.
type Value struct {
	Kind   ValueKind
	Token  string
	Tokens []string
	Number int
	Text   string
}

// TokenValue wraps a single-choice token.
func TokenValue(token string) Value { return Value{Kind: ValueToken, Token: token} }

// TokensValue wraps a multi-choice selection.
func TokensValue(tokens ...string) Value { return Value{Kind: ValueTokens, Tokens: tokens} }

// NumberValue wraps a scale or numeric answer.
func NumberValue(n int) Value { return Value{Kind: ValueNumber, Number: n} }

// TextValue wraps a free-text answer.
func TextValue(s string) Value { return Value{Kind: ValueText, Text: s} }

// Matches reports whether the value intersects the given token set: any
// selected token for multi-choice answers, equality for single tokens.
// Numeric and free-text values never match.
func (v Value) Matches(tokens []string) bool {
	switch v.Kind {
	case ValueToken:
		for _, t := range tokens {
			if v.Token == t {
				return true
			}
		}
	case ValueTokens:
		for _, sel := range v.Tokens {
			for _, t := range tokens {
				if sel == t {
					return true
				}
			}
		}
	}
	return false
}

// UnmarshalJSON decodes by JSON type: string, array, or number. A bare
// string is stored as both token and text; the question type decides which
// reading applies.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.Kind = ValueToken
		v.Token = s
		v.Text = s
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		v.Kind = ValueTokens
		v.Tokens = list
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		v.Kind = ValueNumber
		v.Number = int(n)
		return nil
	}
	return fmt.Errorf("answer value must be a string, string array, or number")
}

// MarshalJSON writes the natural wire shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueToken:
		return json.Marshal(v.Token)
	case ValueTokens:
		return json.Marshal(v.Tokens)
	case ValueNumber:
		return json.Marshal(v.Number)
	case ValueText:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// Answer is one stored response. The flow keeps at most one per question id.
type Answer struct {
	QuestionID string    `json:"question_id"`
	Value      Value     `json:"value"`
	AnsweredAt time.Time `json:"answered_at"`
	HelperUsed bool      `json:"helper_used,omitempty"`
}

// Contact is the respondent's contact info captured at completion.
type Contact struct {
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
}

// Validate checks the fields required before a result can be submitted.
// The email check is deliberately shallow; the address is only used for
// sending the results, and a bounce there is not fatal.
func (c Contact) Validate() error {
	if strings.TrimSpace(c.Company) == "" || strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("company and email are required")
	}
	if !strings.Contains(c.Email, "@") || !strings.Contains(c.Email, ".") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ResultBundle is the final output of an assessment: the sole object handed
// to the presentation and submission collaborators.
type ResultBundle struct {
	Scores          Scores               `json:"scores"`
	DimensionLabels map[Dimension]string `json:"dimension_labels"`
	Recommendation  Recommendation       `json:"recommendation"`
	Priorities      []Priority           `json:"priorities"`
	Summary         string               `json:"summary"`
}

// ServeConfig holds runtime parameters set via CLI flags.
type ServeConfig struct {
	Lang               string
	WebhookURL         string
	ValidateURL        string
	FailOpenValidation bool
	SecureCookies      bool
}
