// Package catalog loads and validates the assessment question catalog.
//
// The catalog is an ordered list of questions grouped into sections. A
// default catalog is embedded in the binary; deployments can override it
// with their own JSON file via the --questions flag.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/onevent/flowscore/internal/model"
)

//go:embed data/questions.json
var defaultQuestions []byte

// Catalog holds the ordered question list together with lookup indexes.
// A Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	questions []model.Question
	byID      map[string]int
	sections  []int
}

// New builds a catalog from the given questions, validating them first.
func New(questions []model.Question) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	c := &Catalog{
		questions: questions,
		byID:      make(map[string]int, len(questions)),
	}

	seen := make(map[int]bool)
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %q: %w", q.ID, err)
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question ID %q", q.ID)
		}
		c.byID[q.ID] = i
		if !seen[q.Section] {
			seen[q.Section] = true
			c.sections = append(c.sections, q.Section)
		}
	}

	// Skip-rule targets must exist among the question's own options so a
	// rule can never be dead by construction.
	for _, q := range questions {
		for _, r := range q.Rules {
			for _, tok := range r.AnyOf {
				if !hasOption(q, tok) {
					return nil, fmt.Errorf("question %q: rule references unknown option %q", q.ID, tok)
				}
			}
			for _, id := range r.Skip {
				if _, ok := c.byID[id]; !ok {
					return nil, fmt.Errorf("question %q: rule skips unknown question %q", q.ID, id)
				}
			}
		}
	}

	return c, nil
}

// Load reads a question catalog from r.
func Load(r io.Reader) (*Catalog, error) {
	var questions []model.Question
	if err := json.NewDecoder(r).Decode(&questions); err != nil {
		return nil, fmt.Errorf("decoding questions: %w", err)
	}
	return New(questions)
}

// LoadFile reads a question catalog from a JSON file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening questions file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded question catalog.
func Default() (*Catalog, error) {
	var questions []model.Question
	if err := json.Unmarshal(defaultQuestions, &questions); err != nil {
		return nil, fmt.Errorf("decoding embedded questions: %w", err)
	}
	return New(questions)
}

// Len returns the number of questions in the catalog.
func (c *Catalog) Len() int { return len(c.questions) }

// Questions returns the ordered question list. Callers must not modify it.
func (c *Catalog) Questions() []model.Question { return c.questions }

// At returns the question at position i.
func (c *Catalog) At(i int) (model.Question, bool) {
	if i < 0 || i >= len(c.questions) {
		return model.Question{}, false
	}
	return c.questions[i], true
}

// ByID looks up a question by its identifier.
func (c *Catalog) ByID(id string) (model.Question, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Question{}, false
	}
	return c.questions[i], true
}

// Index returns the position of the question with the given ID, or -1.
func (c *Catalog) Index(id string) int {
	i, ok := c.byID[id]
	if !ok {
		return -1
	}
	return i
}

// Sections returns the distinct section numbers in catalog order.
func (c *Catalog) Sections() []int { return c.sections }

func validateQuestion(q model.Question) error {
	if q.ID == "" {
		return fmt.Errorf("missing ID")
	}
	if q.Text == "" {
		return fmt.Errorf("missing text")
	}

	switch q.Type {
	case model.TypeSingle, model.TypeMulti:
		if len(q.Options) == 0 {
			return fmt.Errorf("%s question has no options", q.Type)
		}
		values := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if opt.Value == "" {
				return fmt.Errorf("option with empty value")
			}
			if values[opt.Value] {
				return fmt.Errorf("duplicate option value %q", opt.Value)
			}
			values[opt.Value] = true
		}
		for dim, w := range q.Weights {
			if w.Options == nil {
				return fmt.Errorf("dimension %s: choice question needs option weights", dim)
			}
			for tok := range w.Options {
				if !values[tok] {
					return fmt.Errorf("dimension %s: weight for unknown option %q", dim, tok)
				}
			}
		}

	case model.TypeScale:
		if q.ScaleMin >= q.ScaleMax {
			return fmt.Errorf("scale bounds %d..%d are invalid", q.ScaleMin, q.ScaleMax)
		}
		steps := q.ScaleMax - q.ScaleMin + 1
		if len(q.ScaleLabels) != 0 && len(q.ScaleLabels) != steps {
			return fmt.Errorf("%d scale labels for %d steps", len(q.ScaleLabels), steps)
		}
		for dim, w := range q.Weights {
			if w.Levels == nil {
				return fmt.Errorf("dimension %s: scale question needs a weight array", dim)
			}
			if len(w.Levels) != steps {
				return fmt.Errorf("dimension %s: %d weights for %d steps", dim, len(w.Levels), steps)
			}
		}

	case model.TypeNumber:
		if q.Min > q.Max {
			return fmt.Errorf("number bounds %d..%d are invalid", q.Min, q.Max)
		}
		for dim, w := range q.Weights {
			if w.Formula == nil {
				return fmt.Errorf("dimension %s: number question needs a formula weight", dim)
			}
			if w.Formula.Kind != model.FormulaLinear {
				return fmt.Errorf("dimension %s: unknown formula kind %q", dim, w.Formula.Kind)
			}
		}

	case model.TypeText:
		if len(q.Weights) != 0 {
			return fmt.Errorf("text question cannot carry weights")
		}

	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}

	for dim := range q.Weights {
		if !validDimension(dim) {
			return fmt.Errorf("unknown dimension %q", dim)
		}
	}

	if len(q.Rules) > 0 && q.Type != model.TypeSingle && q.Type != model.TypeMulti {
		return fmt.Errorf("rules are only allowed on choice questions")
	}

	return nil
}

func validDimension(d model.Dimension) bool {
	for _, known := range model.Dimensions {
		if d == known {
			return true
		}
	}
	return false
}

func hasOption(q model.Question, value string) bool {
	for _, opt := range q.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}
