package scoring

import (
	"sort"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/onevent/flowscore/internal/i18n"
	"github.com/onevent/flowscore/internal/model"
)

// maxPriorities is how many ranked priorities a result carries.
const maxPriorities = 5

// priorityDef is one entry of the fixed improvement catalog. The trigger
// decides whether the entry applies to a given result; impact and effort
// determine its rank.
type priorityDef struct {
	id      string
	impact  model.Level
	effort  model.Level
	trigger func(scores model.Scores, answers map[string]model.Answer) bool
}

var priorityDefs = []priorityDef{
	{
		id: "documents", impact: model.LevelHigh, effort: model.LevelLow,
		trigger: func(s model.Scores, a map[string]model.Answer) bool {
			return s[model.DimRiskControl] > 50 && answered(a, "q01", "whatsapp_email", "paper")
		},
	},
	{
		id: "tracking", impact: model.LevelHigh, effort: model.LevelLow,
		trigger: func(s model.Scores, a map[string]model.Answer) bool {
			return s[model.DimTimeWaste] > 40 && answered(a, "q09", "memory", "nothing", "paper")
		},
	},
	{
		id: "crm", impact: model.LevelHigh, effort: model.LevelMedium,
		trigger: func(s model.Scores, a map[string]model.Answer) bool {
			return answered(a, "q16", "phone", "paper", "memory")
		},
	},
	{
		id: "automation_email", impact: model.LevelMedium, effort: model.LevelLow,
		trigger: func(s model.Scores, a map[string]model.Answer) bool {
			return s[model.DimAutomatable] > 50 && s[model.DimTimeWaste] > 40
		},
	},
	{
		id: "reporting", impact: model.LevelMedium, effort: model.LevelMedium,
		trigger: func(s model.Scores, a map[string]model.Answer) bool {
			return answered(a, "q17", "manual_data", "no_reports")
		},
	},
	{
		id: "data_integration", impact: model.LevelHigh, effort: model.LevelHigh,
		trigger: func(s model.Scores, a map[string]model.Answer) bool {
			return answered(a, "q19", "many_duplicates", "chaos")
		},
	},
	{
		id: "process_standardization", impact: model.LevelHigh, effort: model.LevelMedium,
		trigger: func(s model.Scores, a map[string]model.Answer) bool {
			return answered(a, "q15", "noticed_late", "not_noticed")
		},
	},
	{
		id: "communication", impact: model.LevelMedium, effort: model.LevelMedium,
		trigger: func(s model.Scores, a map[string]model.Answer) bool {
			return s[model.DimRiskControl] > 50 && answered(a, "q06", "phone_calls", "whatsapp_group")
		},
	},
}

// Rank evaluates every catalog entry against the result, orders the matches
// by impact-over-effort and returns at most maxPriorities of them. The sort
// is stable, so entries with equal rank keep their catalog order.
func Rank(scores model.Scores, answers map[string]model.Answer, loc *goi18n.Localizer) []model.Priority {
	var active []model.Priority
	for _, def := range priorityDefs {
		if !def.trigger(scores, answers) {
			continue
		}
		active = append(active, model.Priority{
			ID:          def.id,
			Title:       i18n.T(loc, "priority."+def.id+".title", nil),
			Description: i18n.T(loc, "priority."+def.id+".description", nil),
			Impact:      def.impact,
			ImpactLabel: i18n.T(loc, "level."+string(def.impact), nil),
			Effort:      def.effort,
			EffortLabel: i18n.T(loc, "level."+string(def.effort), nil),
		})
	}

	sort.SliceStable(active, func(i, j int) bool {
		return priorityRank(active[i]) > priorityRank(active[j])
	})

	if len(active) > maxPriorities {
		active = active[:maxPriorities]
	}
	return active
}

var (
	impactRank = map[model.Level]int{model.LevelHigh: 3, model.LevelMedium: 2, model.LevelLow: 1}
	effortRank = map[model.Level]int{model.LevelLow: 3, model.LevelMedium: 2, model.LevelHigh: 1}
)

func priorityRank(p model.Priority) int {
	return impactRank[p.Impact] * effortRank[p.Effort]
}

// answered reports whether the stored answer for questionID selects any of
// the given option tokens.
func answered(answers map[string]model.Answer, questionID string, tokens ...string) bool {
	ans, ok := answers[questionID]
	if !ok {
		return false
	}
	return ans.Value.Matches(tokens)
}
