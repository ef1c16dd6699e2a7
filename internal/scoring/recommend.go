package scoring

import (
	"fmt"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/onevent/flowscore/internal/catalog"
	"github.com/onevent/flowscore/internal/i18n"
	"github.com/onevent/flowscore/internal/model"
)

// Recommendation thresholds. Maturity below lowMaturity always means the
// company needs a digital foundation first; automation only pays off once
// maturity is at least automationMaturity.
const (
	lowMaturity         = 35
	automationMaturity  = 50
	automationPotential = 55
)

// Recommend selects one of the three recommendation types. Exactly one type
// matches any score combination.
func Recommend(scores model.Scores) model.RecommendationType {
	maturity := scores[model.DimDigitalMaturity]
	automatable := scores[model.DimAutomatable]

	switch {
	case maturity < lowMaturity:
		return model.RecommendWebApp
	case automatable > automationPotential && maturity >= automationMaturity:
		return model.RecommendAutomation
	default:
		return model.RecommendHybrid
	}
}

// recommendationDetails is the number of detail bullets each recommendation
// carries in the locale files.
const recommendationDetails = 3

// BuildResult assembles the complete result bundle from a finished answer
// set, with all display text resolved through loc.
func BuildResult(cat *catalog.Catalog, answers map[string]model.Answer, loc *goi18n.Localizer) model.ResultBundle {
	scores := Score(cat, answers)
	recType := Recommend(scores)

	rec := model.Recommendation{
		Type:        recType,
		Title:       i18n.T(loc, fmt.Sprintf("recommendation.%s.title", recType), nil),
		Description: i18n.T(loc, fmt.Sprintf("recommendation.%s.description", recType), nil),
	}
	for i := 1; i <= recommendationDetails; i++ {
		rec.Details = append(rec.Details, i18n.T(loc, fmt.Sprintf("recommendation.%s.detail_%d", recType, i), nil))
	}

	return model.ResultBundle{
		Scores:          scores,
		DimensionLabels: DimensionLabels(loc),
		Recommendation:  rec,
		Priorities:      Rank(scores, answers, loc),
		Summary:         Summary(scores, loc),
	}
}

// DimensionLabels resolves the display name of every score dimension.
func DimensionLabels(loc *goi18n.Localizer) map[model.Dimension]string {
	labels := make(map[model.Dimension]string, len(model.Dimensions))
	for _, d := range model.Dimensions {
		labels[d] = i18n.T(loc, "dimension."+string(d), nil)
	}
	return labels
}

// Summary composes the result paragraph from score-dependent fragments: the
// worst problem area when it is severe, a remark on digital maturity at
// either extreme, and the automation potential when high. When no fragment
// applies a generic sentence is returned.
func Summary(scores model.Scores, loc *goi18n.Localizer) string {
	var parts []string

	worst := model.DimFinancialImpact
	for _, d := range []model.Dimension{model.DimTimeWaste, model.DimRiskControl} {
		if scores[d] > scores[worst] {
			worst = d
		}
	}
	if scores[worst] > 60 {
		parts = append(parts, i18n.T(loc, "summary.problem_area", map[string]any{
			"Area":  i18n.T(loc, "area."+string(worst), nil),
			"Score": scores[worst],
		}))
	}

	switch maturity := scores[model.DimDigitalMaturity]; {
	case maturity < 30:
		parts = append(parts, i18n.T(loc, "summary.maturity_low", nil))
	case maturity > 70:
		parts = append(parts, i18n.T(loc, "summary.maturity_high", nil))
	}

	if scores[model.DimAutomatable] > 60 {
		parts = append(parts, i18n.T(loc, "summary.automation_high", nil))
	}

	if len(parts) == 0 {
		return i18n.T(loc, "summary.default", nil)
	}
	return strings.Join(parts, " ")
}
