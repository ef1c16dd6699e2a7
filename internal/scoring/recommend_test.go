package scoring

import (
	"strings"
	"testing"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/onevent/flowscore/internal/i18n"
	"github.com/onevent/flowscore/internal/model"
)

func testLocalizer(t *testing.T, lang string) *goi18n.Localizer {
	t.Helper()
	tr, err := i18n.New("ro")
	if err != nil {
		t.Fatalf("i18n.New() error: %v", err)
	}
	return tr.Localizer(lang)
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name        string
		maturity    int
		automatable int
		want        model.RecommendationType
	}{
		{"low maturity wins regardless of potential", 20, 90, model.RecommendWebApp},
		{"maturity boundary is exclusive", 34, 10, model.RecommendWebApp},
		{"at the maturity boundary", 35, 10, model.RecommendHybrid},
		{"high maturity and potential", 60, 70, model.RecommendAutomation},
		{"automation needs potential above 55", 60, 55, model.RecommendHybrid},
		{"automation needs maturity at least 50", 49, 80, model.RecommendHybrid},
		{"automation boundary maturity 50", 50, 56, model.RecommendAutomation},
		{"middle ground", 45, 40, model.RecommendHybrid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := model.Scores{
				model.DimDigitalMaturity: tt.maturity,
				model.DimAutomatable:     tt.automatable,
			}
			if got := Recommend(scores); got != tt.want {
				t.Errorf("Recommend(maturity=%d, automatable=%d) = %s, want %s",
					tt.maturity, tt.automatable, got, tt.want)
			}
		})
	}
}

func TestRank(t *testing.T) {
	loc := testLocalizer(t, "en")

	t.Run("ordering and localization", func(t *testing.T) {
		scores := model.Scores{
			model.DimRiskControl: 60,
			model.DimTimeWaste:   50,
		}
		answers := map[string]model.Answer{
			"q01": answer("q01", model.TokensValue("paper")),
			"q16": answer("q16", model.TokensValue("phone")),
			"q19": answer("q19", model.TokenValue("chaos")),
		}

		got := Rank(scores, answers, loc)
		wantIDs := []string{"documents", "crm", "data_integration"}
		if len(got) != len(wantIDs) {
			t.Fatalf("Rank() returned %d priorities, want %d", len(got), len(wantIDs))
		}
		for i, want := range wantIDs {
			if got[i].ID != want {
				t.Errorf("priority[%d] = %s, want %s", i, got[i].ID, want)
			}
		}
		if got[0].Title != "Document organization" {
			t.Errorf("title = %q, want the localized English title", got[0].Title)
		}
		if got[0].ImpactLabel != "high" || got[0].EffortLabel != "low" {
			t.Errorf("labels = %q/%q, want high/low", got[0].ImpactLabel, got[0].EffortLabel)
		}
	})

	t.Run("equal ranks keep catalog order", func(t *testing.T) {
		// reporting and communication both rank medium/medium.
		scores := model.Scores{model.DimRiskControl: 60}
		answers := map[string]model.Answer{
			"q06": answer("q06", model.TokensValue("phone_calls")),
			"q17": answer("q17", model.TokenValue("no_reports")),
		}
		got := Rank(scores, answers, loc)
		wantIDs := []string{"reporting", "communication"}
		if len(got) != 2 || got[0].ID != wantIDs[0] || got[1].ID != wantIDs[1] {
			t.Errorf("Rank() order = %v, want %v", ids(got), wantIDs)
		}
	})

	t.Run("caps at five", func(t *testing.T) {
		scores := model.Scores{
			model.DimRiskControl: 90,
			model.DimTimeWaste:   90,
			model.DimAutomatable: 90,
		}
		answers := map[string]model.Answer{
			"q01": answer("q01", model.TokensValue("paper")),
			"q06": answer("q06", model.TokensValue("whatsapp_group")),
			"q09": answer("q09", model.TokenValue("memory")),
			"q15": answer("q15", model.TokenValue("not_noticed")),
			"q16": answer("q16", model.TokensValue("memory")),
			"q17": answer("q17", model.TokenValue("manual_data")),
			"q19": answer("q19", model.TokenValue("many_duplicates")),
		}
		got := Rank(scores, answers, loc)
		if len(got) != 5 {
			t.Errorf("Rank() returned %d priorities, want 5", len(got))
		}
	})

	t.Run("no triggers no priorities", func(t *testing.T) {
		if got := Rank(model.Scores{}, nil, loc); len(got) != 0 {
			t.Errorf("Rank() = %v, want empty", ids(got))
		}
	})
}

func ids(ps []model.Priority) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestSummary(t *testing.T) {
	loc := testLocalizer(t, "en")

	tests := []struct {
		name   string
		scores model.Scores
		want   []string
	}{
		{
			name: "severe problem area named",
			scores: model.Scores{
				model.DimTimeWaste:       75,
				model.DimDigitalMaturity: 50,
			},
			want: []string{"wasted time (75%)"},
		},
		{
			name: "low maturity remark",
			scores: model.Scores{
				model.DimDigitalMaturity: 20,
			},
			want: []string{"digitalization is low"},
		},
		{
			name: "high maturity and automation",
			scores: model.Scores{
				model.DimDigitalMaturity: 80,
				model.DimAutomatable:     70,
			},
			want: []string{"good digital maturity", "automation potential is high"},
		},
		{
			name:   "nothing notable falls back to default",
			scores: model.Scores{model.DimDigitalMaturity: 50},
			want:   []string{"improvement opportunities"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summary(tt.scores, loc)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("Summary() = %q, want it to contain %q", got, want)
				}
			}
		})
	}
}

func TestBuildResult(t *testing.T) {
	cat := mustCatalog(t, []model.Question{
		{
			ID: "s1", Text: "scale", Type: model.TypeScale, ScaleMin: 1, ScaleMax: 5,
			Weights: map[model.Dimension]model.Weight{
				model.DimDigitalMaturity: {Levels: []float64{0, 5, 10, 15, 25}},
			},
		},
	})
	answers := map[string]model.Answer{
		"s1": answer("s1", model.NumberValue(1)),
	}

	res := BuildResult(cat, answers, testLocalizer(t, "en"))
	if res.Recommendation.Type != model.RecommendWebApp {
		t.Errorf("recommendation = %s, want web_app", res.Recommendation.Type)
	}
	if res.Recommendation.Title != "Custom web application" {
		t.Errorf("title = %q, want localized web_app title", res.Recommendation.Title)
	}
	if len(res.Recommendation.Details) != 3 {
		t.Errorf("details = %d entries, want 3", len(res.Recommendation.Details))
	}
	if res.Summary == "" {
		t.Error("summary is empty")
	}
	if res.Scores[model.DimDigitalMaturity] != 0 {
		t.Errorf("digital_maturity = %d, want 0", res.Scores[model.DimDigitalMaturity])
	}
	if got := res.DimensionLabels[model.DimDigitalMaturity]; got != "Digital maturity" {
		t.Errorf("dimension label = %q, want %q", got, "Digital maturity")
	}
}
