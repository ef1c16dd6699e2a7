package model

import "time"

// ResultExport is the top-level JSON structure for the export command.
type ResultExport struct {
	ExportedAt time.Time      `json:"exported_at"`
	Count      int            `json:"count"`
	Results    []StoredResult `json:"results"`
}

// StoredResult is one persisted assessment outcome.
type StoredResult struct {
	ID                  int64              `json:"id"`
	Token               string             `json:"token"`
	Contact             Contact            `json:"contact"`
	Answers             []Answer           `json:"answers"`
	Scores              Scores             `json:"scores"`
	Recommendation      RecommendationType `json:"recommendation"`
	RecommendationTitle string             `json:"recommendation_title"`
	Priorities          []Priority         `json:"priorities"`
	Summary             string             `json:"summary"`
	CompletedAt         time.Time          `json:"completed_at"`
}
