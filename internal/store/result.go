package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/onevent/flowscore/internal/model"
)

// SaveResult persists a completed assessment and returns its ID. Answers,
// scores and priorities are stored as JSON; the flat contact and summary
// columns keep the table browsable with plain SQL.
func (s *Store) SaveResult(r model.StoredResult) (int64, error) {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return 0, fmt.Errorf("marshal answers: %w", err)
	}
	scores, err := json.Marshal(r.Scores)
	if err != nil {
		return 0, fmt.Errorf("marshal scores: %w", err)
	}
	priorities, err := json.Marshal(r.Priorities)
	if err != nil {
		return 0, fmt.Errorf("marshal priorities: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO results (token, company, email, phone, answers, scores,
		   recommendation, recommendation_title, priorities, summary, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Token, r.Contact.Company, r.Contact.Email, r.Contact.Phone,
		string(answers), string(scores),
		r.Recommendation, r.RecommendationTitle, string(priorities), r.Summary,
		r.CompletedAt,
	)
	if err != nil {
		slog.Error("failed to save result", "company", r.Contact.Company, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("saved result", "id", id, "company", r.Contact.Company, "recommendation", r.Recommendation)
	return id, nil
}

// GetResult returns a stored result by ID, or nil if not found.
func (s *Store) GetResult(id int64) (*model.StoredResult, error) {
	row := s.db.QueryRow(
		`SELECT id, token, company, email, phone, answers, scores,
		   recommendation, recommendation_title, priorities, summary, completed_at
		 FROM results WHERE id = ?`, id,
	)
	r, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListResults returns all stored results, newest first.
func (s *Store) ListResults() ([]model.StoredResult, error) {
	rows, err := s.db.Query(
		`SELECT id, token, company, email, phone, answers, scores,
		   recommendation, recommendation_title, priorities, summary, completed_at
		 FROM results ORDER BY completed_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.StoredResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// DeleteResult removes a stored result.
func (s *Store) DeleteResult(id int64) error {
	_, err := s.db.Exec(`DELETE FROM results WHERE id = ?`, id)
	return err
}

// ResultCount returns the total number of stored results.
func (s *Store) ResultCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*model.StoredResult, error) {
	var r model.StoredResult
	var answers, scores, priorities string
	err := row.Scan(&r.ID, &r.Token, &r.Contact.Company, &r.Contact.Email, &r.Contact.Phone,
		&answers, &scores, &r.Recommendation, &r.RecommendationTitle, &priorities,
		&r.Summary, &r.CompletedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers for result %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(scores), &r.Scores); err != nil {
		return nil, fmt.Errorf("unmarshal scores for result %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(priorities), &r.Priorities); err != nil {
		return nil, fmt.Errorf("unmarshal priorities for result %d: %w", r.ID, err)
	}
	return &r, nil
}
