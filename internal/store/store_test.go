package store

import (
	"testing"
	"time"

	"github.com/onevent/flowscore/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestResult(t *testing.T, s *Store, company string, completedAt time.Time) int64 {
	t.Helper()
	id, err := s.SaveResult(model.StoredResult{
		Token:   "fs_demo",
		Contact: model.Contact{Company: company, Email: "office@" + company + ".ro"},
		Answers: []model.Answer{
			{QuestionID: "q01", Value: model.TokensValue("paper"), AnsweredAt: completedAt},
			{QuestionID: "q02", Value: model.NumberValue(4), AnsweredAt: completedAt},
			{QuestionID: "q11", Value: model.TextValue("facturare"), AnsweredAt: completedAt},
		},
		Scores: model.Scores{
			model.DimTimeWaste:       70,
			model.DimDigitalMaturity: 20,
		},
		Recommendation:      model.RecommendWebApp,
		RecommendationTitle: "Aplicație web personalizată",
		Priorities: []model.Priority{
			{ID: "documents", Title: "Organizarea documentelor", Impact: model.LevelHigh, Effort: model.LevelLow},
		},
		Summary:     "rezumat",
		CompletedAt: completedAt,
	})
	if err != nil {
		t.Fatalf("insertTestResult: %v", err)
	}
	return id
}

func TestResultRoundTrip(t *testing.T) {
	s := newTestStore(t)

	count, err := s.ResultCount()
	if err != nil {
		t.Fatalf("ResultCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 results, got %d", count)
	}

	id := insertTestResult(t, s, "onevent", time.Now())

	r, err := s.GetResult(id)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if r == nil {
		t.Fatal("GetResult returned nil for existing result")
	}
	if r.Contact.Company != "onevent" {
		t.Errorf("company = %q, want onevent", r.Contact.Company)
	}
	if r.Recommendation != model.RecommendWebApp {
		t.Errorf("recommendation = %s, want web_app", r.Recommendation)
	}
	if len(r.Answers) != 3 {
		t.Fatalf("answers = %d, want 3", len(r.Answers))
	}
	if r.Answers[1].Value.Number != 4 {
		t.Errorf("q02 value = %+v, want number 4", r.Answers[1].Value)
	}
	if r.Scores[model.DimTimeWaste] != 70 {
		t.Errorf("time_waste = %d, want 70", r.Scores[model.DimTimeWaste])
	}
	if len(r.Priorities) != 1 || r.Priorities[0].ID != "documents" {
		t.Errorf("priorities = %+v", r.Priorities)
	}

	missing, err := s.GetResult(9999)
	if err != nil {
		t.Fatalf("GetResult(missing): %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing result")
	}
}

func TestListResultsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().Add(-time.Hour)
	insertTestResult(t, s, "older", base)
	insertTestResult(t, s, "newer", base.Add(30*time.Minute))

	results, err := s.ListResults()
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Contact.Company != "newer" {
		t.Errorf("first result = %q, want newer", results[0].Contact.Company)
	}
}

func TestDeleteResult(t *testing.T) {
	s := newTestStore(t)
	id := insertTestResult(t, s, "onevent", time.Now())

	if err := s.DeleteResult(id); err != nil {
		t.Fatalf("DeleteResult: %v", err)
	}
	r, err := s.GetResult(id)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if r != nil {
		t.Error("result still present after delete")
	}
}

func TestExportAllResults(t *testing.T) {
	s := newTestStore(t)
	insertTestResult(t, s, "alpha", time.Now())
	insertTestResult(t, s, "beta", time.Now())

	export, err := s.ExportAllResults()
	if err != nil {
		t.Fatalf("ExportAllResults: %v", err)
	}
	if export.Count != 2 || len(export.Results) != 2 {
		t.Errorf("export count = %d (%d results), want 2", export.Count, len(export.Results))
	}
	if export.ExportedAt.IsZero() {
		t.Error("ExportedAt not set")
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id, err := s.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: "hash",
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := s.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id || u.Role != model.UserRoleAdmin {
		t.Errorf("user = %+v", u)
	}

	missing, err := s.GetUserByUsername("nobody")
	if err != nil {
		t.Fatalf("GetUserByUsername(missing): %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}

	if err := s.ToggleUserActive(id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, err = s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u.Active {
		t.Error("user still active after toggle")
	}
}

func TestAuthSessions(t *testing.T) {
	s := newTestStore(t)
	userID, err := s.CreateUser(model.User{
		Username: "admin", PasswordHash: "hash", Role: model.UserRoleAdmin, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	token, err := s.CreateAuthSession(userID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(token))
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != userID {
		t.Errorf("session = %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Error("session still present after delete")
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	userID, err := s.CreateUser(model.User{
		Username: "admin", PasswordHash: "hash", Role: model.UserRoleAdmin, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	stale, err := s.CreateAuthSession(userID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if _, err := s.db.Exec(
		`UPDATE auth_sessions SET expires_at = ? WHERE id = ?`,
		time.Now().Add(-time.Hour), stale,
	); err != nil {
		t.Fatalf("backdate session: %v", err)
	}
	live, err := s.CreateAuthSession(userID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	n, err := s.CleanupExpiredSessions()
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("removed %d sessions, want 1", n)
	}
	sess, err := s.GetAuthSession(live)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil {
		t.Error("live session removed by cleanup")
	}
}
