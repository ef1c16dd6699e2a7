package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onevent/flowscore/internal/model"
)

func TestValidTokenFormat(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"fs_abc123", true},
		{"fs_x", true},
		{"fs_", false},
		{"abc123", false},
		{"", false},
		{"FS_abc", false},
	}
	for _, tt := range tests {
		if got := ValidTokenFormat(tt.token); got != tt.want {
			t.Errorf("ValidTokenFormat(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestValidateToken(t *testing.T) {
	ctx := context.Background()

	t.Run("no endpoint accepts well-formed tokens", func(t *testing.T) {
		c := New("", "", false)
		ok, err := c.ValidateToken(ctx, "fs_abc")
		if err != nil || !ok {
			t.Errorf("ValidateToken = %v, %v; want true, nil", ok, err)
		}
		ok, err = c.ValidateToken(ctx, "bogus")
		if err != nil || ok {
			t.Errorf("ValidateToken(bogus) = %v, %v; want false, nil", ok, err)
		}
	})

	t.Run("endpoint decides", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if body["token"] == "fs_good" {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		c := New("", srv.URL, false)
		if ok, err := c.ValidateToken(ctx, "fs_good"); err != nil || !ok {
			t.Errorf("good token = %v, %v; want true, nil", ok, err)
		}
		if ok, err := c.ValidateToken(ctx, "fs_bad"); err != nil || ok {
			t.Errorf("rejected token = %v, %v; want false, nil", ok, err)
		}
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		// A server that is already closed.
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		open := New("", url, true)
		if ok, err := open.ValidateToken(ctx, "fs_abc"); err != nil || !ok {
			t.Errorf("fail-open = %v, %v; want true, nil", ok, err)
		}

		closed := New("", url, false)
		if ok, err := closed.ValidateToken(ctx, "fs_abc"); err == nil || ok {
			t.Errorf("fail-closed = %v, %v; want false with error", ok, err)
		}
	})

	t.Run("upstream error with fail-open", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		if ok, err := New("", srv.URL, true).ValidateToken(ctx, "fs_abc"); err != nil || !ok {
			t.Errorf("fail-open on 502 = %v, %v; want true, nil", ok, err)
		}
		if ok, err := New("", srv.URL, false).ValidateToken(ctx, "fs_abc"); err != nil || ok {
			t.Errorf("fail-closed on 502 = %v, %v; want false, nil", ok, err)
		}
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	contact := model.Contact{Company: "Onevent", Email: "office@onevent.ro"}
	bundle := model.ResultBundle{
		Scores:         model.Scores{model.DimTimeWaste: 70},
		Recommendation: model.Recommendation{Type: model.RecommendWebApp, Title: "t"},
		Summary:        "s",
	}

	t.Run("posts the full payload", func(t *testing.T) {
		var got submission
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("content type = %q", r.Header.Get("Content-Type"))
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}))
		defer srv.Close()

		c := New(srv.URL, "", false)
		err := c.Submit(ctx, 7, "fs_abc", "ro", contact, bundle, []model.Answer{
			{QuestionID: "q02", Value: model.NumberValue(4)},
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if got.ResultID != 7 || got.Token != "fs_abc" || got.Resend {
			t.Errorf("payload = %+v", got)
		}
		if got.Result.Recommendation.Type != model.RecommendWebApp {
			t.Errorf("recommendation = %+v", got.Result.Recommendation)
		}
	})

	t.Run("payload carries the top three priorities", func(t *testing.T) {
		var got submission
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}))
		defer srv.Close()

		ranked := bundle
		ranked.Priorities = []model.Priority{
			{ID: "documents"}, {ID: "tracking"}, {ID: "crm"},
			{ID: "reporting"}, {ID: "communication"},
		}
		c := New(srv.URL, "", false)
		if err := c.Submit(ctx, 7, "fs_abc", "ro", contact, ranked, nil); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if len(got.Result.Priorities) != 3 {
			t.Fatalf("submitted %d priorities, want 3", len(got.Result.Priorities))
		}
		if got.Result.Priorities[2].ID != "crm" {
			t.Errorf("priorities = %+v, want ranking order preserved", got.Result.Priorities)
		}
		if len(ranked.Priorities) != 5 {
			t.Errorf("caller bundle shrank to %d priorities", len(ranked.Priorities))
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := New(srv.URL, "", false)
		if err := c.Submit(ctx, 1, "fs_abc", "ro", contact, bundle, nil); err == nil {
			t.Error("Submit succeeded against a failing endpoint")
		}
	})

	t.Run("no endpoint is a no-op", func(t *testing.T) {
		c := New("", "", false)
		if err := c.Submit(ctx, 1, "fs_abc", "ro", contact, bundle, nil); err != nil {
			t.Errorf("Submit: %v", err)
		}
	})

	t.Run("resend sets the flag", func(t *testing.T) {
		var got submission
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}))
		defer srv.Close()

		c := New(srv.URL, "", false)
		stored := model.StoredResult{ID: 3, Token: "fs_abc", Contact: contact}
		if err := c.Resend(ctx, stored, bundle, "en"); err != nil {
			t.Fatalf("Resend: %v", err)
		}
		if !got.Resend || got.ResultID != 3 || got.Lang != "en" {
			t.Errorf("payload = %+v", got)
		}
	})
}
