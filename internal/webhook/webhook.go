// Package webhook talks to the external automation endpoints: access token
// validation before a session starts and result submission after it ends.
// Submission failures are reported but never block the respondent; the
// result is already persisted locally by then.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/onevent/flowscore/internal/model"
)

// tokenPrefix is the shape every access token shares. The format check runs
// locally so obviously broken tokens never reach the validation endpoint.
const tokenPrefix = "fs_"

const defaultTimeout = 10 * time.Second

// Client calls the configured webhook endpoints.
type Client struct {
	submitURL   string
	validateURL string
	failOpen    bool
	http        *http.Client
}

// New creates a webhook client. Empty URLs disable the corresponding call:
// validation accepts every well-formed token and submission becomes a no-op.
// With failOpen set, an unreachable validation endpoint also accepts.
func New(submitURL, validateURL string, failOpen bool) *Client {
	return &Client{
		submitURL:   submitURL,
		validateURL: validateURL,
		failOpen:    failOpen,
		http:        &http.Client{Timeout: defaultTimeout},
	}
}

// ValidTokenFormat reports whether a token is well-formed: the shared
// prefix followed by at least one character.
func ValidTokenFormat(token string) bool {
	return strings.HasPrefix(token, tokenPrefix) && len(token) > len(tokenPrefix)
}

// ValidateToken checks an access token. Malformed tokens are rejected
// locally; well-formed ones are confirmed against the validation endpoint
// when one is configured.
func (c *Client) ValidateToken(ctx context.Context, token string) (bool, error) {
	if !ValidTokenFormat(token) {
		return false, nil
	}
	if c.validateURL == "" {
		return true, nil
	}

	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.validateURL, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if c.failOpen {
			slog.Warn("token validation unreachable, accepting token", "error", err)
			return true, nil
		}
		return false, fmt.Errorf("validate token: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode >= 500 && c.failOpen:
		slog.Warn("token validation failed upstream, accepting token", "status", resp.StatusCode)
		return true, nil
	default:
		return false, nil
	}
}

// submittedPriorities caps how many ranked priorities travel in the
// payload; the receiving automation only renders the top three.
const submittedPriorities = 3

// submission is the payload sent to the results endpoint.
type submission struct {
	ResultID int64                `json:"result_id"`
	Token    string               `json:"token"`
	Contact  model.Contact        `json:"contact"`
	Result   model.ResultBundle   `json:"result"`
	Answers  []model.Answer       `json:"answers"`
	Lang     string               `json:"lang"`
	Resend   bool                 `json:"resend,omitempty"`
	SentAt   time.Time            `json:"sent_at"`
}

// Submit posts a finished result to the submission endpoint. The caller
// treats errors as non-fatal; the respondent already has their result.
func (c *Client) Submit(ctx context.Context, resultID int64, token, lang string, contact model.Contact, bundle model.ResultBundle, answers []model.Answer) error {
	return c.post(ctx, submission{
		ResultID: resultID,
		Token:    token,
		Contact:  contact,
		Result:   bundle,
		Answers:  answers,
		Lang:     lang,
		SentAt:   time.Now(),
	})
}

// Resend posts a stored result again, flagged so the receiving automation
// only re-sends the results email instead of reprocessing the lead.
func (c *Client) Resend(ctx context.Context, r model.StoredResult, bundle model.ResultBundle, lang string) error {
	return c.post(ctx, submission{
		ResultID: r.ID,
		Token:    r.Token,
		Contact:  r.Contact,
		Result:   bundle,
		Answers:  r.Answers,
		Lang:     lang,
		Resend:   true,
		SentAt:   time.Now(),
	})
}

func (c *Client) post(ctx context.Context, sub submission) error {
	if len(sub.Result.Priorities) > submittedPriorities {
		sub.Result.Priorities = sub.Result.Priorities[:submittedPriorities]
	}
	if c.submitURL == "" {
		slog.Debug("no submission endpoint configured, skipping", "result_id", sub.ResultID)
		return nil
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.submitURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit result: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("submit result: endpoint returned %d", resp.StatusCode)
	}
	slog.Info("result submitted", "result_id", sub.ResultID, "resend", sub.Resend)
	return nil
}
