package summarizer

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPSummarizer delegates summarization to an external analysis function.
// Requests carry a bearer credential and an HMAC-SHA256 signature over the
// exact body bytes; the timeout comes from the caller's context.
type HTTPSummarizer struct {
	url    string
	token  string
	secret []byte
	client *http.Client
	log    *logrus.Entry
}

func NewHTTPSummarizer(url, bearerToken, hmacSecret string, log *logrus.Entry) *HTTPSummarizer {
	return &HTTPSummarizer{
		url:    url,
		token:  bearerToken,
		secret: []byte(hmacSecret),
		client: &http.Client{},
		log:    log,
	}
}

// SignBody computes the hex HMAC-SHA256 signature the remote end verifies.
func SignBody(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *HTTPSummarizer) Summarize(ctx context.Context, req Request) (*TrendSummary, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal summarize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.token)
	httpReq.Header.Set("X-Signature", SignBody(s.secret, body))
	httpReq.Header.Set("X-Timestamp", strconv.FormatInt(time.Now().UTC().Unix(), 10))

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("summarization call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read summarization response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("summarization service returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var envelope struct {
		Error string `json:"error,omitempty"`
		TrendSummary
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode summarization response: %w", err)
	}
	if envelope.Error != "" {
		return nil, fmt.Errorf("summarization service error: %s", envelope.Error)
	}

	out := envelope.TrendSummary
	if problems := ValidateSummary(&out); len(problems) > 0 {
		s.log.WithField("problems", problems).Warn("trend summary failed schema check, using as-is")
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
