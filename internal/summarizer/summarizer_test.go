package summarizer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func validSummary() *TrendSummary {
	return &TrendSummary{
		OverallAssessment:  "the team holds steady",
		KeyStrengths:       []string{"discovery depth"},
		CommonChallenges:   []string{"late-stage stalls"},
		CoachingPriorities: []CoachingPriority{{Area: "closing", Recommendation: "trial closes earlier", Urgency: "high"}},
		TrendDirection:     "steady",
	}
}

func TestValidateSummary(t *testing.T) {
	assert.Empty(t, ValidateSummary(validSummary()))

	assert.Equal(t, []string{"summary is empty"}, ValidateSummary(nil))

	s := validSummary()
	s.OverallAssessment = ""
	s.KeyStrengths = nil
	s.TrendDirection = "sideways"
	problems := ValidateSummary(s)
	assert.Contains(t, problems, "missing overall_assessment")
	assert.Contains(t, problems, "missing key_strengths")
	assert.Contains(t, problems, `unexpected trend_direction "sideways"`)

	s = validSummary()
	s.TrendDirection = ""
	s.CoachingPriorities = nil
	problems = ValidateSummary(s)
	assert.Contains(t, problems, "missing trend_direction")
	assert.Contains(t, problems, "missing coaching_priorities")
}

func TestSignBody(t *testing.T) {
	// fixed vector so the remote side's verification can be cross-checked
	sig := SignBody([]byte("secret"), []byte(`{"scope":"rep"}`))
	assert.Equal(t, "0450d390e85063fa0285c0f691d98bebcdd32789b304d9f114dc14c5b088b77a", sig)

	// signature covers the exact bytes
	assert.NotEqual(t, sig, SignBody([]byte("secret"), []byte(`{"scope":"rep"} `)))
	assert.NotEqual(t, sig, SignBody([]byte("other"), []byte(`{"scope":"rep"}`)))
}

func TestHTTPSummarizerSignsRequests(t *testing.T) {
	var gotAuth, gotSig, gotTS string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSig = r.Header.Get("X-Signature")
		gotTS = r.Header.Get("X-Timestamp")
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(validSummary())
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(srv.URL, "tok-123", "hmac-secret", testLogger())
	out, err := s.Summarize(context.Background(), Request{Scope: "team", Tier: "sampled"})
	require.NoError(t, err)
	assert.Equal(t, "the team holds steady", out.OverallAssessment)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotTS)
	assert.Equal(t, SignBody([]byte("hmac-secret"), gotBody), gotSig, "signature must cover the exact wire bytes")

	var decoded Request
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "team", decoded.Scope)
	assert.Equal(t, "sampled", decoded.Tier)
}

func TestHTTPSummarizerErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model overloaded"})
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(srv.URL, "tok", "sec", testLogger())
	_, err := s.Summarize(context.Background(), Request{Scope: "rep"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestHTTPSummarizerNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(srv.URL, "tok", "sec", testLogger())
	_, err := s.Summarize(context.Background(), Request{Scope: "rep"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPSummarizerSchemaProblemsAreNonFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// off-schema: no strengths, unknown direction
		_ = json.NewEncoder(w).Encode(map[string]any{
			"overall_assessment": "thin data",
			"trend_direction":    "unknown",
		})
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(srv.URL, "tok", "sec", testLogger())
	out, err := s.Summarize(context.Background(), Request{Scope: "rep"})
	require.NoError(t, err, "schema drift is logged, not fatal")
	assert.Equal(t, "thin data", out.OverallAssessment)
}

func TestHTTPSummarizerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewHTTPSummarizer("http://127.0.0.1:0", "tok", "sec", testLogger())
	_, err := s.Summarize(ctx, Request{Scope: "rep"})
	assert.Error(t, err)
}
