// Package matching ranks a tenant's inventory against a lead profile.
// A deterministic rubric always runs; the generative-text service may
// re-rank the best local candidates, and any failure there falls back to
// the rubric ordering.
package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"leadflow_backend/internal/inference"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/metrics"
	"leadflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	DefaultMaxResults    = 5
	maxResultsLimit      = 20
	maxPoolSize          = 10
	maxReasons           = 3
	maxReasonLength      = 160
	maxHighlightLength   = 240
	defaultRerankTimeout = 20 * time.Second
	rerankMaxTokens      = 1200
	noMatchesSummary     = "no matches yet"
)

// Inference is the subset of the gateway the engine calls.
type Inference interface {
	InferStructured(ctx context.Context, prompt string, opts inference.Options) (inference.Structured, error)
}

// MediaSigner turns stored media keys into downloadable URLs.
type MediaSigner interface {
	PresignMedia(ctx context.Context, keys []string) []string
}

type Engine struct {
	gateway Inference
	media   MediaSigner
	log     *logger.Logger
	timeout time.Duration
}

func NewEngine(gateway Inference, cfg config.MatchingConfig, log *logger.Logger) *Engine {
	timeout := cfg.GetRerankTimeout()
	if timeout <= 0 {
		timeout = defaultRerankTimeout
	}
	return &Engine{gateway: gateway, log: log, timeout: timeout}
}

// WithMediaSigner attaches presigned media URLs to returned matches.
func (e *Engine) WithMediaSigner(media MediaSigner) *Engine {
	e.media = media
	return e
}

type scored struct {
	candidate Candidate
	score     int
	codes     []ReasonCode
}

// FindMatches returns at most maxResults matches (default 5). Model failures
// never surface as errors; they set FallbackUsed.
func (e *Engine) FindMatches(ctx context.Context, tenantID uuid.UUID, profile domain.Preferences, candidates []Candidate, maxResults int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > maxResultsLimit {
		maxResults = maxResultsLimit
	}

	ranked := rankLocal(tenantID, profile, candidates)
	result := Result{TotalCandidates: len(ranked), Matches: []MatchResult{}}

	pool := ranked[:min(maxResults*2, maxPoolSize, len(ranked))]
	if len(pool) == 0 {
		metrics.MatchingRequests.WithLabelValues("empty").Inc()
		result.Summary = noMatchesSummary
		return result, nil
	}

	matches, err := e.rerank(ctx, profile, pool)
	if err != nil {
		e.log.Warn("matching re-rank failed, using local ranking", "tenant_id", tenantID.String(), "error", err.Error())
	}
	if err != nil || len(matches) == 0 {
		metrics.MatchingRequests.WithLabelValues("fallback").Inc()
		result.FallbackUsed = true
		matches = fallbackMatches(ranked)
	} else {
		metrics.MatchingRequests.WithLabelValues("model").Inc()
	}

	sortMatches(matches)
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	for i := range matches {
		if e.media != nil && len(matches[i].Candidate.MediaKeys) > 0 {
			matches[i].MediaURLs = e.media.PresignMedia(ctx, matches[i].Candidate.MediaKeys)
		}
	}

	result.Matches = matches
	result.Summary = summarize(len(matches), result.TotalCandidates, result.FallbackUsed)
	return result, nil
}

// rankLocal scores every candidate of the tenant and orders them by local
// score, then recency (newest first), then id.
func rankLocal(tenantID uuid.UUID, profile domain.Preferences, candidates []Candidate) []scored {
	out := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.TenantID != tenantID {
			continue
		}
		score, codes := LocalScore(profile, c)
		out = append(out, scored{candidate: c, score: score, codes: codes})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return newerFirst(out[i].candidate, out[j].candidate)
	})
	return out
}

func newerFirst(a, b Candidate) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func sortMatches(matches []MatchResult) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].MatchScore != matches[j].MatchScore {
			return matches[i].MatchScore > matches[j].MatchScore
		}
		if matches[i].LocalScore != matches[j].LocalScore {
			return matches[i].LocalScore > matches[j].LocalScore
		}
		return newerFirst(matches[i].Candidate, matches[j].Candidate)
	})
}

func fallbackMatches(ranked []scored) []MatchResult {
	out := make([]MatchResult, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, MatchResult{
			Candidate:  s.candidate,
			MatchScore: s.score,
			LocalScore: s.score,
			Reasons:    templatedReasons(s.codes, s.candidate),
			Highlight:  genericHighlight(s.candidate),
		})
	}
	return out
}

func (e *Engine) rerank(ctx context.Context, profile domain.Preferences, pool []scored) ([]MatchResult, error) {
	answer, err := e.gateway.InferStructured(ctx, buildRerankPrompt(profile, pool), inference.Options{
		Context:   rerankSystemPrompt,
		MaxTokens: rerankMaxTokens,
		Purpose:   "matching_rerank",
		Timeout:   e.timeout,
	})
	if err != nil {
		return nil, err
	}

	var resp rerankResponse
	if err := answer.Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode re-rank answer: %w", err)
	}
	return validateRerank(resp, pool), nil
}

// validateRerank keeps only items whose id is in the pool, first occurrence wins.
func validateRerank(resp rerankResponse, pool []scored) []MatchResult {
	byID := make(map[uuid.UUID]scored, len(pool))
	for _, s := range pool {
		byID[s.candidate.ID] = s
	}

	seen := make(map[uuid.UUID]bool, len(pool))
	out := make([]MatchResult, 0, len(resp.Matches))
	for _, item := range resp.Matches {
		id, err := uuid.Parse(strings.TrimSpace(item.ID))
		if err != nil {
			continue
		}
		s, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		reasons := cleanReasons(item.Reasons)
		if len(reasons) == 0 {
			reasons = templatedReasons(s.codes, s.candidate)
		}
		highlight := sanitize.ForPrompt(strings.TrimSpace(item.Highlight), maxHighlightLength)
		if highlight == "" {
			highlight = genericHighlight(s.candidate)
		}

		out = append(out, MatchResult{
			Candidate:  s.candidate,
			MatchScore: clamp(int(math.Round(item.Score)), 0, 100),
			LocalScore: s.score,
			Reasons:    reasons,
			Highlight:  highlight,
		})
	}
	return out
}

func cleanReasons(reasons []string) []string {
	out := make([]string, 0, maxReasons)
	for _, r := range reasons {
		r = sanitize.ForPrompt(strings.TrimSpace(r), maxReasonLength)
		if r == "" {
			continue
		}
		out = append(out, r)
		if len(out) == maxReasons {
			break
		}
	}
	return out
}

func genericHighlight(c Candidate) string {
	if len(c.Highlights) > 0 && strings.TrimSpace(c.Highlights[0]) != "" {
		return strings.TrimSpace(c.Highlights[0])
	}
	if c.Location.City != "" {
		return fmt.Sprintf("%s in %s worth a look", c.Title, c.Location.City)
	}
	return c.Title + " worth a look"
}

func summarize(shown, total int, fallback bool) string {
	if fallback {
		return fmt.Sprintf("%d of %d listings ranked by listing criteria", shown, total)
	}
	return fmt.Sprintf("%d of %d listings ranked for this lead", shown, total)
}
