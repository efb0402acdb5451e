package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"leadflow_backend/internal/inference"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

var (
	tenantID = uuid.MustParse("6f1c2a8e-0000-4000-8000-000000000001")
	baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

type matchingConfig struct{}

func (matchingConfig) GetRerankTimeout() time.Duration { return time.Second }
func (matchingConfig) GetMatchingCandidateLimit() int  { return 200 }

type fakeGateway struct {
	answer string
	err    error
	calls  int
}

func (f *fakeGateway) InferStructured(_ context.Context, _ string, _ inference.Options) (inference.Structured, error) {
	f.calls++
	if f.err != nil {
		return inference.Structured{}, f.err
	}
	if !strings.HasPrefix(f.answer, "{") {
		return inference.Structured{RawText: f.answer}, nil
	}
	return inference.Structured{JSON: []byte(f.answer), RawText: f.answer}, nil
}

type fakeSigner struct{}

func (fakeSigner) PresignMedia(_ context.Context, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = "https://media.test/" + k
	}
	return out
}

func candidate(n int, category string, price float64, ageDays int) Candidate {
	return Candidate{
		ID:        uuid.MustParse(fmt.Sprintf("00000000-0000-4000-8000-%012d", n)),
		TenantID:  tenantID,
		Title:     fmt.Sprintf("Listing %d", n),
		Category:  category,
		Price:     price,
		Location:  domain.Location{State: "UT", City: "Utrecht"},
		CreatedAt: baseTime.Add(-time.Duration(ageDays) * 24 * time.Hour),
	}
}

func profile() domain.Preferences {
	return domain.Preferences{
		Category:  ptr("apartment"),
		BudgetMin: ptr(800_000.0),
		BudgetMax: ptr(1_000_000.0),
		Location:  domain.Location{State: "UT"},
	}
}

func inventory() []Candidate {
	return []Candidate{
		candidate(1, "apartment", 900_000, 10),   // 25+25+10 = 60
		candidate(2, "house", 900_000, 5),        // 25+10 = 35
		candidate(3, "apartment", 1_050_000, 3),  // 25+15+10 = 50
		candidate(4, "apartment", 900_000, 1),    // 60, newer than 1
		candidate(5, "studio", 2_000_000, 2),     // 10
		candidate(6, "apartment", 950_000, 20),   // 60, oldest
		candidate(7, "house", 5_000_000, 30),     // 10
	}
}

func newEngine(gw *fakeGateway) *Engine {
	return NewEngine(gw, matchingConfig{}, logger.Nop())
}

func ids(matches []MatchResult) []int {
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		var n int
		fmt.Sscanf(m.Candidate.ID.String()[24:], "%d", &n)
		out = append(out, n)
	}
	return out
}

func TestFindMatchesFallbackEqualsLocalRanking(t *testing.T) {
	gw := &fakeGateway{err: errors.New("upstream down")}

	res, err := newEngine(gw).FindMatches(context.Background(), tenantID, profile(), inventory(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FallbackUsed || res.TotalCandidates != 7 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got := ids(res.Matches)
	want := []int{4, 1, 6, 3}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected local ranking %v, got %v", want, got)
	}
	for _, m := range res.Matches {
		if m.MatchScore != m.LocalScore || len(m.Reasons) == 0 || len(m.Reasons) > 3 || m.Highlight == "" {
			t.Fatalf("fallback match not templated: %+v", m)
		}
	}
	if res.Matches[0].MatchScore != 60 {
		t.Fatalf("expected local score 60, got %d", res.Matches[0].MatchScore)
	}
}

func TestFindMatchesFallbackIsDeterministic(t *testing.T) {
	first, _ := newEngine(&fakeGateway{answer: "not json"}).FindMatches(context.Background(), tenantID, profile(), inventory(), 5)
	reversed := inventory()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	second, _ := newEngine(&fakeGateway{answer: "not json"}).FindMatches(context.Background(), tenantID, profile(), reversed, 5)

	if fmt.Sprint(ids(first.Matches)) != fmt.Sprint(ids(second.Matches)) {
		t.Fatalf("ranking depends on input order: %v vs %v", ids(first.Matches), ids(second.Matches))
	}
	if !first.FallbackUsed {
		t.Fatal("malformed output must fall back")
	}
}

func TestFindMatchesDropsUnknownAndDuplicateIDs(t *testing.T) {
	foreign := uuid.New()
	answer := fmt.Sprintf(`{"matches":[
		{"id":"%s","score":99,"reasons":["x"],"highlight":"not in pool"},
		{"id":"%s","score":140,"reasons":["great fit","a","b","c"],"highlight":""},
		{"id":"%s","score":10,"reasons":[],"highlight":"duplicate"},
		{"id":"not-a-uuid","score":90},
		{"id":"%s","score":-5,"reasons":["cheap"],"highlight":"Nice view"}
	]}`, foreign, inventory()[2].ID, inventory()[2].ID, inventory()[0].ID)
	gw := &fakeGateway{answer: answer}

	res, err := newEngine(gw).FindMatches(context.Background(), tenantID, profile(), inventory(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FallbackUsed {
		t.Fatal("valid items present, fallback not expected")
	}

	pool := map[uuid.UUID]bool{}
	for _, c := range inventory() {
		pool[c.ID] = true
	}
	for _, m := range res.Matches {
		if !pool[m.Candidate.ID] {
			t.Fatalf("match references id outside pool: %s", m.Candidate.ID)
		}
	}
	if len(res.Matches) != 2 {
		t.Fatalf("expected 2 validated matches, got %d", len(res.Matches))
	}

	top := res.Matches[0]
	if top.Candidate.ID != inventory()[2].ID || top.MatchScore != 100 || len(top.Reasons) != 3 {
		t.Fatalf("unexpected top match: %+v", top)
	}
	if top.Highlight == "" {
		t.Fatal("missing highlight must be defaulted")
	}
	if res.Matches[1].MatchScore != 0 || res.Matches[1].Highlight != "Nice view" {
		t.Fatalf("unexpected second match: %+v", res.Matches[1])
	}
}

func TestFindMatchesEmptyValidSetFallsBack(t *testing.T) {
	gw := &fakeGateway{answer: fmt.Sprintf(`{"matches":[{"id":"%s","score":80}]}`, uuid.New())}

	res, _ := newEngine(gw).FindMatches(context.Background(), tenantID, profile(), inventory(), 3)
	if !res.FallbackUsed || len(res.Matches) != 3 {
		t.Fatalf("expected fallback with 3 matches, got %+v", res)
	}
}

func TestFindMatchesEmptyPoolSkipsModel(t *testing.T) {
	gw := &fakeGateway{}
	other := candidate(9, "apartment", 900_000, 1)
	other.TenantID = uuid.New()

	res, err := newEngine(gw).FindMatches(context.Background(), tenantID, profile(), []Candidate{other}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw.calls != 0 {
		t.Fatal("model must not be called for an empty pool")
	}
	if res.Summary != "no matches yet" || len(res.Matches) != 0 || res.Matches == nil {
		t.Fatalf("unexpected empty result: %+v", res)
	}
}

func TestFindMatchesModelOrderAndTruncation(t *testing.T) {
	inv := inventory()
	answer := fmt.Sprintf(`{"matches":[
		{"id":"%s","score":70,"reasons":["r"],"highlight":"h"},
		{"id":"%s","score":70,"reasons":["r"],"highlight":"h"},
		{"id":"%s","score":95,"reasons":["r"],"highlight":"h"}
	]}`, inv[2].ID, inv[0].ID, inv[3].ID)

	res, _ := newEngine(&fakeGateway{answer: answer}).FindMatches(context.Background(), tenantID, profile(), inv, 2)
	got := ids(res.Matches)
	// 4 (95) first; tie at 70 broken by local score: 1 (60) before 3 (50).
	if fmt.Sprint(got) != fmt.Sprint([]int{4, 1}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestFindMatchesAttachesMedia(t *testing.T) {
	inv := inventory()
	inv[3].MediaKeys = []string{"a.jpg"}

	res, _ := newEngine(&fakeGateway{err: errors.New("down")}).WithMediaSigner(fakeSigner{}).
		FindMatches(context.Background(), tenantID, profile(), inv, 1)
	if len(res.Matches) != 1 || len(res.Matches[0].MediaURLs) != 1 || res.Matches[0].MediaURLs[0] != "https://media.test/a.jpg" {
		t.Fatalf("media not presigned: %+v", res.Matches)
	}
}

func TestScenarioBudgetWithinRangeAwardsFullPricePoints(t *testing.T) {
	score, codes := LocalScore(domain.Preferences{BudgetMin: ptr(800_000.0), BudgetMax: ptr(1_000_000.0)}, Candidate{Price: 900_000})
	if score != 25 || codes[0] != ReasonPriceInRange {
		t.Fatalf("expected +25 price_in_range, got %d %v", score, codes)
	}
}
