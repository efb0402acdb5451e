package scoring

import (
	"testing"

	"leadflow_backend/internal/leads/domain"
)

func TestApplyScoreImpactStaysInRange(t *testing.T) {
	impacts := []int{10, 10, 10, 10, 10, 10, -3, 10, 10, -10, -10, -10, -10, -10, -10, -10, -10, -10, -10, -10, 7}
	score := 50
	for i, impact := range impacts {
		score = ApplyScoreImpact(score, impact)
		if score < 0 || score > 100 {
			t.Fatalf("step %d: score %d out of range", i, score)
		}
	}
	if score != 7 {
		t.Fatalf("expected final score 7, got %d", score)
	}
}

func TestApplyScoreImpactClamps(t *testing.T) {
	cases := []struct {
		current, impact, want int
	}{
		{50, 5, 55},
		{95, 10, 100},
		{3, -10, 0},
		{0, 0, 0},
		{100, 0, 100},
	}
	for _, tc := range cases {
		if got := ApplyScoreImpact(tc.current, tc.impact); got != tc.want {
			t.Errorf("ApplyScoreImpact(%d, %d) = %d, want %d", tc.current, tc.impact, got, tc.want)
		}
	}
}

func TestClampScoreImpact(t *testing.T) {
	if ClampScoreImpact(25) != 10 || ClampScoreImpact(-40) != -10 || ClampScoreImpact(4) != 4 {
		t.Fatal("score impact not clamped to [-10, 10]")
	}
}

func TestUrgencyFromScore(t *testing.T) {
	cases := map[int]domain.Urgency{
		0:   domain.UrgencyLow,
		49:  domain.UrgencyLow,
		50:  domain.UrgencyMedium,
		79:  domain.UrgencyMedium,
		80:  domain.UrgencyHigh,
		100: domain.UrgencyHigh,
	}
	for score, want := range cases {
		if got := UrgencyFromScore(score); got != want {
			t.Errorf("UrgencyFromScore(%d) = %s, want %s", score, got, want)
		}
	}
}
