// Package conversation renders the bounded textual context a reply prompt is built from.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/scoring"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/clock"
	"leadflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	MaxHistoryMessages = 20
	maxLineLength      = 500
	noHistoryMarker    = "(no prior messages)"
)

// Store is the read side the assembler needs.
type Store interface {
	GetLead(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error)
	ListRecentMessages(ctx context.Context, tenantID, leadID uuid.UUID, limit int) ([]domain.Message, error)
}

// Context is the assembled conversation state of one lead.
type Context struct {
	LeadSummary            string
	Preferences            string
	Urgency                domain.Urgency
	LastInteractionSummary string
	History                []string
	Analysis               *domain.AnalysisResult
}

type Assembler struct {
	store Store
	clock clock.Clock
}

func NewAssembler(store Store, clk clock.Clock) *Assembler {
	return &Assembler{store: store, clock: clk}
}

// BuildContext loads the lead and its latest messages for the tenant.
func (a *Assembler) BuildContext(ctx context.Context, tenantID, leadID uuid.UUID) (Context, error) {
	lead, err := a.store.GetLead(ctx, tenantID, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Context{}, apperr.NotFound("lead not found")
		}
		return Context{}, err
	}

	messages, err := a.store.ListRecentMessages(ctx, tenantID, leadID, MaxHistoryMessages)
	if err != nil {
		return Context{}, err
	}
	return a.BuildContextFrom(lead, messages), nil
}

// BuildContextFrom assembles a context from already loaded data. messages must
// be in chronological order; only the newest MaxHistoryMessages are kept.
func (a *Assembler) BuildContextFrom(lead domain.Lead, messages []domain.Message) Context {
	if len(messages) > MaxHistoryMessages {
		messages = messages[len(messages)-MaxHistoryMessages:]
	}

	urgency := scoring.UrgencyFromScore(lead.Score)
	if lead.Urgency != nil {
		urgency = *lead.Urgency
	}

	preferences := describePreferences(lead.Preferences)
	if signals := ScanSignals(messages); !signals.Empty() {
		preferences += "\nSignals: " + signals.String()
	}

	history := make([]string, 0, len(messages))
	for _, msg := range messages {
		history = append(history, historyLine(msg))
	}

	return Context{
		LeadSummary:            describeLead(lead),
		Preferences:            preferences,
		Urgency:                urgency,
		LastInteractionSummary: SinceLastContact(lead.LastContactAt, a.clock.Now()),
		History:                history,
	}
}

// WithAnalysis attaches a fresh analysis to be rendered after the history.
func (c Context) WithAnalysis(analysis domain.AnalysisResult) Context {
	c.Analysis = &analysis
	return c
}

// Render produces the text block embedded in prompts.
func (c Context) Render() string {
	var b strings.Builder
	b.WriteString("Lead: " + c.LeadSummary + "\n")
	b.WriteString("Preferences: " + c.Preferences + "\n")
	b.WriteString("Urgency: " + string(c.Urgency) + "\n")
	b.WriteString("Last interaction: " + c.LastInteractionSummary + "\n")
	b.WriteString("Conversation history:\n")
	if len(c.History) == 0 {
		b.WriteString(noHistoryMarker + "\n")
	}
	for _, line := range c.History {
		b.WriteString(line + "\n")
	}
	if c.Analysis != nil {
		fmt.Fprintf(&b, "Latest message analysis: urgency=%s intent=%s sentiment=%s nextAction=%s\n",
			c.Analysis.Urgency, c.Analysis.Intent, c.Analysis.Sentiment, c.Analysis.NextAction)
	}
	return b.String()
}

// SinceLastContact describes how long ago the lead was last contacted.
func SinceLastContact(lastContact *time.Time, now time.Time) string {
	if lastContact == nil {
		return "no previous contact"
	}
	elapsed := now.Sub(*lastContact)
	switch {
	case elapsed < time.Hour:
		return "minutes ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed/time.Hour), "hour") + " ago"
	default:
		return plural(int(elapsed/(24*time.Hour)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func historyLine(msg domain.Message) string {
	author := "Agent"
	if msg.FromLead {
		author = "Lead"
	}
	content := sanitize.ForPrompt(msg.Content, maxLineLength)
	content = strings.ReplaceAll(content, "\n", " ")
	return fmt.Sprintf("[%s] %s: %s", msg.CreatedAt.UTC().Format("2006-01-02 15:04"), author, content)
}

func describeLead(lead domain.Lead) string {
	name := sanitize.ForPrompt(lead.Name, 80)
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("%s via %s, score %d/100, temperature %s", name, lead.Channel, lead.Score, lead.Temperature)
}

func describePreferences(p domain.Preferences) string {
	parts := make([]string, 0, 8)
	if p.Category != nil && *p.Category != "" {
		parts = append(parts, "category="+*p.Category)
	}
	if loc := describeLocation(p.Location); loc != "" {
		parts = append(parts, "location="+loc)
	}
	if budget := describeRange(p.BudgetMin, p.BudgetMax); budget != "" {
		parts = append(parts, "budget="+budget)
	}
	if bedrooms := describeIntRange(p.BedroomsMin, p.BedroomsMax); bedrooms != "" {
		parts = append(parts, "bedrooms="+bedrooms)
	}
	if p.ParkingMin != nil {
		parts = append(parts, fmt.Sprintf("parking>=%d", *p.ParkingMin))
	}
	if p.AreaMin != nil {
		parts = append(parts, fmt.Sprintf("area>=%.0fm2", *p.AreaMin))
	}
	if p.PetsRequired {
		parts = append(parts, "pets required")
	}
	if len(parts) == 0 {
		return "none stated"
	}
	return sanitize.ForPrompt(strings.Join(parts, "; "), maxLineLength)
}

func describeLocation(l domain.Location) string {
	parts := make([]string, 0, 3)
	for _, v := range []string{l.District, l.City, l.State} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func describeRange(lo, hi *float64) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("%.0f-%.0f", *lo, *hi)
	case hi != nil:
		return fmt.Sprintf("up to %.0f", *hi)
	case lo != nil:
		return fmt.Sprintf("from %.0f", *lo)
	}
	return ""
}

func describeIntRange(lo, hi *int) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("%d-%d", *lo, *hi)
	case hi != nil:
		return fmt.Sprintf("up to %d", *hi)
	case lo != nil:
		return fmt.Sprintf("%d+", *lo)
	}
	return ""
}
