package conversation

import (
	"regexp"
	"sort"
	"strings"

	"leadflow_backend/internal/leads/domain"
)

type signalGroup struct {
	name    string
	pattern *regexp.Regexp
}

func wordPattern(terms ...string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
}

// Keyword lexicon scanned in lead-authored messages. Order is the render order.
var signalGroups = []signalGroup{
	{"property", wordPattern("apartment", "house", "condo", "studio", "villa", "loft", "townhouse", "penthouse", "duplex", "land")},
	{"urgency", wordPattern("urgent", "asap", "immediately", "this week", "right away", "soon")},
	{"financing", wordPattern("mortgage", "financing", "loan", "pre-approved", "cash", "down payment")},
	{"amenities", wordPattern("pool", "garden", "balcony", "gym", "garage", "elevator", "terrace", "furnished")},
	{"pets", wordPattern("pet", "pets", "dog", "dogs", "cat", "cats")},
}

// Signals are the lexicon hits per group, deduplicated and sorted.
type Signals map[string][]string

// ScanSignals looks for lexicon terms in messages written by the lead.
func ScanSignals(messages []domain.Message) Signals {
	found := make(map[string]map[string]struct{})
	for _, msg := range messages {
		if !msg.FromLead {
			continue
		}
		text := strings.ToLower(msg.Content)
		for _, group := range signalGroups {
			for _, hit := range group.pattern.FindAllString(text, -1) {
				if found[group.name] == nil {
					found[group.name] = make(map[string]struct{})
				}
				found[group.name][hit] = struct{}{}
			}
		}
	}

	out := make(Signals, len(found))
	for name, hits := range found {
		terms := make([]string, 0, len(hits))
		for term := range hits {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		out[name] = terms
	}
	return out
}

func (s Signals) Empty() bool { return len(s) == 0 }

func (s Signals) String() string {
	parts := make([]string, 0, len(s))
	for _, group := range signalGroups {
		if terms, ok := s[group.name]; ok {
			parts = append(parts, group.name+"="+strings.Join(terms, ","))
		}
	}
	return strings.Join(parts, "; ")
}
