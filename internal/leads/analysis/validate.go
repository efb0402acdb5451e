package analysis

import (
	"strings"

	"leadflow_backend/internal/inference"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/scoring"
	"leadflow_backend/platform/sanitize"
	"leadflow_backend/platform/validator"
)

const (
	maxTags      = 10
	maxTagLength = 40
)

// normalizeAnalysis turns a structured model answer into a trusted result.
// Undecodable answers yield DefaultAnalysis; individual invalid fields are
// replaced by their default. The returned slice names every defaulted field.
func normalizeAnalysis(val *validator.Validator, answer inference.Structured) (domain.AnalysisResult, []string) {
	var result domain.AnalysisResult
	if err := answer.Decode(&result); err != nil {
		return domain.DefaultAnalysis(), []string{"*"}
	}

	result.Urgency = domain.Urgency(normalizeEnum(string(result.Urgency)))
	result.Intent = domain.Intent(normalizeEnum(string(result.Intent)))
	result.Sentiment = domain.Sentiment(normalizeEnum(string(result.Sentiment)))
	result.NextAction = domain.NextAction(normalizeEnum(string(result.NextAction)))
	result.ScoreImpact = scoring.ClampScoreImpact(result.ScoreImpact)
	result.Preferences.Category = cleanOptional(result.Preferences.Category)
	result.Preferences.Location = cleanOptional(result.Preferences.Location)
	result.Tags = cleanTags(result.Tags)

	defaults := domain.DefaultAnalysis()
	invalid := validator.InvalidFields(val.Struct(result))
	for _, field := range invalid {
		switch field {
		case "Urgency":
			result.Urgency = defaults.Urgency
		case "Intent":
			result.Intent = defaults.Intent
		case "Sentiment":
			result.Sentiment = defaults.Sentiment
		case "NextAction":
			result.NextAction = defaults.NextAction
		case "ScoreImpact":
			result.ScoreImpact = defaults.ScoreImpact
		case "Bedrooms":
			result.Preferences.Bedrooms = nil
		case "BudgetMax":
			result.Preferences.BudgetMax = nil
		}
	}
	return result, invalid
}

func normalizeEnum(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

func cleanOptional(v *string) *string {
	if v == nil {
		return nil
	}
	s := sanitize.ForPrompt(strings.TrimSpace(*v), 120)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = sanitize.ForPrompt(strings.TrimSpace(tag), maxTagLength)
		if tag == "" {
			continue
		}
		out = append(out, tag)
		if len(out) == maxTags {
			break
		}
	}
	return out
}
