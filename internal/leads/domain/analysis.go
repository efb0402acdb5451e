package domain

type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

type Intent string

const (
	IntentInfo      Intent = "INFO"
	IntentSchedule  Intent = "SCHEDULE"
	IntentNegotiate Intent = "NEGOTIATE"
	IntentComplain  Intent = "COMPLAIN"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentNegative Sentiment = "NEGATIVE"
)

type NextAction string

const (
	NextActionRespond  NextAction = "RESPOND"
	NextActionSchedule NextAction = "SCHEDULE"
	NextActionEscalate NextAction = "ESCALATE"
	NextActionClose    NextAction = "CLOSE"
)

const (
	MinScoreImpact = -10
	MaxScoreImpact = 10
)

// ExtractedPreferences are the preference hints found in a single message.
type ExtractedPreferences struct {
	Category  *string  `json:"category" jsonschema:"description=Property type mentioned, null when absent"`
	Location  *string  `json:"location" jsonschema:"description=City or area mentioned, null when absent"`
	Bedrooms  *int     `json:"bedrooms" validate:"omitempty,min=0,max=50" jsonschema:"description=Bedroom count mentioned, null when absent"`
	BudgetMax *float64 `json:"budgetMax" validate:"omitempty,min=0" jsonschema:"description=Maximum budget mentioned, null when absent"`
}

// AnalysisResult is the validated classification of one inbound message.
type AnalysisResult struct {
	Urgency     Urgency              `json:"urgency" validate:"oneof=LOW MEDIUM HIGH" jsonschema:"enum=LOW,enum=MEDIUM,enum=HIGH"`
	Intent      Intent               `json:"intent" validate:"oneof=INFO SCHEDULE NEGOTIATE COMPLAIN" jsonschema:"enum=INFO,enum=SCHEDULE,enum=NEGOTIATE,enum=COMPLAIN"`
	Sentiment   Sentiment            `json:"sentiment" validate:"oneof=POSITIVE NEUTRAL NEGATIVE" jsonschema:"enum=POSITIVE,enum=NEUTRAL,enum=NEGATIVE"`
	Preferences ExtractedPreferences `json:"preferences"`
	NextAction  NextAction           `json:"nextAction" validate:"oneof=RESPOND SCHEDULE ESCALATE CLOSE" jsonschema:"enum=RESPOND,enum=SCHEDULE,enum=ESCALATE,enum=CLOSE"`
	ScoreImpact int                  `json:"scoreImpact" validate:"min=-10,max=10" jsonschema:"minimum=-10,maximum=10"`
	Tags        []string             `json:"tags"`
}

// DefaultAnalysis is used whenever the model output cannot be trusted.
func DefaultAnalysis() AnalysisResult {
	return AnalysisResult{
		Urgency:     UrgencyMedium,
		Intent:      IntentInfo,
		Sentiment:   SentimentNeutral,
		NextAction:  NextActionRespond,
		ScoreImpact: 0,
		Tags:        []string{},
	}
}
