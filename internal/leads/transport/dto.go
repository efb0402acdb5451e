// Package transport holds the request and response shapes of the leads HTTP API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

type ProcessMessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type TemperatureTransitionResponse struct {
	ID          uuid.UUID `json:"id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ElapsedDays int       `json:"elapsedDays"`
	Trigger     string    `json:"trigger"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type TemperatureTransitionsResponse struct {
	Items []TemperatureTransitionResponse `json:"items"`
}
