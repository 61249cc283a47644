package domain

import "time"

// ProgressionDecision is an audit record of one suggestion shown to the
// user: what the engine decided, how confident the adaptive state was,
// and whether the user followed the prescription or overrode it. The
// engine-health read-model aggregates these.
type ProgressionDecision struct {
	ID           string             `bson:"_id" json:"id"`
	ExerciseID   string             `bson:"exerciseId" json:"exerciseId"`
	DecisionCode ProgressionOutcome `bson:"decisionCode" json:"decisionCode"`
	Confidence   float64            `bson:"confidence" json:"confidence"`
	Followed     bool               `bson:"followed" json:"followed"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
