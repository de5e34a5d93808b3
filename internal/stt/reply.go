package stt

import (
	"encoding/json"
	"math"

	"github.com/spf13/cast"
)

// Reply is the parsed body of a successful backend response.
// Every field is optional on the wire.
type Reply struct {
	Text           string         `json:"text"`
	Language       string         `json:"language"`
	Confidence     OptionalFloat  `json:"confidence_score"`
	Duration       OptionalFloat  `json:"duration"`
	ModelUsed      string         `json:"model_used"`
	ProcessingTime OptionalFloat  `json:"processing_time"`
	Segments       []ReplySegment `json:"segments"`
}

// ReplySegment accepts both start_time/end_time and the legacy start/end names
type ReplySegment struct {
	StartTime  OptionalFloat `json:"start_time"`
	EndTime    OptionalFloat `json:"end_time"`
	Start      OptionalFloat `json:"start"`
	End        OptionalFloat `json:"end"`
	Text       string        `json:"text"`
	Confidence OptionalFloat `json:"confidence"`
}

// Bounds returns the segment offsets in seconds. start_time/end_time win over start/end
// when both are present; a missing bound is 0.
func (s ReplySegment) Bounds() (start, end float64) {
	return s.StartTime.Or(s.Start).Value, s.EndTime.Or(s.End).Value
}

// OptionalFloat is a number that may be absent. Values of the wrong JSON type
// and non-finite values ("NaN", "Inf") are treated as absent instead of
// failing the whole reply.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Float returns a present OptionalFloat
func Float(v float64) OptionalFloat {
	return OptionalFloat{Value: v, Valid: true}
}

func (f *OptionalFloat) UnmarshalJSON(data []byte) error {
	*f = OptionalFloat{}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil
	}
	if _, isBool := raw.(bool); isBool {
		return nil
	}

	v, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*f = Float(v)
	return nil
}

func (f OptionalFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Ptr returns nil when absent
func (f OptionalFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// Or returns f when present, otherwise fallback
func (f OptionalFloat) Or(fallback OptionalFloat) OptionalFloat {
	if f.Valid {
		return f
	}
	return fallback
}
