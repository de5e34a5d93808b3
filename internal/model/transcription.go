package model

import "time"

// Status is the terminal state of a transcription
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Unknown is reported when the backend omits language or model
const Unknown = "unknown"

// Segment represents a time-bounded slice of transcribed text (offsets in seconds)
type Segment struct {
	StartTime  float64  `json:"startTime"`
	EndTime    float64  `json:"endTime"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// TranscriptionResult is the public response of a completed transcription
type TranscriptionResult struct {
	TranscriptionText string    `json:"transcriptionText"`
	Language          string    `json:"language"`
	Confidence        *float64  `json:"confidence,omitempty"`
	Duration          *float64  `json:"duration,omitempty"`
	ModelUsed         string    `json:"modelUsed"`
	ProcessingTime    *float64  `json:"processingTime,omitempty"`
	Segments          []Segment `json:"segments,omitempty"`
	CompletedAt       time.Time `json:"completedAt"`
	Status            Status    `json:"status"`
}

// ErrorResponse is the body written for every failed request
type ErrorResponse struct {
	Success       bool      `json:"success"`
	Code          string    `json:"code"`
	Error         string    `json:"error"`
	CorrelationID string    `json:"correlationId"`
	Timestamp     time.Time `json:"timestamp"`
}
