// Package gateway validates uploaded audio, forwards it to the transcription
// backend in a single call, and normalizes the reply into a TranscriptionResult.
package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"voxgate/internal/logging"
	"voxgate/internal/metrics"
	"voxgate/internal/model"
	"voxgate/internal/stt"
)

const outcomeSuccess = "success"

// ErrEmptyTranscription is the cause attached when the backend returns no text
var ErrEmptyTranscription = errors.New("backend returned empty transcription")

type Service struct {
	policy   Policy
	provider stt.Provider
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New creates a gateway. m may be nil.
func New(policy Policy, provider stt.Provider, m *metrics.Metrics) *Service {
	return &Service{
		policy:   policy,
		provider: provider,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *Service) Policy() Policy {
	return s.policy
}

// Validate rejects files that must not be forwarded
func (s *Service) Validate(ctx context.Context, file *model.UploadedFile) error {
	if err := s.policy.Validate(file); err != nil {
		logging.NewLogger(ctx).Warnf("File validation failed: %v", err)
		return err
	}
	logging.NewLogger(ctx).Debugf("File validation passed for: %s", file.Filename)
	return nil
}

// Transcribe validates file, forwards it once, and maps the reply.
// Every error returned is a *Error.
func (s *Service) Transcribe(ctx context.Context, file *model.UploadedFile, opts stt.Options) (*model.TranscriptionResult, error) {
	if err := s.Validate(ctx, file); err != nil {
		return nil, err
	}

	log := logging.NewLogger(ctx).WithField("file", file.Filename)
	log.Infof("Processing transcription (provider=%s, size=%d bytes)", s.provider.Name(), file.Size)
	s.metrics.ObserveUpload(file.Size)

	start := time.Now()
	reply, err := s.provider.Transcribe(ctx, file, opts)
	if err == nil {
		var result *model.TranscriptionResult
		result, err = s.mapReply(reply)
		if err == nil {
			s.metrics.ObserveTranscription(s.provider.Name(), outcomeSuccess, time.Since(start))
			log.Infof("Transcription completed (language=%s, length=%d)", result.Language, len(result.TranscriptionText))
			return result, nil
		}
	}

	gwErr := classify(err)
	s.metrics.ObserveTranscription(s.provider.Name(), string(gwErr.Kind), time.Since(start))
	log.Errorf("Transcription failed (%s): %v", gwErr.Kind, gwErr)
	return nil, gwErr
}

func (s *Service) mapReply(reply *stt.Reply) (*model.TranscriptionResult, error) {
	if reply == nil {
		return nil, processingError("Transcription service returned unexpected response", stt.ErrUnexpectedResponse)
	}

	if strings.TrimSpace(reply.Text) == "" {
		return nil, processingError(ErrEmptyTranscription.Error(), ErrEmptyTranscription)
	}

	result := &model.TranscriptionResult{
		TranscriptionText: reply.Text,
		Language:          orUnknown(reply.Language),
		Confidence:        reply.Confidence.Ptr(),
		Duration:          reply.Duration.Ptr(),
		ModelUsed:         orUnknown(reply.ModelUsed),
		ProcessingTime:    reply.ProcessingTime.Ptr(),
		CompletedAt:       s.now().UTC(),
		Status:            model.StatusCompleted,
	}

	for _, seg := range reply.Segments {
		start, end := seg.Bounds()
		result.Segments = append(result.Segments, model.Segment{
			StartTime:  start,
			EndTime:    end,
			Text:       seg.Text,
			Confidence: seg.Confidence.Ptr(),
		})
	}

	return result, nil
}

// classify maps provider failures onto the gateway taxonomy, keeping the cause
func classify(err error) *Error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}

	var transportErr *stt.TransportError
	if errors.As(err, &transportErr) {
		return unavailableError(err)
	}

	var statusErr *stt.StatusError
	if errors.As(err, &statusErr) {
		return serviceError(statusErr.StatusCode, err)
	}

	if errors.Is(err, stt.ErrUnexpectedResponse) {
		return processingError("Transcription service returned unexpected response", err)
	}
	return processingError("Transcription processing failed", err)
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return model.Unknown
	}
	return v
}
