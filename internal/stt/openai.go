package stt

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"voxgate/internal/logging"
	"voxgate/internal/model"
	"voxgate/internal/utils"
)

// OpenAIProvider transcribes through an OpenAI-compatible /audio/transcriptions API
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider. An empty baseURL keeps the library default
// and an empty model selects whisper-1.
func NewOpenAIProvider(apiKey, baseURL, modelName string, httpClient *http.Client) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = openai.Whisper1
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  modelName,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Transcribe sends the file in a single verbose_json transcription call
func (p *OpenAIProvider) Transcribe(ctx context.Context, file *model.UploadedFile, opts Options) (*Reply, error) {
	if file == nil {
		return nil, utils.WrapIfNotNil(errors.New("file is required"))
	}
	startTime := time.Now()
	log := logging.NewLogger(ctx).WithField("provider", p.Name())

	src, err := file.Open()
	if err != nil {
		return nil, utils.WrapIfNotNil(err, "failed to open uploaded file")
	}
	defer src.Close()

	log.Infof("Sending transcription request (model=%s, file=%s, size=%d bytes)", p.model, file.Filename, file.Size)

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.model,
		FilePath: file.Filename,
		Reader:   src,
		Language: opts.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		log.Errorf("Transcription request failed: %v", err)
		return nil, p.classify(err)
	}

	reply := &Reply{
		Text:           resp.Text,
		Language:       resp.Language,
		ModelUsed:      p.model,
		ProcessingTime: Float(time.Since(startTime).Seconds()),
	}
	if resp.Duration > 0 {
		reply.Duration = Float(resp.Duration)
	}
	for _, s := range resp.Segments {
		reply.Segments = append(reply.Segments, ReplySegment{
			StartTime: Float(s.Start),
			EndTime:   Float(s.End),
			Text:      s.Text,
		})
	}

	log.Infof("Transcription reply received in %v (length=%d)", time.Since(startTime), len(reply.Text))
	return reply, nil
}

func (p *OpenAIProvider) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Provider: p.Name(), StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= http.StatusBadRequest {
		return &StatusError{Provider: p.Name(), StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TransportError{Provider: p.Name(), Err: err}
	}

	return utils.WrapIfNotNil(err)
}
