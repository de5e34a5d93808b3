package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"voxgate/internal/correlation"
	"voxgate/internal/logging"
	"voxgate/internal/model"
	"voxgate/internal/utils"
)

const (
	transcribePath  = "/transcribe"
	uploadFieldName = "file"
	previewLimit    = 500
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// WhisperProvider forwards uploads to a Whisper transcription service that
// accepts a multipart POST on <base>/transcribe.
type WhisperProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient returns a client whose dial is bounded by connectTimeout and
// whose whole exchange is bounded by timeout.
func NewHTTPClient(connectTimeout, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: connectTimeout,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// NewWhisperProvider creates a provider for the service at baseURL
func NewWhisperProvider(baseURL string, httpClient *http.Client) *WhisperProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &WhisperProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Name returns the provider name
func (p *WhisperProvider) Name() string {
	return "whisper"
}

// Transcribe sends the file to the backend and parses its reply. It never retries.
func (p *WhisperProvider) Transcribe(ctx context.Context, file *model.UploadedFile, opts Options) (*Reply, error) {
	startTime := time.Now()
	log := logging.NewLogger(ctx).WithField("provider", p.Name())

	body, contentType, err := buildMultipartBody(file)
	if err != nil {
		return nil, utils.WrapIfNotNil(err, "failed to build multipart body")
	}

	endpoint := p.endpoint(opts)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, utils.WrapIfNotNil(err, "failed to create request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if id := correlation.FromContext(ctx); id != "" {
		req.Header.Set(correlation.HeaderName, id)
	}

	log.Infof("Sending transcription request to %s (file=%s, size=%d bytes)", endpoint, file.Filename, file.Size)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Errorf("Failed to reach transcription service: %v", err)
		return nil, &TransportError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("Failed to read transcription response: %v", err)
		return nil, &TransportError{Provider: p.Name(), Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	log.Debugf("Response status %d, preview: %s", resp.StatusCode, utils.Preview(string(respBody), previewLimit))

	if resp.StatusCode >= http.StatusBadRequest {
		log.Errorf("Transcription service returned status %d", resp.StatusCode)
		return nil, &StatusError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Body:       utils.Preview(strings.TrimSpace(string(respBody)), previewLimit),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
	}

	var reply Reply
	if err := json.Unmarshal(respBody, &reply); err != nil {
		log.Errorf("Failed to parse transcription response: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}

	log.Infof("Transcription reply received in %v (length=%d)", time.Since(startTime), len(reply.Text))
	return &reply, nil
}

func (p *WhisperProvider) endpoint(opts Options) string {
	endpoint := p.baseURL + transcribePath

	query := url.Values{}
	if opts.ModelSize != "" {
		query.Set("model_size", opts.ModelSize)
	}
	if opts.Language != "" {
		query.Set("language", opts.Language)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

// buildMultipartBody encodes file as the single part "file", keeping its
// original filename and declared content type.
func buildMultipartBody(file *model.UploadedFile) (*bytes.Buffer, string, error) {
	if file == nil {
		return nil, "", errors.New("file is required")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partContentType := file.ContentType
	if partContentType == "" {
		partContentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		uploadFieldName, quoteEscaper.Replace(file.Filename)))
	header.Set("Content-Type", partContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}
