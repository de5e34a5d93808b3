package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxgate/internal/correlation"
	"voxgate/internal/gateway"
	"voxgate/internal/metrics"
	"voxgate/internal/model"
	"voxgate/internal/stt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type backendCall struct {
	hits          int
	correlationID string
	modelSize     string
	language      string
}

func newBackend(t *testing.T, status int, body string, call *backendCall) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if call != nil {
			call.hits++
			call.correlationID = r.Header.Get(correlation.HeaderName)
			call.modelSize = r.URL.Query().Get("model_size")
			call.language = r.URL.Query().Get("language")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, backendURL string) (*gin.Engine, *Handler) {
	t.Helper()
	policy, err := gateway.NewPolicy(1024, []string{"mp3", "wav"}, "audio/")
	require.NoError(t, err)

	provider := stt.NewWhisperProvider(backendURL, stt.NewHTTPClient(time.Second, 5*time.Second))
	m := metrics.NewMetrics()
	svc := gateway.New(policy, provider, m)

	r := gin.New()
	r.Use(middlewareChain(m, []string{"*"})...)
	h := NewHandler(svc)
	RegisterRoutes(r, h, m)
	return r, h
}

func multipartRequest(t *testing.T, target, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestTranscribeSuccess(t *testing.T) {
	call := &backendCall{}
	srv := newBackend(t, http.StatusOK, `{"text": "hello world", "language": "en", "confidence_score": 0.91}`, call)
	r, _ := newTestRouter(t, srv.URL)

	req := multipartRequest(t, "/api/audio/transcribe?model_size=base&language=en", "file", "clip.mp3", "audio/mpeg", []byte("audio"))
	req.Header.Set(correlation.HeaderName, "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "abc", rec.Header().Get(correlation.HeaderName))

	var result model.TranscriptionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "hello world", result.TranscriptionText)
	assert.Equal(t, "en", result.Language)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 0.91, *result.Confidence)
	assert.Equal(t, model.StatusCompleted, result.Status)

	assert.Equal(t, 1, call.hits)
	assert.Equal(t, "abc", call.correlationID)
	assert.Equal(t, "base", call.modelSize)
	assert.Equal(t, "en", call.language)
}

func TestTranscribeNonFiniteNumbersStillReturnBody(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		t.Run(v, func(t *testing.T) {
			srv := newBackend(t, http.StatusOK, `{"text": "hello", "confidence_score": "`+v+`", "duration": "`+v+`"}`, nil)
			r, _ := newTestRouter(t, srv.URL)

			req := multipartRequest(t, "/transcribe", "file", "clip.mp3", "audio/mpeg", []byte("audio"))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			require.NotEmpty(t, rec.Body.Bytes())

			var result model.TranscriptionResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			assert.Equal(t, "hello", result.TranscriptionText)
			assert.Nil(t, result.Confidence)
			assert.Nil(t, result.Duration)
		})
	}
}

func TestTranscribeAliasAndFallbackField(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `{"text": "hi"}`, nil)
	r, _ := newTestRouter(t, srv.URL)

	req := multipartRequest(t, "/transcribe", "audioFile", "clip.WAV", "audio/wav", []byte("audio"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(correlation.HeaderName))
}

func TestTranscribeFailures(t *testing.T) {
	refused := func(t *testing.T) string {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		require.NoError(t, ln.Close())
		return "http://" + addr
	}

	tests := []struct {
		name       string
		backend    func(t *testing.T) string
		field      string
		filename   string
		ct         string
		size       int
		wantStatus int
		wantCode   gateway.Kind
		wantMsg    string
	}{
		{
			name:       "missing file",
			field:      "",
			wantStatus: http.StatusBadRequest,
			wantCode:   gateway.KindFileValidation,
			wantMsg:    "Audio file is required",
		},
		{
			name:       "oversized file",
			field:      "file",
			filename:   "clip.mp3",
			ct:         "audio/mpeg",
			size:       2048,
			wantStatus: http.StatusBadRequest,
			wantCode:   gateway.KindFileValidation,
			wantMsg:    "File size exceeds maximum allowed size of 1.0 KiB",
		},
		{
			name:       "unsupported extension",
			field:      "file",
			filename:   "clip.mp4",
			ct:         "audio/mp4",
			size:       10,
			wantStatus: http.StatusBadRequest,
			wantCode:   gateway.KindFileValidation,
			wantMsg:    "Unsupported file type. Supported types: [mp3, wav]",
		},
		{
			name:       "not audio",
			field:      "file",
			filename:   "clip.mp3",
			ct:         "video/mp4",
			size:       10,
			wantStatus: http.StatusBadRequest,
			wantCode:   gateway.KindFileValidation,
			wantMsg:    "File must be an audio file",
		},
		{
			name: "backend error",
			backend: func(t *testing.T) string {
				return newBackend(t, http.StatusInternalServerError, `{"detail": "boom"}`, nil).URL
			},
			field:      "file",
			filename:   "clip.mp3",
			ct:         "audio/mpeg",
			size:       10,
			wantStatus: http.StatusBadGateway,
			wantCode:   gateway.KindServiceError,
			wantMsg:    "Transcription service returned an error (status 500)",
		},
		{
			name:       "backend unreachable",
			backend:    refused,
			field:      "file",
			filename:   "clip.mp3",
			ct:         "audio/mpeg",
			size:       10,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   gateway.KindServiceUnavailable,
			wantMsg:    "Transcription service is unavailable. Please try again later.",
		},
		{
			name: "empty transcript",
			backend: func(t *testing.T) string {
				return newBackend(t, http.StatusOK, `{"text": ""}`, nil).URL
			},
			field:      "file",
			filename:   "clip.mp3",
			ct:         "audio/mpeg",
			size:       10,
			wantStatus: http.StatusInternalServerError,
			wantCode:   gateway.KindProcessing,
			wantMsg:    "backend returned empty transcription",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "http://127.0.0.1:1"
			if tt.backend != nil {
				url = tt.backend(t)
			}
			r, _ := newTestRouter(t, url)

			req := multipartRequest(t, "/api/audio/transcribe", tt.field, tt.filename, tt.ct, bytes.Repeat([]byte("a"), tt.size))
			req.Header.Set(correlation.HeaderName, "corr-"+tt.name)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "corr-"+tt.name, rec.Header().Get(correlation.HeaderName))

			body := decodeError(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, string(tt.wantCode), body.Code)
			assert.Equal(t, tt.wantMsg, body.Error)
			assert.Equal(t, "corr-"+tt.name, body.CorrelationID)
			assert.False(t, body.Timestamp.IsZero())
		})
	}
}

func TestTranscribeBodyTooLarge(t *testing.T) {
	call := &backendCall{}
	srv := newBackend(t, http.StatusOK, `{"text": "nope"}`, call)
	r, h := newTestRouter(t, srv.URL)
	h.bodyOverhead = 256

	req := multipartRequest(t, "/api/audio/transcribe", "file", "clip.mp3", "audio/mpeg", bytes.Repeat([]byte("a"), 4096))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, codeFileSizeExceeded, body.Code)
	assert.Equal(t, rec.Header().Get(correlation.HeaderName), body.CorrelationID)
	assert.Zero(t, call.hits)
}

func TestFreshCorrelationIDsPerRequest(t *testing.T) {
	r, _ := newTestRouter(t, "http://127.0.0.1:1")

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		id := rec.Header().Get(correlation.HeaderName)
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestPanicIsRecoveredWithCorrelationID(t *testing.T) {
	r, _ := newTestRouter(t, "http://127.0.0.1:1")
	r.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(correlation.HeaderName, "panic-id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "panic-id", rec.Header().Get(correlation.HeaderName))
	body := decodeError(t, rec)
	assert.Equal(t, string(gateway.KindProcessing), body.Code)
	assert.Equal(t, "panic-id", body.CorrelationID)
	assert.NotContains(t, rec.Body.String(), "kaboom")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `voxgate_http_requests_total{method="GET",route="/boom",status="500"} 1`)
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t, "http://127.0.0.1:1")

	for _, path := range []string{"/health", "/api/audio/health"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "voxgate_http_requests_total"))
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodOptions, "/api/audio/transcribe", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), correlation.HeaderName)
	assert.Equal(t, correlation.HeaderName, rec.Header().Get("Access-Control-Expose-Headers"))
	assert.NotEmpty(t, rec.Header().Get(correlation.HeaderName))
}

func TestCORSRestrictedOrigins(t *testing.T) {
	r := gin.New()
	r.Use(corsMiddleware([]string{"https://app.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(gateway.KindFileValidation))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(gateway.KindServiceUnavailable))
	assert.Equal(t, http.StatusBadGateway, statusFor(gateway.KindServiceError))
	assert.Equal(t, http.StatusInternalServerError, statusFor(gateway.KindProcessing))
}
