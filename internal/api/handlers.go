package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"voxgate/internal/gateway"
	"voxgate/internal/logging"
	"voxgate/internal/model"
	"voxgate/internal/stt"
	"voxgate/internal/utils"
)

const (
	// codeFileSizeExceeded is reported when the request body is cut off before the file is read
	codeFileSizeExceeded = "FILE_SIZE_EXCEEDED"

	multipartMemory   = 32 << 20
	multipartOverhead = 1 << 20
)

// uploadFields are tried in order
var uploadFields = []string{"file", "audioFile"}

// Handler serves the transcription routes
type Handler struct {
	gateway      *gateway.Service
	bodyOverhead int64
}

func NewHandler(svc *gateway.Service) *Handler {
	return &Handler{gateway: svc, bodyOverhead: multipartOverhead}
}

// healthCheck returns server health status
func (h *Handler) healthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": "voxgate",
	})
}

// transcribe handles a multipart upload and returns the normalized result
func (h *Handler) transcribe(c *gin.Context) {
	ctx := c.Request.Context()
	log := logging.NewLogger(ctx)

	maxSize := h.gateway.Policy().MaxFileSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+h.bodyOverhead)

	file, err := uploadedFile(c)
	if err != nil {
		log.Warnf("[Upload] Request body too large: %v", err)
		utils.Error(c, http.StatusRequestEntityTooLarge, codeFileSizeExceeded,
			fmt.Sprintf("File size exceeds maximum allowed size of %s", humanize.IBytes(uint64(maxSize))))
		return
	}
	if c.Request.MultipartForm != nil {
		defer c.Request.MultipartForm.RemoveAll()
	}

	opts := stt.Options{
		ModelSize: c.Query("model_size"),
		Language:  c.Query("language"),
	}

	result, err := h.gateway.Transcribe(ctx, file, opts)
	if err != nil {
		writeError(c, err)
		return
	}

	utils.Success(c, result)
}

// uploadedFile returns the uploaded file, or nil when the request carries none.
// An error is returned only when the body exceeded the size limit.
func uploadedFile(c *gin.Context) (*model.UploadedFile, error) {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		logging.NewLogger(c.Request.Context()).Debugf("[Upload] Failed to parse multipart form: %v", err)
		return nil, nil
	}

	for _, field := range uploadFields {
		if fh, err := c.FormFile(field); err == nil {
			return model.NewUploadedFile(fh), nil
		}
	}
	return nil, nil
}

// statusFor maps a gateway error kind onto the HTTP status returned to callers
func statusFor(kind gateway.Kind) int {
	switch kind {
	case gateway.KindFileValidation:
		return http.StatusBadRequest
	case gateway.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case gateway.KindServiceError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := gateway.KindOf(err)

	msg := "Transcription processing failed"
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		msg = gwErr.Message
	}

	utils.Error(c, statusFor(kind), string(kind), msg)
}
