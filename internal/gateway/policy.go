package gateway

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"voxgate/internal/model"
)

// Policy is the read-only upload validation policy shared by all requests
type Policy struct {
	maxFileSize       int64
	extensions        map[string]struct{}
	extensionList     []string
	contentTypePrefix string
}

// NewPolicy builds a policy. Extensions are matched case-insensitively and
// may be given with or without a leading dot.
func NewPolicy(maxFileSize int64, extensions []string, contentTypePrefix string) (Policy, error) {
	if maxFileSize <= 0 {
		return Policy{}, errors.New("max file size must be positive")
	}
	if contentTypePrefix == "" {
		return Policy{}, errors.New("content type prefix is required")
	}

	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	if len(set) == 0 {
		return Policy{}, errors.New("at least one accepted extension is required")
	}

	list := make([]string, 0, len(set))
	for ext := range set {
		list = append(list, ext)
	}
	sort.Strings(list)

	return Policy{
		maxFileSize:       maxFileSize,
		extensions:        set,
		extensionList:     list,
		contentTypePrefix: contentTypePrefix,
	}, nil
}

func (p Policy) MaxFileSize() int64 {
	return p.maxFileSize
}

// Extensions returns the accepted extensions, sorted
func (p Policy) Extensions() []string {
	return append([]string(nil), p.extensionList...)
}

// Validate checks the file in a fixed order and reports the first violation.
// Neither the file nor the policy is modified.
func (p Policy) Validate(file *model.UploadedFile) error {
	if file == nil || file.Size <= 0 {
		return validationError("Audio file is required")
	}

	if file.Size > p.maxFileSize {
		return validationError(fmt.Sprintf("File size exceeds maximum allowed size of %s", humanize.IBytes(uint64(p.maxFileSize))))
	}

	if file.Filename == "" {
		return validationError("File must have a valid name")
	}
	if _, ok := p.extensions[strings.ToLower(fileExtension(file.Filename))]; !ok {
		return validationError(fmt.Sprintf("Unsupported file type. Supported types: [%s]", strings.Join(p.extensionList, ", ")))
	}

	if file.ContentType == "" || !strings.HasPrefix(file.ContentType, p.contentTypePrefix) {
		return validationError("File must be an audio file")
	}

	return nil
}

// fileExtension returns the text after the last dot, or "" when there is none
func fileExtension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return filename[i+1:]
}
