package model

import (
	"bytes"
	"io"
	"mime/multipart"
)

// UploadedFile is an audio upload owned by a single request.
// A nil *UploadedFile means no file was supplied.
type UploadedFile struct {
	Filename    string
	ContentType string
	Size        int64

	open func() (io.ReadCloser, error)
}

// NewUploadedFile wraps a parsed multipart file header
func NewUploadedFile(fh *multipart.FileHeader) *UploadedFile {
	if fh == nil {
		return nil
	}
	return &UploadedFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// NewUploadedFileFromBytes builds an upload from in-memory content
func NewUploadedFileFromBytes(filename, contentType string, data []byte) *UploadedFile {
	return &UploadedFile{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Open returns a fresh reader over the file content. Each call starts at the beginning.
func (f *UploadedFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return f.open()
}
