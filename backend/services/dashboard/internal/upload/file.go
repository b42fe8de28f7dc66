package upload

import (
	"bytes"
	"io"
	"mime"
	"strings"
)

var csvContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
}

// File is a user-selected or dropped file.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// NewFile wraps in-memory content.
func NewFile(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// IsCSV reports whether the file has a .csv name or a declared CSV content type.
func IsCSV(f File) bool {
	if strings.HasSuffix(strings.ToLower(strings.TrimSpace(f.Name)), ".csv") {
		return true
	}
	if f.ContentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil {
		return false
	}
	return csvContentTypes[strings.ToLower(mediaType)]
}
