package request

import (
	"io"
	"mime/multipart"
)

// multipartFile adapts a multipart file header to UploadedFile
type multipartFile struct {
	header *multipart.FileHeader
}

// NewMultipartFile wraps a parsed multipart file header
func NewMultipartFile(header *multipart.FileHeader) UploadedFile {
	return &multipartFile{header: header}
}

func (f *multipartFile) Filename() string { return f.header.Filename }

func (f *multipartFile) ContentType() string { return f.header.Header.Get("Content-Type") }

func (f *multipartFile) Size() int64 { return f.header.Size }

func (f *multipartFile) Open() (io.ReadCloser, error) {
	return f.header.Open()
}
