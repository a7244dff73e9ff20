// Package request carries incoming parameters and uploaded files in the shape
// the binding engine consumes, independent of the HTTP transport.
package request

import (
	"bytes"
	"io"
)

// UploadedFile is a file supplied with a request
type UploadedFile interface {
	Filename() string
	ContentType() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// Request holds parsed parameters and uploads. Either map may be nil.
type Request struct {
	Form  map[string]interface{}
	Files map[string][]UploadedFile
}

// New creates a request from form parameters
func New(form map[string]interface{}) *Request {
	return &Request{Form: form}
}

// Param returns the parameter value for name
func (r *Request) Param(name string) (interface{}, bool) {
	if r == nil || r.Form == nil {
		return nil, false
	}
	v, ok := r.Form[name]
	return v, ok
}

// File returns the first uploaded file for name
func (r *Request) File(name string) (UploadedFile, bool) {
	if r == nil || r.Files == nil {
		return nil, false
	}
	files, ok := r.Files[name]
	if !ok || len(files) == 0 {
		return nil, false
	}
	return files[0], true
}

// Has reports whether name is present among parameters or files
func (r *Request) Has(name string) bool {
	if _, ok := r.Param(name); ok {
		return true
	}
	if r == nil || r.Files == nil {
		return false
	}
	_, ok := r.Files[name]
	return ok
}

// AddFile attaches an upload under name
func (r *Request) AddFile(name string, f UploadedFile) {
	if r.Files == nil {
		r.Files = make(map[string][]UploadedFile)
	}
	r.Files[name] = append(r.Files[name], f)
}

// MemoryFile is an in-memory UploadedFile, handy for tests and programmatic imports
type MemoryFile struct {
	Name string
	Type string
	Data []byte
}

// Filename implements UploadedFile
func (f *MemoryFile) Filename() string { return f.Name }

// ContentType implements UploadedFile
func (f *MemoryFile) ContentType() string { return f.Type }

// Size implements UploadedFile
func (f *MemoryFile) Size() int64 { return int64(len(f.Data)) }

// Open implements UploadedFile
func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}
