package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// Parser turns HTTP request bodies into binding requests
type Parser struct {
	maxBodySize int64 // Maximum size for request bodies (in bytes)
}

// NewParser creates a new request parser with default settings
func NewParser() *Parser {
	return &Parser{
		maxBodySize: 10 << 20, // 10MB default
	}
}

// NewParserWithMaxSize creates a parser with a custom max body size
func NewParserWithMaxSize(maxBytes int64) *Parser {
	return &Parser{
		maxBodySize: maxBytes,
	}
}

// Parse reads the body according to its Content-Type. Query parameters are
// merged underneath body parameters.
func (p *Parser) Parse(w http.ResponseWriter, r *http.Request) (*Request, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	var req *Request
	switch {
	case mediaType == "application/json":
		req, err = p.ParseJSON(w, r)
	case mediaType == "application/x-www-form-urlencoded":
		req, err = p.ParseForm(w, r)
	case strings.HasPrefix(mediaType, "multipart/form-data"):
		req, err = p.ParseMultipart(r)
	case contentType == "":
		// No content type specified, try JSON as default
		req, err = p.ParseJSON(w, r)
	default:
		return nil, fmt.Errorf("unsupported content type: %s", mediaType)
	}
	if err != nil {
		return nil, err
	}

	for key, vals := range r.URL.Query() {
		if _, exists := req.Form[key]; !exists && len(vals) > 0 {
			req.Form[key] = vals[0]
		}
	}
	return req, nil
}

// ParseJSON parses a JSON object body. An empty body yields an empty
// request; a body over the size limit is an error wrapping
// *http.MaxBytesError.
func (p *Parser) ParseJSON(w http.ResponseWriter, r *http.Request) (*Request, error) {
	req := New(make(map[string]interface{}))
	if r.Body == nil {
		return req, nil
	}

	// Limit body size to prevent DoS attacks
	r.Body = http.MaxBytesReader(w, r.Body, p.maxBodySize)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("request body exceeds %d bytes: %w", tooLarge.Limit, err)
		}
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	if err := decoder.Decode(&req.Form); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if req.Form == nil {
		req.Form = make(map[string]interface{})
	}

	if decoder.More() {
		return nil, fmt.Errorf("request body contains multiple JSON objects")
	}

	return req, nil
}

// ParseForm parses URL-encoded form data
func (p *Parser) ParseForm(w http.ResponseWriter, r *http.Request) (*Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, p.maxBodySize)
	defer r.Body.Close()

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form data: %w", err)
	}

	req := New(make(map[string]interface{}, len(r.PostForm)))
	for key, vals := range r.PostForm {
		if len(vals) > 0 {
			req.Form[key] = vals[0]
		}
	}
	return req, nil
}

// ParseMultipart parses multipart/form-data, keeping files as UploadedFiles
func (p *Parser) ParseMultipart(r *http.Request) (*Request, error) {
	if err := r.ParseMultipartForm(p.maxBodySize); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	if r.MultipartForm == nil {
		return nil, fmt.Errorf("no multipart form data")
	}

	req := New(make(map[string]interface{}, len(r.MultipartForm.Value)))
	for key, vals := range r.MultipartForm.Value {
		if len(vals) > 0 {
			req.Form[key] = vals[0]
		}
	}
	for key, headers := range r.MultipartForm.File {
		for _, header := range headers {
			req.AddFile(key, NewMultipartFile(header))
		}
	}
	return req, nil
}
