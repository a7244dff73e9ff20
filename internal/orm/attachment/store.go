// Package attachment stores files uploaded for attachment fields and keeps a
// descriptor of the stored file in the owning entity's column.
package attachment

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/conduit-lang/restbind/internal/web/request"
)

// ErrNotFound is returned for unknown stored file ids
var ErrNotFound = errors.New("attachment not found")

// Store persists uploaded files
type Store interface {
	Save(file request.UploadedFile) (*StoredFile, error)
	Open(id string) (io.ReadCloser, error)
	Delete(id string) error
}

// StoredFile describes a file kept by a Store. It is what an attachment
// column holds.
type StoredFile struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	URL         string    `json:"url,omitempty"`
	StoredAt    time.Time `json:"storedAt"`
}

// ToDict renders the descriptor for export
func (f *StoredFile) ToDict() (map[string]interface{}, error) {
	return map[string]interface{}{
		"id":          f.ID,
		"filename":    f.Filename,
		"contentType": f.ContentType,
		"size":        f.Size,
		"url":         f.URL,
	}, nil
}

// Value implements driver.Valuer
func (f *StoredFile) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (f *StoredFile) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*f = StoredFile{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), f)
	case []byte:
		return json.Unmarshal(v, f)
	default:
		return fmt.Errorf("cannot scan %T into StoredFile", src)
	}
}

// Config configures a LocalStore
type Config struct {
	Dir          string   // Directory to store files in
	BaseURL      string   // Prefix for public URLs (empty = no URL)
	MaxFileSize  int64    // Maximum size per file (in bytes)
	AllowedTypes []string // Allowed MIME types or prefixes (empty = allow all)
	AllowedExts  []string // Allowed file extensions (empty = allow all)
}

// DefaultConfig returns default store configuration
func DefaultConfig() *Config {
	return &Config{
		Dir:         filepath.Join(os.TempDir(), "restbind-attachments"),
		MaxFileSize: 10 << 20, // 10MB per file
	}
}

// LocalStore keeps files in a directory on the local filesystem. Files are
// named by a generated id that keeps the original extension.
type LocalStore struct {
	config *Config
}

// NewLocalStore creates a store, creating the directory if needed
func NewLocalStore(config *Config) (*LocalStore, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}
	return &LocalStore{config: config}, nil
}

// Save validates and copies the upload into the store
func (s *LocalStore) Save(file request.UploadedFile) (*StoredFile, error) {
	contentType, err := s.validateFile(file)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename()))
	id := uuid.NewString() + ext
	destPath := filepath.Join(s.config.Dir, id)

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dest.Close()

	size, err := io.Copy(dest, src)
	if err != nil {
		os.Remove(destPath) // Clean up on error
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	stored := &StoredFile{
		ID:          id,
		Filename:    filepath.Base(file.Filename()),
		ContentType: contentType,
		Size:        size,
		StoredAt:    time.Now().UTC(),
	}
	if s.config.BaseURL != "" {
		stored.URL = strings.TrimSuffix(s.config.BaseURL, "/") + "/" + id
	}
	return stored, nil
}

// Open returns the content of a stored file
func (s *LocalStore) Open(id string) (io.ReadCloser, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return f, err
}

// Delete removes a stored file
func (s *LocalStore) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return err
}

func (s *LocalStore) path(id string) (string, error) {
	if id == "" || filepath.Base(id) != id {
		return "", fmt.Errorf("invalid attachment id %q", id)
	}
	return filepath.Join(s.config.Dir, id), nil
}

// validateFile checks size, extension and sniffed content type, returning
// the content type to record
func (s *LocalStore) validateFile(file request.UploadedFile) (string, error) {
	if s.config.MaxFileSize > 0 && file.Size() > s.config.MaxFileSize {
		return "", fmt.Errorf("file size %d exceeds maximum of %d bytes", file.Size(), s.config.MaxFileSize)
	}

	if file.Size() == 0 {
		return "", fmt.Errorf("file is empty")
	}

	// Check file extension if restrictions are configured
	if len(s.config.AllowedExts) > 0 {
		ext := strings.ToLower(filepath.Ext(file.Filename()))
		allowed := false
		for _, allowedExt := range s.config.AllowedExts {
			if ext == strings.ToLower(allowedExt) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", fmt.Errorf("file extension %s not allowed", ext)
		}
	}

	// Read first 512 bytes for content type detection
	r, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file for validation: %w", err)
	}
	defer r.Close()

	buffer := make([]byte, 512)
	n, err := io.ReadFull(r, buffer)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("failed to read file for validation: %w", err)
	}
	actualType := http.DetectContentType(buffer[:n])

	if len(s.config.AllowedTypes) > 0 && !isTypeAllowed(actualType, s.config.AllowedTypes) {
		return "", fmt.Errorf("file content type %s not allowed", actualType)
	}

	if declared := file.ContentType(); declared != "" {
		return declared, nil
	}
	return actualType, nil
}

// isTypeAllowed checks if a content type is in the allowed list
func isTypeAllowed(contentType string, allowedTypes []string) bool {
	for _, allowed := range allowedTypes {
		// Allow exact matches or prefix matches (e.g., "image/" matches "image/jpeg")
		if contentType == allowed || strings.HasPrefix(contentType, allowed) {
			return true
		}
	}
	return false
}
