package response

import (
	"bufio"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
)

// Streamer writes a response body incrementally, flushing after each chunk
type Streamer struct {
	writer  http.ResponseWriter
	flusher http.Flusher
}

// NewStreamer creates a new response streamer
func NewStreamer(w http.ResponseWriter) (*Streamer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	return &Streamer{
		writer:  w,
		flusher: flusher,
	}, nil
}

// StreamJSON writes one JSON document per line (JSON Lines)
func (s *Streamer) StreamJSON(objects <-chan interface{}) error {
	s.writer.Header().Set("Content-Type", "application/x-ndjson")
	s.writer.Header().Set("X-Content-Type-Options", "nosniff")
	s.writer.WriteHeader(http.StatusOK)

	encoder := json.NewEncoder(s.writer)

	for obj := range objects {
		if err := encoder.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode object: %w", err)
		}
		s.flusher.Flush()
	}

	return nil
}

// StreamReader copies reader to the client. An empty contentType is sniffed
// from the first 512 bytes.
func (s *Streamer) StreamReader(contentType string, reader io.Reader) error {
	if contentType == "" {
		br := bufio.NewReaderSize(reader, 512)
		head, _ := br.Peek(512)
		contentType = http.DetectContentType(head)
		reader = br
	}

	s.writer.Header().Set("Content-Type", contentType)
	s.writer.Header().Set("X-Content-Type-Options", "nosniff")
	s.writer.WriteHeader(http.StatusOK)

	buf := make([]byte, 32*1024)

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			if _, writeErr := s.writer.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("failed to write: %w", writeErr)
			}
			s.flusher.Flush()
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read: %w", err)
		}
	}

	return nil
}
