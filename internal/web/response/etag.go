package response

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// GenerateETag returns a weak ETag for content. Exports are equivalent
// rather than byte-identical across encoders, hence weak.
func GenerateETag(content []byte) string {
	hash := sha256.Sum256(content)
	return fmt.Sprintf(`W/"%s"`, hex.EncodeToString(hash[:16]))
}

// ParseIfNoneMatch splits an If-None-Match header into its entity tags
func ParseIfNoneMatch(header string) []string {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	if header == "*" {
		return []string{"*"}
	}

	var etags []string
	for i := 0; i < len(header); {
		for i < len(header) && (header[i] == ' ' || header[i] == ',') {
			i++
		}
		if i >= len(header) {
			break
		}

		weak := false
		if strings.HasPrefix(header[i:], "W/") {
			weak = true
			i += 2
		}

		if i >= len(header) || header[i] != '"' {
			// Malformed tag, skip to the next one
			for i < len(header) && header[i] != ',' {
				i++
			}
			continue
		}

		start := i
		i++
		for i < len(header) && header[i] != '"' {
			i++
		}
		if i >= len(header) {
			break
		}
		i++

		etag := header[start:i]
		if weak {
			etag = "W/" + etag
		}
		etags = append(etags, etag)
	}

	return etags
}

// MatchesETag reports whether etag matches any of etags using the weak
// comparison If-None-Match calls for
func MatchesETag(etag string, etags []string) bool {
	if len(etags) == 1 && etags[0] == "*" {
		return true
	}

	opaque := strings.TrimPrefix(etag, "W/")
	for _, e := range etags {
		if strings.TrimPrefix(e, "W/") == opaque {
			return true
		}
	}
	return false
}

// RenderJSONWithETag writes v with status 200 and an ETag. A request whose
// If-None-Match names the same tag gets an empty 304 instead.
func RenderJSONWithETag(w http.ResponseWriter, r *http.Request, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		RenderInternalError(w, err)
		return
	}

	etag := GenerateETag(data)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	if MatchesETag(etag, ParseIfNoneMatch(r.Header.Get("If-None-Match"))) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
