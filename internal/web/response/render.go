// Package response renders entity dictionaries, catalogs and errors as JSON
package response

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// RenderJSON writes v as JSON with the given status
func RenderJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	w.Write(data)
}

// RenderOK writes v with status 200
func RenderOK(w http.ResponseWriter, v interface{}) {
	RenderJSON(w, http.StatusOK, v)
}

// RenderCreated writes v with status 201
func RenderCreated(w http.ResponseWriter, v interface{}) {
	RenderJSON(w, http.StatusCreated, v)
}
