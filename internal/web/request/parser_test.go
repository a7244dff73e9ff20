package request

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_ParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    map[string]interface{}
		wantErr bool
	}{
		{
			name: "object",
			body: `{"title":"object 1","isActive":true}`,
			want: map[string]interface{}{"title": "object 1", "isActive": true},
		},
		{
			name: "empty body",
			body: ``,
			want: map[string]interface{}{},
		},
		{
			name:    "malformed",
			body:    `{"title":`,
			wantErr: true,
		},
		{
			name:    "multiple objects",
			body:    `{"a":"1"} {"b":"2"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			req, err := NewParser().Parse(w, r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Form)
		})
	}
}

func TestParser_ParseForm(t *testing.T) {
	form := url.Values{}
	form.Set("title", "object 1")
	form.Add("tags", "a")
	form.Add("tags", "b")

	r := httptest.NewRequest(http.MethodPost, "/members?page=2&title=ignored", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	req, err := NewParser().Parse(httptest.NewRecorder(), r)
	require.NoError(t, err)

	assert.Equal(t, "object 1", req.Form["title"], "body wins over query")
	assert.Equal(t, "a", req.Form["tags"], "first value is kept")
	assert.Equal(t, "2", req.Form["page"])
}

func TestParser_ParseMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "object 1"))

	part, err := mw.CreateFormFile("avatar", "face.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/members", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	req, err := NewParser().Parse(httptest.NewRecorder(), r)
	require.NoError(t, err)

	assert.Equal(t, "object 1", req.Form["title"])

	file, ok := req.File("avatar")
	require.True(t, ok)
	assert.Equal(t, "face.png", file.Filename())
	assert.Equal(t, int64(len("\x89PNG fake image")), file.Size())

	rc, err := file.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG fake image", string(data))
}

func TestParser_UnsupportedContentType(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/members", strings.NewReader("x"))
	r.Header.Set("Content-Type", "text/csv")

	_, err := NewParser().Parse(httptest.NewRecorder(), r)
	assert.ErrorContains(t, err, "unsupported content type")
}

func TestParser_BodyTooLarge(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(`{"title":"`+strings.Repeat("x", 64)+`"}`))
	r.Header.Set("Content-Type", "application/json")

	_, err := NewParserWithMaxSize(16).Parse(httptest.NewRecorder(), r)
	require.Error(t, err)
	var tooLarge *http.MaxBytesError
	assert.ErrorAs(t, err, &tooLarge)
	assert.ErrorContains(t, err, "exceeds 16 bytes")
}

func TestParser_JSONBodyWithinLimit(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]interface{}
	}{
		{"empty", "", map[string]interface{}{}},
		{"whitespace", " \n\t", map[string]interface{}{}},
		{"null", "null", map[string]interface{}{}},
		{"exactly at limit", `{"title":"abcdef"}`, map[string]interface{}{"title": "abcdef"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")

			req, err := NewParserWithMaxSize(18).Parse(httptest.NewRecorder(), r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Form)
		})
	}
}

func TestRequest_Accessors(t *testing.T) {
	var nilReq *Request
	_, ok := nilReq.Param("x")
	assert.False(t, ok)
	assert.False(t, nilReq.Has("x"))

	req := New(map[string]interface{}{"title": "x"})
	req.AddFile("avatar", &MemoryFile{Name: "a.txt", Type: "text/plain", Data: []byte("hi")})
	req.Files["empty"] = nil

	assert.True(t, req.Has("title"))
	assert.True(t, req.Has("avatar"))
	assert.True(t, req.Has("empty"), "a present but empty file list still counts as supplied")

	_, ok = req.File("empty")
	assert.False(t, ok)

	f, ok := req.File("avatar")
	require.True(t, ok)
	assert.Equal(t, int64(2), f.Size())
	assert.Equal(t, "text/plain", f.ContentType())
}
