package rangeserve

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type MetaData struct {
	ID            uuid.UUID `json:"id"`
	Path          string    `json:"path"`
	ContentType   string    `json:"content_type"`
	Etag          string    `json:"etag"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ObjectEntry struct {
	Path        string
	Size        int64
	ETag        string
	ContentType string
}

// FetchRange is the window requested from a ByteStore.
//
// Offset is the first byte to return. Length is the number of bytes from
// Offset, or 0 to read to the end of the object. A positive Suffix asks for
// the last Suffix bytes instead and overrides Offset and Length.
type FetchRange struct {
	Offset int64
	Length int64
	Suffix int64
}

// ServedRange is the window a ByteStore actually returned.
type ServedRange struct {
	Offset int64
	Length int64
}

// End returns the inclusive index of the last served byte.
func (r ServedRange) End() int64 {
	return r.Offset + r.Length - 1
}

// HTTPMetadata holds the HTTP-facing metadata recorded for an object.
type HTTPMetadata struct {
	ContentType        string
	ContentDisposition string
	ContentEncoding    string
	ContentLanguage    string
	CacheControl       string
	Expires            time.Time
}

// Headers returns the non-empty metadata fields keyed by header name.
func (m HTTPMetadata) Headers() map[string]string {
	h := make(map[string]string, 6)
	if m.ContentType != "" {
		h["Content-Type"] = m.ContentType
	}
	if m.ContentDisposition != "" {
		h["Content-Disposition"] = m.ContentDisposition
	}
	if m.ContentEncoding != "" {
		h["Content-Encoding"] = m.ContentEncoding
	}
	if m.ContentLanguage != "" {
		h["Content-Language"] = m.ContentLanguage
	}
	if m.CacheControl != "" {
		h["Cache-Control"] = m.CacheControl
	}
	if !m.Expires.IsZero() {
		h["Expires"] = m.Expires.UTC().Format(http.TimeFormat)
	}
	return h
}

// StoredObject is what a ByteStore returns for a key.
//
// Range may be set even when no range was requested. Callers must compare
// Range.Length with Size to decide whether the body is partial.
type StoredObject struct {
	Size     int64
	ETag     string
	Metadata HTTPMetadata
	Range    *ServedRange
	Body     io.ReadCloser
}

// Request is the part of an inbound HTTP request Respond looks at.
type Request struct {
	Method string
	Header http.Header
}

// Overrides are caller-supplied response headers.
// Empty ContentDisposition or ContentType leave the stored value in place.
type Overrides struct {
	AdditionalHeaders  map[string]string
	ContentDisposition string
	ContentType        string
}

// Response is a fully formed HTTP response. Body is nil when there is
// nothing to send; otherwise the caller must close it.
type Response struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

type ServerMode string

const (
	ModeStore  ServerMode = "store"
	ModeStatic ServerMode = "static"
	ModeSPA    ServerMode = "spa"
)

func (m ServerMode) IsValid() bool {
	switch m {
	case ModeStore, ModeStatic, ModeSPA:
		return true
	default:
		return false
	}
}

func ParseServerMode(s string) (ServerMode, error) {
	mode := ServerMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid server mode: %s (valid modes: store, static, spa)", s)
	}
	return mode, nil
}
