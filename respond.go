package rangeserve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// ByteStore is the read side of a key-addressed object store.
type ByteStore interface {
	// Get returns the object stored under key. When rng is non-nil the
	// store should return only that window and report what it served in
	// StoredObject.Range; it may clamp or ignore the request.
	//
	// Returns ErrNotFound if the key does not exist and
	// ErrRangeNotSatisfiable if rng starts beyond the end of the object.
	// The caller closes StoredObject.Body.
	Get(ctx context.Context, key string, rng *FetchRange) (StoredObject, error)
}

// Respond builds the response to a GET or HEAD of key.
//
// Header layers are applied lowest to highest precedence:
//
//  1. Accept-Ranges: bytes
//  2. ov.AdditionalHeaders
//  3. stored metadata, ETag and Content-Length
//  4. ov.ContentDisposition and ov.ContentType
//  5. Content-Range, for partial responses only
//
// 404, 405 and 416 are returned as responses, not errors. The error is
// non-nil only when the store fails for any other reason, and no response
// is produced in that case.
func Respond(ctx context.Context, req Request, store ByteStore, key string, ov Overrides) (*Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return &Response{
			Status: http.StatusMethodNotAllowed,
			Header: http.Header{"Allow": {http.MethodGet}},
		}, nil
	}

	var fetch *FetchRange
	if raw := req.Header.Get("Range"); strings.TrimSpace(raw) != "" {
		br, err := ParseRange(raw)
		if err != nil {
			slog.Debug("rejecting range", "key", key, "err", err)
			return &Response{Status: http.StatusRequestedRangeNotSatisfiable, Header: http.Header{}}, nil
		}
		fr := br.FetchRange()
		fetch = &fr
	}

	obj, err := store.Get(ctx, key, fetch)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return &Response{Status: http.StatusNotFound, Header: http.Header{}}, nil
		case errors.Is(err, ErrRangeNotSatisfiable):
			return &Response{Status: http.StatusRequestedRangeNotSatisfiable, Header: http.Header{}}, nil
		default:
			return nil, fmt.Errorf("respond %s: %w", key, err)
		}
	}

	contentLength := obj.Size
	if obj.Range != nil {
		contentLength = obj.Range.Length
	}
	// The store may report a range covering the whole object.
	isPartial := obj.Range != nil && obj.Range.Length != obj.Size

	stored := obj.Metadata.Headers()
	if obj.ETag != "" {
		stored["ETag"] = QuoteETag(obj.ETag)
	}
	stored["Content-Length"] = strconv.FormatInt(contentLength, 10)

	layers := []map[string]string{
		{"Accept-Ranges": "bytes"},
		ov.AdditionalHeaders,
		stored,
		ov.headers(),
	}

	status := http.StatusOK
	if isPartial {
		status = http.StatusPartialContent
		layers = append(layers, map[string]string{
			"Content-Range": fmt.Sprintf("bytes %d-%d/%d", obj.Range.Offset, obj.Range.End(), obj.Size),
		})
	}

	header := mergeHeaders(layers...)
	if !isPartial {
		header.Del("Content-Range")
	}

	body := obj.Body
	if req.Method == http.MethodHead && body != nil {
		if closeErr := body.Close(); closeErr != nil {
			slog.Warn("failed to close object body", "key", key, "err", closeErr)
		}
		body = nil
	}

	return &Response{Status: status, Header: header, Body: body}, nil
}

func (ov Overrides) headers() map[string]string {
	h := make(map[string]string, 2)
	if ov.ContentDisposition != "" {
		h["Content-Disposition"] = ov.ContentDisposition
	}
	if ov.ContentType != "" {
		h["Content-Type"] = ov.ContentType
	}
	return h
}

// mergeHeaders folds layers left to right; later layers win on key collision.
func mergeHeaders(layers ...map[string]string) http.Header {
	h := make(http.Header)
	for _, layer := range layers {
		for k, v := range layer {
			h.Set(k, v)
		}
	}
	return h
}

// QuoteETag returns etag as a quoted entity tag, leaving already quoted and
// weak tags untouched.
func QuoteETag(etag string) string {
	if strings.HasPrefix(etag, `"`) || strings.HasPrefix(etag, `W/"`) {
		return etag
	}
	return `"` + etag + `"`
}
