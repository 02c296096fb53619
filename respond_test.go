package rangeserve_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/rangeserve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockByteStore is a mock implementation of rangeserve.ByteStore
type MockByteStore struct {
	mock.Mock
}

func (m *MockByteStore) Get(ctx context.Context, key string, rng *rangeserve.FetchRange) (rangeserve.StoredObject, error) {
	args := m.Called(ctx, key, rng)
	return args.Get(0).(rangeserve.StoredObject), args.Error(1)
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

// fileTxt is a 100 byte object; served windows are cut from it.
var fileTxt = strings.Repeat("0123456789", 10)

func storedFileTxt(served *rangeserve.ServedRange) rangeserve.StoredObject {
	content := fileTxt
	if served != nil {
		content = fileTxt[served.Offset : served.Offset+served.Length]
	}
	return rangeserve.StoredObject{
		Size:     int64(len(fileTxt)),
		ETag:     "abc123",
		Metadata: rangeserve.HTTPMetadata{ContentType: "text/plain"},
		Range:    served,
		Body:     &trackingBody{Reader: strings.NewReader(content)},
	}
}

func getRequest(method, rangeHeader string) rangeserve.Request {
	h := http.Header{}
	if rangeHeader != "" {
		h.Set("Range", rangeHeader)
	}
	return rangeserve.Request{Method: method, Header: h}
}

func readBody(t *testing.T, resp *rangeserve.Response) string {
	t.Helper()
	require.NotNil(t, resp.Body)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestRespond_BoundedRange(t *testing.T) {
	store := new(MockByteStore)
	served := &rangeserve.ServedRange{Offset: 10, Length: 10}
	store.On("Get", mock.Anything, "file.txt", &rangeserve.FetchRange{Offset: 10, Length: 10}).
		Return(storedFileTxt(served), nil)

	resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, "bytes=10-19"), store, "file.txt", rangeserve.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusPartialContent, resp.Status)
	assert.Equal(t, "10", resp.Header.Get("Content-Length"))
	assert.Equal(t, "bytes 10-19/100", resp.Header.Get("Content-Range"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
	assert.Equal(t, `"abc123"`, resp.Header.Get("ETag"))
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "0123456789", readBody(t, resp))

	store.AssertExpectations(t)
}

func TestRespond_OpenEndedRange(t *testing.T) {
	store := new(MockByteStore)
	served := &rangeserve.ServedRange{Offset: 90, Length: 10}
	store.On("Get", mock.Anything, "file.txt", &rangeserve.FetchRange{Offset: 90}).
		Return(storedFileTxt(served), nil)

	resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, "bytes=90-"), store, "file.txt", rangeserve.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusPartialContent, resp.Status)
	assert.Equal(t, "10", resp.Header.Get("Content-Length"))
	assert.Equal(t, "bytes 90-99/100", resp.Header.Get("Content-Range"))
}

func TestRespond_SuffixRange(t *testing.T) {
	store := new(MockByteStore)
	served := &rangeserve.ServedRange{Offset: 95, Length: 5}
	store.On("Get", mock.Anything, "file.txt", &rangeserve.FetchRange{Suffix: 5}).
		Return(storedFileTxt(served), nil)

	resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, "bytes=-5"), store, "file.txt", rangeserve.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusPartialContent, resp.Status)
	assert.Equal(t, "5", resp.Header.Get("Content-Length"))
	assert.Equal(t, "bytes 95-99/100", resp.Header.Get("Content-Range"))
	assert.Equal(t, "56789", readBody(t, resp))
}

func TestRespond_NoRange(t *testing.T) {
	store := new(MockByteStore)
	store.On("Get", mock.Anything, "file.txt", (*rangeserve.FetchRange)(nil)).
		Return(storedFileTxt(nil), nil)

	resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, ""), store, "file.txt", rangeserve.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "100", resp.Header.Get("Content-Length"))
	assert.Empty(t, resp.Header.Values("Content-Range"))
	assert.Equal(t, fileTxt, readBody(t, resp))
}

func TestRespond_RangeCoveringWholeObjectIsNotPartial(t *testing.T) {
	store := new(MockByteStore)
	served := &rangeserve.ServedRange{Offset: 0, Length: 100}
	store.On("Get", mock.Anything, "file.txt", (*rangeserve.FetchRange)(nil)).
		Return(storedFileTxt(served), nil)

	resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, ""), store, "file.txt", rangeserve.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "100", resp.Header.Get("Content-Length"))
	assert.Empty(t, resp.Header.Values("Content-Range"))
}

func TestRespond_StoreIgnoresRange(t *testing.T) {
	store := new(MockByteStore)
	store.On("Get", mock.Anything, "file.txt", &rangeserve.FetchRange{Offset: 10, Length: 10}).
		Return(storedFileTxt(nil), nil)

	resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, "bytes=10-19"), store, "file.txt", rangeserve.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "100", resp.Header.Get("Content-Length"))
	assert.Empty(t, resp.Header.Values("Content-Range"))
}

func TestRespond_MalformedRange(t *testing.T) {
	for _, header := range []string{"bytes=abc", "bytes=0-1,4-5", "bytes=9-3", "pages=1-2"} {
		t.Run(header, func(t *testing.T) {
			store := new(MockByteStore)

			resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, header), store, "missing.txt", rangeserve.Overrides{})
			require.NoError(t, err)

			assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.Status)
			assert.Nil(t, resp.Body)
			assert.Empty(t, resp.Header.Values("Content-Range"))

			store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRespond_EmptyRangeHeaderIsIgnored(t *testing.T) {
	store := new(MockByteStore)
	store.On("Get", mock.Anything, "file.txt", (*rangeserve.FetchRange)(nil)).
		Return(storedFileTxt(nil), nil)

	req := rangeserve.Request{Method: http.MethodGet, Header: http.Header{"Range": {"  "}}}
	resp, err := rangeserve.Respond(context.Background(), req, store, "file.txt", rangeserve.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestRespond_RangeHeaderLookupIsCaseInsensitive(t *testing.T) {
	store := new(MockByteStore)
	served := &rangeserve.ServedRange{Offset: 0, Length: 1}
	store.On("Get", mock.Anything, "file.txt", &rangeserve.FetchRange{Offset: 0, Length: 1}).
		Return(storedFileTxt(served), nil)

	h := http.Header{}
	h.Set("range", "bytes=0-0")
	resp, err := rangeserve.Respond(context.Background(), rangeserve.Request{Method: http.MethodGet, Header: h}, store, "file.txt", rangeserve.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusPartialContent, resp.Status)
}

func TestRespond_UnsatisfiableOffset(t *testing.T) {
	store := new(MockByteStore)
	store.On("Get", mock.Anything, "file.txt", &rangeserve.FetchRange{Offset: 500}).
		Return(rangeserve.StoredObject{}, rangeserve.ErrRangeNotSatisfiable)

	resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, "bytes=500-"), store, "file.txt", rangeserve.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.Status)
	assert.Empty(t, resp.Header.Values("Content-Range"))
}

func TestRespond_NotFound(t *testing.T) {
	store := new(MockByteStore)
	store.On("Get", mock.Anything, "missing.txt", (*rangeserve.FetchRange)(nil)).
		Return(rangeserve.StoredObject{}, rangeserve.ErrNotFound)

	resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, ""), store, "missing.txt", rangeserve.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Nil(t, resp.Body)
}

func TestRespond_StoreError(t *testing.T) {
	store := new(MockByteStore)
	storeErr := errors.New("connection reset")
	store.On("Get", mock.Anything, "file.txt", (*rangeserve.FetchRange)(nil)).
		Return(rangeserve.StoredObject{}, storeErr)

	resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, ""), store, "file.txt", rangeserve.Overrides{})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, storeErr)
}

func TestRespond_MethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			store := new(MockByteStore)

			resp, err := rangeserve.Respond(context.Background(), getRequest(method, "bytes=abc"), store, "file.txt", rangeserve.Overrides{})
			require.NoError(t, err)

			assert.Equal(t, http.StatusMethodNotAllowed, resp.Status)
			assert.Equal(t, "GET", resp.Header.Get("Allow"))
			assert.Nil(t, resp.Body)

			store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRespond_HeadHasNoBody(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		store := new(MockByteStore)
		obj := storedFileTxt(nil)
		store.On("Get", mock.Anything, "file.txt", (*rangeserve.FetchRange)(nil)).Return(obj, nil)

		resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodHead, ""), store, "file.txt", rangeserve.Overrides{})
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, "100", resp.Header.Get("Content-Length"))
		assert.Nil(t, resp.Body)
		assert.True(t, obj.Body.(*trackingBody).closed)
	})

	t.Run("partial", func(t *testing.T) {
		store := new(MockByteStore)
		served := &rangeserve.ServedRange{Offset: 10, Length: 10}
		store.On("Get", mock.Anything, "file.txt", &rangeserve.FetchRange{Offset: 10, Length: 10}).
			Return(storedFileTxt(served), nil)

		resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodHead, "bytes=10-19"), store, "file.txt", rangeserve.Overrides{})
		require.NoError(t, err)

		assert.Equal(t, http.StatusPartialContent, resp.Status)
		assert.Equal(t, "bytes 10-19/100", resp.Header.Get("Content-Range"))
		assert.Nil(t, resp.Body)
	})

	t.Run("not found", func(t *testing.T) {
		store := new(MockByteStore)
		store.On("Get", mock.Anything, "missing.txt", (*rangeserve.FetchRange)(nil)).
			Return(rangeserve.StoredObject{}, rangeserve.ErrNotFound)

		resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodHead, ""), store, "missing.txt", rangeserve.Overrides{})
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.Status)
		assert.Nil(t, resp.Body)
	})
}

func TestRespond_HeaderPrecedence(t *testing.T) {
	store := new(MockByteStore)
	obj := storedFileTxt(&rangeserve.ServedRange{Offset: 0, Length: 10})
	obj.Metadata = rangeserve.HTTPMetadata{
		ContentType:        "text/plain",
		ContentDisposition: "inline",
		CacheControl:       "max-age=60",
		Expires:            time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	store.On("Get", mock.Anything, "file.txt", &rangeserve.FetchRange{Offset: 0, Length: 10}).Return(obj, nil)

	ov := rangeserve.Overrides{
		AdditionalHeaders: map[string]string{
			"access-control-allow-origin": "*",
			"Cache-Control":               "no-store",
			"Content-Length":              "999",
			"Accept-Ranges":               "none",
			"Content-Range":               "bytes 0-0/1",
		},
		ContentDisposition: `attachment; filename="file.txt"`,
		ContentType:        "application/x-custom",
	}

	resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, "bytes=0-9"), store, "file.txt", ov)
	require.NoError(t, err)

	// additional headers sit above the static layer
	assert.Equal(t, "none", resp.Header.Get("Accept-Ranges"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	// stored metadata sits above additional headers
	assert.Equal(t, "max-age=60", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "10", resp.Header.Get("Content-Length"))
	assert.Equal(t, "Wed, 02 Jan 2030 03:04:05 GMT", resp.Header.Get("Expires"))
	// overrides sit above stored metadata
	assert.Equal(t, "application/x-custom", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="file.txt"`, resp.Header.Get("Content-Disposition"))
	// computed Content-Range sits on top
	assert.Equal(t, "bytes 0-9/100", resp.Header.Get("Content-Range"))
}

func TestRespond_AdditionalContentRangeDroppedOnFullResponse(t *testing.T) {
	store := new(MockByteStore)
	store.On("Get", mock.Anything, "file.txt", (*rangeserve.FetchRange)(nil)).Return(storedFileTxt(nil), nil)

	ov := rangeserve.Overrides{AdditionalHeaders: map[string]string{"Content-Range": "bytes 0-0/1"}}
	resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, ""), store, "file.txt", ov)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, resp.Header.Values("Content-Range"))
}

func TestRespond_StoredValuesUsedWithoutOverrides(t *testing.T) {
	store := new(MockByteStore)
	obj := storedFileTxt(nil)
	obj.Metadata.ContentDisposition = "inline"
	store.On("Get", mock.Anything, "file.txt", (*rangeserve.FetchRange)(nil)).Return(obj, nil)

	resp, err := rangeserve.Respond(context.Background(), getRequest(http.MethodGet, ""), store, "file.txt", rangeserve.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "inline", resp.Header.Get("Content-Disposition"))
}

func TestQuoteETag(t *testing.T) {
	assert.Equal(t, `"abc"`, rangeserve.QuoteETag("abc"))
	assert.Equal(t, `"abc"`, rangeserve.QuoteETag(`"abc"`))
	assert.Equal(t, `W/"abc"`, rangeserve.QuoteETag(`W/"abc"`))
}
