// Package http exposes a rangeserve.ByteStore over HTTP.
//
// Every request, whatever its method or path, is routed to a single handler
// that trims the leading slash to get the object key and hands the request to
// rangeserve.Respond. The returned status, headers and body are written as is,
// so GET and HEAD get 200 or 206 with Content-Range, a malformed or
// multi-range Range header gets 416, a missing key gets 404 and any other
// method gets 405 with "Allow: GET".
//
// # Features
//
//   - Single-range byte serving with suffix and open-ended ranges
//   - Caller-supplied response headers and Content-Type/Content-Disposition overrides
//   - Keys are the decoded URL path, passed through unchanged; stores decide
//     what a valid key is
//   - JSON error responses for unexpected store failures (500)
//   - Optional per-response bandwidth limit
//   - Request logging through log/slog and an optional metrics Recorder
//   - Configurable CORS support
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    Overrides: rangeserve.Overrides{
//	        AdditionalHeaders: map[string]string{"Cache-Control": "public, max-age=60"},
//	    },
//	    BandwidthLimit: 1 << 20,
//	}
//	handler := http.NewHandler(&handlerCfg, store)
//	http.ListenAndServe(":5708", handler.Router())
//
// The store parameter can be a *rangeserve.ObjectService backed by the SQL
// catalog and local files, or an *s3store.Store.
package http
