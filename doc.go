// Package rangeserve serves objects from a key-addressed byte store over
// HTTP GET and HEAD with single-range Range request support.
//
// The core is Respond, a transport-independent function that turns a
// request descriptor, a key and a ByteStore into a complete response:
// status, Accept-Ranges, ETag, Content-Length, Content-Range for partial
// content, and caller overrides for Content-Type and Content-Disposition.
//
// # Key Components
//
//   - Respond: builds the response for one request
//   - ParseRange: parses "bytes=a-b", "bytes=a-" and "bytes=-n"
//   - ByteStore: the read interface Respond fetches through
//   - ObjectService: a ByteStore backed by a metadata catalog (MetaDataRepo)
//     and file bytes (FileStorage)
//
// # Status Codes
//
//   - 200: full object
//   - 206: partial object, with Content-Range
//   - 404: key does not exist
//   - 405: method other than GET or HEAD, with Allow: GET
//   - 416: malformed or multi-range Range header, or a range starting
//     past the end of the object
//
// # Server Modes
//
// ObjectService resolves keys according to a ServerMode:
//
//   - ModeStore: exact keys or 404
//   - ModeStatic: index.html fallback for directories
//   - ModeSPA: /index.html for any missing key
//
// # Example Usage
//
//	service, err := rangeserve.NewObjectService(repo, storage, rangeserve.ServiceConfig{Mode: rangeserve.ModeStore})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := rangeserve.Respond(ctx, rangeserve.Request{Method: r.Method, Header: r.Header}, service, "file.txt", rangeserve.Overrides{})
//
// See the http package for the net/http adapter and the s3store package for
// an S3-compatible ByteStore.
package rangeserve
