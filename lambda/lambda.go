// Package lambda serves rangeserve responses from AWS Lambda behind an API
// Gateway HTTP API (payload format 2.0).
//
// Lambda proxy responses cannot stream, so bodies are read into memory and
// returned base64 encoded. Responses larger than MaxBodyBytes fail with 500;
// clients fetching large objects should use Range requests.
package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/sagarc03/rangeserve"
)

// DefaultMaxBodyBytes keeps the base64 encoded body under the 6 MB Lambda
// response payload limit.
const DefaultMaxBodyBytes = 4 << 20

var errBodyTooLarge = errors.New("response body exceeds lambda payload limit")

type Config struct {
	Overrides    rangeserve.Overrides
	MaxBodyBytes int64
}

type Adapter struct {
	store  rangeserve.ByteStore
	config Config
}

func NewAdapter(store rangeserve.ByteStore, cfg Config) *Adapter {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Adapter{store: store, config: cfg}
}

// Start hands control to the Lambda runtime. It does not return.
func (a *Adapter) Start() {
	awslambda.Start(a.Handle)
}

// Handle answers one API Gateway request.
func (a *Adapter) Handle(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := event.RequestContext.HTTP.Method
	// RawPath keeps percent escapes; net/http decodes them, so do the same.
	path, err := url.PathUnescape(event.RawPath)
	if err != nil {
		slog.Debug("undecodable path", "path", event.RawPath, "err", err)
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNotFound}, nil
	}
	key := strings.TrimPrefix(path, "/")

	header := make(http.Header, len(event.Headers))
	for k, v := range event.Headers {
		header.Set(k, v)
	}

	resp, err := rangeserve.Respond(ctx, rangeserve.Request{Method: method, Header: header}, a.store, key, a.config.Overrides)
	if err != nil {
		slog.Error("request error", "key", key, "error", err)
		return errorResponse(http.StatusInternalServerError, "internal_error", "Internal server error"), nil
	}

	out := events.APIGatewayV2HTTPResponse{
		StatusCode: resp.Status,
		Headers:    make(map[string]string, len(resp.Header)),
	}
	for k := range resp.Header {
		out.Headers[k] = resp.Header.Get(k)
	}

	if resp.Body == nil {
		return out, nil
	}

	body, err := readBody(resp.Body, a.config.MaxBodyBytes)
	if err != nil {
		slog.Error("read object body", "key", key, "error", err)
		return errorResponse(http.StatusInternalServerError, "internal_error", "Internal server error"), nil
	}

	out.Body = base64.StdEncoding.EncodeToString(body)
	out.IsBase64Encoded = true
	return out, nil
}

func readBody(rc io.ReadCloser, limit int64) ([]byte, error) {
	defer func() {
		if err := rc.Close(); err != nil {
			slog.Warn("failed to close object body", "err", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, errBodyTooLarge
	}
	return body, nil
}

func errorResponse(status int, code, message string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(map[string]string{"error": code, "message": message})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
