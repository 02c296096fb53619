package http

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sagarc03/rangeserve"
)

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age" validate:"min=0"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// Overrides are applied to every object response.
	Overrides rangeserve.Overrides
	// BandwidthLimit caps each response body in bytes per second. Zero
	// disables throttling.
	BandwidthLimit int64
	// Metrics receives one observation per request. Nil disables it.
	Metrics Recorder
}

// Handler serves objects from a ByteStore over HTTP.
type Handler struct {
	config HandlerConfig
	store  rangeserve.ByteStore
}

// NewHandler creates a new Handler with the given configuration and store.
func NewHandler(config *HandlerConfig, store rangeserve.ByteStore) *Handler {
	return &Handler{
		config: *config,
		store:  store,
	}
}

// Router returns an http.Handler that sends every method on every path to
// the object handler. Method filtering happens in rangeserve.Respond so
// unsupported methods get 405 with an Allow header.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(h.config.Metrics))

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.HandleFunc("/*", h.handleObject)
	// chi rejects methods it does not know before routing
	r.MethodNotAllowed(h.handleObject)

	return r
}

func (h *Handler) handleObject(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")

	req := rangeserve.Request{Method: r.Method, Header: r.Header}

	resp, err := rangeserve.Respond(r.Context(), req, h.store, key, h.config.Overrides)
	if err != nil {
		HandleError(w, err)
		return
	}

	h.writeResponse(w, r, resp)
}

func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, resp *rangeserve.Response) {
	for k, vs := range resp.Header {
		w.Header()[k] = vs
	}
	w.WriteHeader(resp.Status)

	if resp.Body == nil {
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "path", r.URL.Path, "err", err)
		}
	}()

	var body io.Reader = resp.Body
	if h.config.BandwidthLimit > 0 {
		body = NewThrottledReader(r.Context(), resp.Body, h.config.BandwidthLimit)
	}

	if _, err := io.Copy(w, body); err != nil {
		slog.Debug("response body copy interrupted", "path", r.URL.Path, "err", err)
	}
}
