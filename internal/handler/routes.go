package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bibbank/qrpay/internal/middleware"
	"github.com/bibbank/qrpay/pkg/auth"
	"github.com/bibbank/qrpay/pkg/lzma"
	"github.com/bibbank/qrpay/pkg/observability"
	"github.com/bibbank/qrpay/pkg/render"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// Handler serves the QR payment API.
type Handler struct {
	compressor lzma.Compressor
	metrics    *observability.Metrics
	render     render.Options
	ready      func(context.Context) error
	logger     *slog.Logger
}

// Options configures a Handler. Zero values select the native compressor,
// no metrics, default image options and an always-ready probe.
type Options struct {
	Compressor lzma.Compressor
	Metrics    *observability.Metrics
	Render     render.Options
	Ready      func(context.Context) error
	Logger     *slog.Logger
}

// New creates a Handler. The compressor is wrapped with metrics
// instrumentation when metrics are enabled.
func New(opts Options) *Handler {
	c := opts.Compressor
	if c == nil {
		c = lzma.Native{}
	}
	if opts.Render.Size == 0 {
		opts.Render = render.DefaultOptions()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{
		compressor: opts.Metrics.InstrumentCompressor(c),
		metrics:    opts.Metrics,
		render:     opts.Render,
		ready:      opts.Ready,
		logger:     opts.Logger,
	}
}

// RegisterRoutes registers all REST API routes on the given ServeMux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Health
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("GET /readyz", h.readyz)
	mux.Handle("GET /metrics", h.metrics.Handler())

	// QR payloads
	mux.HandleFunc("POST /api/v1/qr/{standard}", middleware.RequireScope(auth.ScopeEncode, h.Encode))
	mux.HandleFunc("POST /api/v1/qr/{standard}/png", middleware.RequireScope(auth.ScopeEncode, h.EncodePNG))
	mux.HandleFunc("POST /api/v1/qr/epc/pain001", middleware.RequireScope(auth.ScopeEncode, h.EPCCreditTransfer))
	mux.HandleFunc("POST /api/v1/qr/svk/decode", middleware.RequireScope(auth.ScopeDecode, h.DecodeSVK))
}

func healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.Warn("not ready", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// readJSON reads and unmarshals a JSON request body into the provided value.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return fmt.Errorf("request body is empty")
	}
	return json.Unmarshal(body, v)
}

// writeJSON marshals the value as JSON and writes it to the response.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, map[string]string{"error": msg})
}
