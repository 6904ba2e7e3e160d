package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Cypherspark/sms-relay/internal/core"
	"github.com/Cypherspark/sms-relay/internal/metrics"
	"github.com/Cypherspark/sms-relay/internal/provider"
)

const SendPath = "/api/send-sms"

type Server struct {
	Relay        *core.Relay
	Log          zerolog.Logger
	MaxBodyBytes int64
	CORSOrigins  []string
}

func NewServer(relay *core.Relay, log zerolog.Logger) *Server {
	return &Server{Relay: relay, Log: log, MaxBodyBytes: 1 << 20}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer, instrument)
	if len(s.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.CORSOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	s.mountHealth(r)
	s.mountMetrics(r)
	s.mountDocs(r)

	// Method checking happens in the handler so every verb gets the same
	// JSON 405 body.
	r.HandleFunc(SendPath, s.sendSMS)
	r.HandleFunc("/", s.sendSMS)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) sendSMS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		metrics.RelayRequests.WithLabelValues("method_not_allowed").Inc()
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.RelayRequests.WithLabelValues("too_large").Inc()
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}
		// An unreadable body is treated like an empty one.
		body = nil
	}

	req, err := core.ParseSendRequest(body)
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		metrics.RelayRequests.WithLabelValues("invalid_" + verr.Field).Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message})
		return
	}

	results, err := s.Relay.Send(r.Context(), req)
	if err != nil {
		s.writeSendError(w, r, err)
		return
	}

	metrics.RelayRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "results": results})
}

func (s *Server) writeSendError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrProviderNotConfigured) {
		metrics.RelayRequests.WithLabelValues("not_configured").Inc()
		s.Log.Error().Str("request_id", middleware.GetReqID(r.Context())).Msg("sms provider credentials missing")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": core.ErrProviderNotConfigured.Error()})
		return
	}

	metrics.RelayRequests.WithLabelValues("provider_error").Inc()
	ev := s.Log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context()))
	var se *core.SendError
	if errors.As(err, &se) {
		// Recipients before the failure already have the message; the caller
		// is not told, so at least leave a trail here.
		delivered := make([]string, 0, len(se.Delivered))
		for _, o := range se.Delivered {
			delivered = append(delivered, o.SID)
		}
		if se.Index >= 0 {
			ev = ev.Int("failed_index", se.Index).Str("failed_to", se.To)
		}
		ev = ev.Int("already_sent", len(se.Delivered)).Strs("already_sent_sids", delivered)
	}
	ev.Msg("sms provider send error")

	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "Failed to send SMS",
		"details": errorDetails(err),
	})
}

// errorDetails prefers the provider's own message over our wrapping.
func errorDetails(err error) string {
	var perr *provider.Error
	if errors.As(err, &perr) {
		return perr.Message
	}
	var se *core.SendError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	return err.Error()
}
