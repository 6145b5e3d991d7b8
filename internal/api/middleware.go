package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"metaproxy/internal/gate"
	"metaproxy/internal/logger"
	"metaproxy/internal/models"
	"metaproxy/internal/ratelimit"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// HeaderRequestID carries the request id on requests and responses.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by requestIDMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestIDMiddleware reuses a well-formed incoming X-Request-ID or assigns a
// new one, and echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if parsed, err := uuid.Parse(id); err == nil {
			id = parsed.String()
		} else {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs every request with the client identification headers
// and stores a request-scoped logger in the context.
func loggingMiddleware(mode string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := models.ClientInfoFromRequest(r)
			log := slog.Default().With(
				"request_id", RequestIDFromContext(r.Context()),
				"client_id", client.ID,
			)

			log.Info("HTTP request",
				"mode", mode,
				"method", r.Method,
				"path", r.URL.Path,
				"version", client.Version,
				"remote_addr", r.RemoteAddr,
			)

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context(), log)))

			log.Debug("HTTP response",
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered", "error", err, "path", r.URL.Path)
				errorResp := models.NewErrorResponse("Internal server error", models.ErrorCodeInternalError)
				errorResp.RequestID = RequestIDFromContext(r.Context())
				writeJSON(w, http.StatusInternalServerError, errorResp)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// gateMiddleware applies the version gate. Requests answered here never reach
// the catalogs.
func gateMiddleware(g *gate.Gate) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := models.ClientInfoFromRequest(r)
			d := g.Evaluate(r.Context(), gate.Request{
				Version:  client.Version,
				ClientID: client.ID,
				Path:     r.URL.Path,
			})

			switch d.Action {
			case gate.ActionUpdateRequired:
				logger.FromContext(r.Context()).Info("Update required",
					"reason", d.Reason,
					"version", client.Version,
				)
				writeJSON(w, http.StatusOK, d.Payload)
				return
			case gate.ActionRateLimited:
				ratelimit.WriteDenied(w, client.ID, d.Limit)
				return
			case gate.ActionProceed:
				if d.Limit.Limit > 0 {
					ratelimit.SetHeaders(w, d.Limit)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
