package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/rsms-admin/internal/session"
	"github.com/frahmantamala/rsms-admin/internal/transport"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

const filtered = "[FILTERED]"

// secretFields are the account body keys that never reach the log. Keys are
// matched exactly, at any depth.
var secretFields = map[string]bool{
	"password":     true,
	"new_password": true,
	"token":        true,
}

// LoggingMiddleware logs every admin API call twice: the request with its
// account body redacted, and the response with its envelope outcome. The
// per-request logger carries trace_id, method, path and actor and is stored
// in the context for the handlers below.
func LoggingMiddleware(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lg := requestLogger(base, r)
			ctx := logger.Into(r.Context(), lg)

			attrs := []any{"query", r.URL.RawQuery, "remote_addr", r.RemoteAddr, "user_agent", r.UserAgent()}
			if r.Body != nil {
				body, _ := io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(body))
				if len(body) > 0 {
					attrs = append(attrs, "body", redactBody(body))
				}
			}
			lg.Info("admin request", attrs...)

			rec := &envelopeRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			level := slog.LevelInfo
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case rec.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			attrs = []any{
				"status_code", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", rec.body.Len(),
			}
			if env, ok := rec.envelope(); ok {
				attrs = append(attrs, "success", env.Success, "message", env.Message)
			}
			lg.Log(ctx, level, "admin response", attrs...)
		})
	}
}

func requestLogger(base *slog.Logger, r *http.Request) *slog.Logger {
	fields := []any{
		"trace_id", TraceIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	}
	if actor := session.Subject(transport.BearerToken(r)); actor != "" {
		fields = append(fields, "actor", actor)
	}
	return base.With(fields...)
}

type envelopeRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rw *envelopeRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *envelopeRecorder) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

type outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// envelope decodes the success flag and message of the response body.
func (rw *envelopeRecorder) envelope() (outcome, bool) {
	var env outcome
	if err := json.Unmarshal(rw.body.Bytes(), &env); err != nil {
		return outcome{}, false
	}
	return env, true
}

// redactBody renders a JSON request body with secretFields replaced. Other
// bodies are logged by size only.
func redactBody(body []byte) string {
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Sprintf("[%d bytes, not JSON]", len(body))
	}
	out, err := json.Marshal(redact(data))
	if err != nil {
		return filtered
	}
	return string(out)
}

func redact(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if secretFields[key] {
				out[key] = filtered
				continue
			}
			out[key] = redact(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = redact(item)
		}
		return out
	default:
		return v
	}
}
