package httpadapter

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type requestIDContextKey struct{}

type logFieldsContextKey struct{}

// logFields collects engine attributes a handler wants on the access log line.
type logFields struct {
	mu    sync.Mutex
	attrs []any
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}

// annotateRequest adds key/value pairs to the access log entry of r.
// It is a no-op outside accessLogMiddleware.
func annotateRequest(r *http.Request, keyvals ...any) {
	fields, ok := r.Context().Value(logFieldsContextKey{}).(*logFields)
	if !ok {
		return
	}
	fields.mu.Lock()
	fields.attrs = append(fields.attrs, keyvals...)
	fields.mu.Unlock()
}

// routeOperation names the engine operation behind a path: /v1/specs/compare -> specs.compare.
func routeOperation(path string) string {
	op, ok := strings.CutPrefix(path, "/v1/")
	if !ok {
		return strings.Trim(path, "/")
	}
	return strings.ReplaceAll(strings.Trim(op, "/"), "/", ".")
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}

		r = r.WithContext(context.WithValue(r.Context(), requestIDContextKey{}, requestID))
		w.Header().Set(requestIDHeader, requestID)

		next.ServeHTTP(w, r)
	})
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		fields := &logFields{}

		next.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), logFieldsContextKey{}, fields)))

		remoteAddr := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			remoteAddr = host
		}

		attrs := []any{
			"request_id", requestIDFromContext(r.Context()),
			"operation", routeOperation(r.URL.Path),
			"method", r.Method,
			"status", recorder.statusCode,
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes", recorder.bytesWritten,
			"remote_addr", remoteAddr,
		}
		fields.mu.Lock()
		attrs = append(attrs, fields.attrs...)
		fields.mu.Unlock()

		switch {
		case recorder.statusCode >= 500:
			slog.Error("http_request", attrs...)
		case recorder.statusCode >= 400:
			slog.Warn("http_request", attrs...)
		default:
			slog.Info("http_request", attrs...)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}
