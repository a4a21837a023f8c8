package logging

import (
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

// statusRecorder captures the status code a handler writes so the request
// log line can carry it.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.status = code
		sr.written = true
		sr.ResponseWriter.WriteHeader(code)
	}
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.WriteHeader(http.StatusOK)
	}
	return sr.ResponseWriter.Write(b)
}

// Middleware tags each request with an id and logs it on completion. An
// inbound X-Request-ID header is honored so editor clients can correlate
// retries; otherwise a fresh ULID is minted, same scheme as pending batch
// ids. The id is echoed in the response header and stored on the context
// for LoggerFromContext.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = ulid.Make().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := WithRequestID(r.Context(), requestID)

		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r.WithContext(ctx))

		HTTPRequestContext(ctx, r.Method, r.URL.Path, r.RemoteAddr, sr.status, time.Since(start))
	})
}
