package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	limiter "github.com/ulule/limiter/v3"
	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memory "github.com/ulule/limiter/v3/drivers/store/memory"
	"github.com/uptrace/bunrouter"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// newLimiter creates the limiter middleware for a formatted rate such as "100-S".
func newLimiter(period string) (*stdlib.Middleware, error) {
	rate, err := limiter.NewRateFromFormatted(period)
	if err != nil {
		return nil, fmt.Errorf("invalid limiter rate %q: %w", period, err)
	}
	store := memory.NewStore()
	instance := limiter.New(store, rate)
	return stdlib.NewMiddleware(instance, stdlib.WithLimitReachedHandler(limitReached)), nil
}

func limitReached(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "rate limit exceeded"})
}

// corsMiddleware allows every origin, method and header. Preflight requests
// are answered here so they never reach the router.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
			w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
		} else {
			w.Header().Set("Access-Control-Allow-Headers", "*")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bodyLimitMiddleware caps request bodies on the writer the net/http server
// handed out, so an oversized upload also closes the connection after the reply.
func bodyLimitMiddleware(next http.Handler, limit int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}

// responseWriter is a minimal wrapper for http.ResponseWriter that allows the
// written HTTP status code and body size to be captured for logging.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriter) Write(data []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(data)
	rw.bytes += int64(n)
	return n, err
}

// bunrouter request id middleware, reuses a client supplied id when present
func (s *Server) requestIDMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		id := req.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			req.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		return next(w, req)
	}
}

// bunrouter logging middleware implementation
func (s *Server) loggingMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		start := time.Now()
		wrapped := wrapResponseWriter(w)
		err := next(wrapped, req)

		uri, uerr := url.QueryUnescape(req.RequestURI)
		if uerr != nil {
			uri = req.RequestURI
		}
		s.log.Info(fmt.Sprintf("%s %s %d %s %s %s [data: %d in %d out] [req: %v]",
			req.Header.Get(RequestIDHeader), req.Proto, wrapped.Status(), req.RemoteAddr,
			req.Method, uri, req.ContentLength, wrapped.bytes, time.Since(start)))
		return err
	}
}

// bunrouter limiter middleware implementation, based on
// https://github.com/ulule/limiter/blob/master/drivers/middleware/stdlib/middleware.go#L36
func (s *Server) limitMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		r := req.Request
		key := s.limiter.KeyGetter(r)
		if s.limiter.ExcludedKey != nil && s.limiter.ExcludedKey(key) {
			return next(w, req)
		}

		context, err := s.limiter.Limiter.Get(r.Context(), key)
		if err != nil {
			s.limiter.OnError(w, r, err)
			return err
		}

		w.Header().Add("X-RateLimit-Limit", strconv.FormatInt(context.Limit, 10))
		w.Header().Add("X-RateLimit-Remaining", strconv.FormatInt(context.Remaining, 10))
		w.Header().Add("X-RateLimit-Reset", strconv.FormatInt(context.Reset, 10))

		if context.Reached {
			s.limiter.OnLimitReached(w, r)
			return nil
		}
		return next(w, req)
	}
}
