package middleware

import (
	"bytes"
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cassiomorais/cardgateway/internal/redis"
)

const maxIdempotencyBodySize = 1 << 20

// ResponseCache is the storage behind the idempotency middleware.
// Satisfied by *redis.IdempotencyCache.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*redis.Entry, error)
	Set(ctx context.Context, key string, entry redis.Entry) error
}

// Idempotency replays the cached response for a repeated Idempotency-Key.
// Cache failures degrade to normal processing; the cache is an
// optimization, never a gate.
func Idempotency(cache ResponseCache, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			entry, err := cache.Get(r.Context(), key)
			if err != nil {
				logger.Warn().Err(err).Msg("idempotency cache lookup failed")
			}
			if entry != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotency-Replayed", "true")
				w.WriteHeader(entry.Status)
				w.Write(entry.Body)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			// Server errors are not cached so the client can retry them.
			if rec.statusCode >= 200 && rec.statusCode < 500 && !rec.bodyTruncated {
				if err := cache.Set(r.Context(), key, redis.Entry{
					Status: rec.statusCode,
					Body:   rec.body.Bytes(),
				}); err != nil {
					logger.Warn().Err(err).Msg("idempotency cache store failed")
				}
			}
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	body          *bytes.Buffer
	bodyTruncated bool
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.bodyTruncated {
		if r.body.Len()+len(b) > maxIdempotencyBodySize {
			r.bodyTruncated = true
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}
