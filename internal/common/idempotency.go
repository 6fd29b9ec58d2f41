package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem enforces Idempotency-Key semantics for write endpoints using Redis.
// Checkout and discount application are the double-submit hot spots: a replay
// carrying the same key inside the TTL window is rejected with 409.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

// Middleware rejects duplicate requests carrying the same Idempotency-Key.
// Keys are released when the handler fails server-side, so a client may retry
// a 5xx with the same key.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}

		sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + " " + header))
		key := "idem:" + hex.EncodeToString(sum[:16])

		acquired, err := i.R.SetNX(r.Context(), key, "1", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}
		if !acquired {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}

		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.status >= http.StatusInternalServerError {
			_ = i.R.Del(context.Background(), key).Err()
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
