package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdem(t *testing.T) Idem {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Idem{R: client, TTL: time.Minute}
}

func TestIdemRejectsReplay(t *testing.T) {
	idem := newTestIdem(t)
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	first.Header.Set("Idempotency-Key", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusCreated, rec.Code)

	replay := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	replay.Header.Set("Idempotency-Key", "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, replay)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestIdemReleasesKeyOnServerError(t *testing.T) {
	idem := newTestIdem(t)
	fail := true
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		r.Header.Set("Idempotency-Key", "retry-me")
		return r
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req())
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	fail = false
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req())
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestIdemPassesWithoutKey(t *testing.T) {
	idem := newTestIdem(t)
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	for range 3 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3, calls)
}
