package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Checker probes the storefront's backing dependencies.
type Checker interface {
	CheckPostgres(ctx context.Context, timeout time.Duration) error
	CheckRedis(ctx context.Context, timeout time.Duration) error
}

// Handler serves liveness and readiness probes.
type Handler struct {
	Checker        Checker
	PostgresTimeout time.Duration
	RedisTimeout   time.Duration
}

// Live reports that the process is up.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports whether Postgres and Redis answer within their probe budgets.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()
	pgStatus := "ok"
	if err := h.Checker.CheckPostgres(ctx, h.postgresTimeout()); err != nil {
		pgStatus = err.Error()
	}
	redisStatus := "ok"
	if err := h.Checker.CheckRedis(ctx, h.redisTimeout()); err != nil {
		redisStatus = err.Error()
	}
	status := map[string]string{
		"postgres": pgStatus,
		"redis":    redisStatus,
	}
	w.Header().Set("Content-Type", "application/json")
	if pgStatus != "ok" || redisStatus != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) postgresTimeout() time.Duration {
	if h.PostgresTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.PostgresTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
