package routes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"circloth_server/logger"
	"circloth_server/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades through the wrapper
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// Logging logs every request with its status and duration
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}

// ActionLimiter throttles like/pass submissions per user
type ActionLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*userLimiter
}

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewActionLimiter allows perSecond actions per user with the given burst
func NewActionLimiter(perSecond float64, burst int) *ActionLimiter {
	return &ActionLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*userLimiter),
	}
}

// Allow reports whether userID may submit another action now
func (l *ActionLimiter) Allow(userID string) bool {
	now := l.now()
	l.mu.Lock()
	ul, ok := l.limiters[userID]
	if !ok {
		ul = &userLimiter{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = ul
	}
	ul.lastSeen = now
	l.mu.Unlock()
	return ul.lim.AllowN(now, 1)
}

// Prune forgets users with no action for idle and returns how many went.
// A forgotten user starts again with a full burst.
func (l *ActionLimiter) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, ul := range l.limiters {
		if ul.lastSeen.Before(cutoff) {
			delete(l.limiters, id)
			removed++
		}
	}
	return removed
}

// Tracked returns the number of users currently held
func (l *ActionLimiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// RunCleanup prunes idle users every interval until ctx is done
func (l *ActionLimiter) RunCleanup(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Prune(idle); n > 0 {
				logger.Debug("rate limiter pruned", zap.Int("removed", n), zap.Int("tracked", l.Tracked()))
			}
		}
	}
}

// Middleware rejects requests with 429 once the user_id in the JSON body has
// exhausted its budget. The body is restored for the next handler.
func (l *ActionLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Invalid request payload", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var request struct {
			UserID string `json:"user_id"`
		}
		if json.Unmarshal(body, &request) == nil && request.UserID != "" && !l.Allow(request.UserID) {
			metrics.RateLimited.Inc()
			logger.Warn("action rate limited", zap.String("userId", request.UserID))
			http.Error(w, "Too many actions, slow down", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
