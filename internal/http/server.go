// Package http exposes the tracker as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"hobbytrack/internal/cache"
	"hobbytrack/internal/storage"
)

// Options tune the API layer; zero values fall back to defaults.
type Options struct {
	RateLimitPerMinute int
	CacheTTL           time.Duration
	CacheSize          int
}

func (o Options) withDefaults() Options {
	if o.RateLimitPerMinute <= 0 {
		o.RateLimitPerMinute = 60
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 100
	}
	return o
}

type Server struct {
	http.Server
	repo        *storage.SQLiteRepository
	rateLimiter *rateLimiter

	// Aggregate reads are cached and invalidated on every mutation that
	// could change them.
	statsCache   *cache.LRUCache[statsPayload]
	summaryCache *cache.LRUCache[[]summaryEntry]

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, repo *storage.SQLiteRepository, opts Options) *Server {
	opts = opts.withDefaults()
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		repo:         repo,
		rateLimiter:  newRateLimiter(opts.RateLimitPerMinute),
		statsCache:   cache.NewLRUCache[statsPayload](opts.CacheSize, opts.CacheTTL),
		summaryCache: cache.NewLRUCache[[]summaryEntry](1, opts.CacheTTL),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/hobbies", s.withMiddleware(s.handleListHobbies))
	mux.HandleFunc("POST /api/hobbies", s.withMiddleware(s.handleCreateHobby))
	mux.HandleFunc("PUT /api/hobbies/{id}", s.withMiddleware(s.handleUpdateHobby))
	mux.HandleFunc("DELETE /api/hobbies/{id}", s.withMiddleware(s.handleDeleteHobby))
	mux.HandleFunc("GET /api/hobbies/{id}/stats", s.withMiddleware(s.handleHobbyStats))
	mux.HandleFunc("GET /api/hobbies/{id}/chart-data", s.withMiddleware(s.handleChartData))

	mux.HandleFunc("GET /api/expenses", s.withMiddleware(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.withMiddleware(s.handleCreateExpense))
	mux.HandleFunc("GET /api/activities", s.withMiddleware(s.handleListActivities))
	mux.HandleFunc("POST /api/activities", s.withMiddleware(s.handleCreateActivity))

	mux.HandleFunc("GET /api/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("GET /api/export", s.withMiddleware(s.handleExport))
	mux.HandleFunc("POST /api/import", s.withMiddleware(s.handleImport))

	return s
}

// Shutdown stops the rate limiter's cleanup goroutine before the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting on mutations, and
// request logging with a per-request id.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type ctxKeyRequestID struct{}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.ListHobbies(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// cache invalidation

func statsKey(hobbyID int64) string {
	return "stats:" + strconv.FormatInt(hobbyID, 10)
}

func (s *Server) invalidateHobby(hobbyID int64) {
	s.statsCache.Delete(statsKey(hobbyID))
	s.summaryCache.Purge()
}

func (s *Server) invalidateAll() {
	s.statsCache.Purge()
	s.summaryCache.Purge()
}

// rate limiter

type rateLimiter struct {
	mu          sync.Mutex
	perMinute   int
	clients     map[string]*clientInfo
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		perMinute:   perMinute,
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.lastRequest) > time.Minute {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}
	client.requests++
	client.lastRequest = now
	return client.requests <= rl.perMinute
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}
