package relay

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"offrecord/internal/domain"
	"offrecord/internal/metrics"
	"offrecord/internal/util/ratelimit"
)

// DefaultMaxQueue bounds the envelopes held per recipient.
const DefaultMaxQueue = 1024

// Server is the in-memory relay.
type Server struct {
	mu     sync.Mutex
	queues map[string][]domain.Envelope

	log      zerolog.Logger
	metrics  *metrics.Relay
	registry *prometheus.Registry
	limiter  *ratelimit.Limiter[string]
	maxQueue int
	now      func() time.Time
}

// NewServer returns an empty relay. registry and limiter may be nil; with a
// registry the server exports /metrics, with a limiter it throttles senders.
func NewServer(logger zerolog.Logger, registry *prometheus.Registry, limiter *ratelimit.Limiter[string]) *Server {
	var reg prometheus.Registerer
	if registry != nil {
		reg = registry
	}
	return &Server{
		queues:   make(map[string][]domain.Envelope),
		log:      logger.With().Str("component", "relay").Logger(),
		metrics:  metrics.NewRelay(reg),
		registry: registry,
		limiter:  limiter,
		maxQueue: DefaultMaxQueue,
		now:      time.Now,
	}
}

// Handler returns the HTTP API wrapped in an access log.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /msg/{user}", s.handleSend)
	mux.HandleFunc("GET /msg/{user}", s.handleFetch)
	mux.HandleFunc("POST /msg/{user}/ack", s.handleAck)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return s.accessLog(mux)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	user := r.PathValue("user")

	var env domain.Envelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&env); err != nil {
		http.Error(w, "bad envelope: "+err.Error(), http.StatusBadRequest)
		return
	}
	if env.To == "" {
		env.To = user
	}
	if env.To != user {
		http.Error(w, "recipient mismatch", http.StatusBadRequest)
		return
	}
	if !s.limiter.Allow(env.From, s.now()) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
		return
	}
	if env.Timestamp == 0 {
		env.Timestamp = s.now().Unix()
	}

	s.mu.Lock()
	if len(s.queues[user]) >= s.maxQueue {
		s.mu.Unlock()
		http.Error(w, "queue full", http.StatusInsufficientStorage)
		return
	}
	s.queues[user] = append(s.queues[user], env)
	s.mu.Unlock()

	s.metrics.Queued()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	s.mu.Lock()
	q := s.queues[user]
	if limit > 0 && limit < len(q) {
		q = q[:limit]
	}
	out := append([]domain.Envelope{}, q...)
	s.mu.Unlock()

	s.metrics.Delivered(len(out))
	writeJSON(w, out)
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	user := r.PathValue("user")

	var req ackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Count < 0 {
		http.Error(w, "bad ack", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	q := s.queues[user]
	n := req.Count
	if n > len(q) {
		n = len(q)
	}
	if n == len(q) {
		delete(s.queues, user)
	} else {
		s.queues[user] = append([]domain.Envelope(nil), q[n:]...)
	}
	s.mu.Unlock()

	s.metrics.Acked(n)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// accessLog records method, path, remote, status, bytes and duration.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
