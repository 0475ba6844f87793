package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/tartampluch/go-sambat/internal/config"
	"github.com/tartampluch/go-sambat/internal/i18n"
	"golang.org/x/time/rate"
)

// cacheItem stores the rendered calendar and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// Options tunes the optional parts of the server.
type Options struct {
	// RateLimit bounds the /api routes. A non-positive rate disables limiting.
	RateLimit config.RateLimit

	// MetricsEnabled exposes the Prometheus registry on /metrics.
	MetricsEnabled bool
}

// CalendarServer serves the IPO feed and the date conversion API.
type CalendarServer struct {
	// cache uses atomic.Pointer for lock-free reads.
	// The feed is read frequently by calendar clients but only replaced on sync,
	// so readers never contend on the hot path.
	cache atomic.Pointer[cacheItem]
	Port  string

	opts        Options
	limiter     *rate.Limiter
	metrics     *metrics
	translators map[string]*i18n.Translator
}

// NewCalendarServer creates a new instance of the server.
func NewCalendarServer(port string, opts Options) *CalendarServer {
	limit, burst := rate.Inf, opts.RateLimit.Burst
	if opts.RateLimit.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RateLimit.RequestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}

	s := &CalendarServer{
		Port:        port,
		opts:        opts,
		limiter:     rate.NewLimiter(limit, burst),
		metrics:     newMetrics(),
		translators: make(map[string]*i18n.Translator, len(config.SupportedLanguages)),
	}
	for _, lang := range config.SupportedLanguages {
		s.translators[lang] = i18n.New(lang)
	}
	return s
}

// Handler builds the routing table.
func (s *CalendarServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.metrics.instrument)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, config.HTTPMsgNotFound, http.StatusNotFound)
	})

	r.HandleFunc(config.RouteFeed, s.handleCalendarRequest)
	if s.opts.MetricsEnabled {
		r.Handle(config.RouteMetrics, s.metrics.handler()).Methods(http.MethodGet)
	}

	api := r.NewRoute().Subrouter()
	api.Use(s.rateLimit)
	api.HandleFunc(config.RouteConvertAD, s.handleToBS).Methods(http.MethodGet)
	api.HandleFunc(config.RouteConvertBS, s.handleToAD).Methods(http.MethodGet)
	api.HandleFunc(config.RouteMonths, s.handleMonths).Methods(http.MethodGet)

	return r
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *CalendarServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update atomically replaces the served feed.
func (s *CalendarServer) Update(data []byte) {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	item := &cacheItem{
		data:         data,
		etag:         etag,
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	}

	// Concurrent readers see either the old or the new item, never a partial one.
	s.cache.Store(item)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// handleCalendarRequest serves the ICS content with HTTP caching support.
func (s *CalendarServer) handleCalendarRequest(w http.ResponseWriter, r *http.Request) {
	status := s.serveCalendar(w, r)
	s.metrics.feedRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (s *CalendarServer) serveCalendar(w http.ResponseWriter, r *http.Request) int {
	// 1. Method Validation
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return http.StatusMethodNotAllowed
	}

	// 2. Load Data (Atomic / Lock-Free)
	item := s.cache.Load()

	// 3. Readiness Check
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return http.StatusServiceUnavailable
	}

	// 4. Set Response Headers
	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	// 5. Conditional Headers
	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return http.StatusNotModified
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return http.StatusNotModified
				}
			}
		}
	}

	// 6. Serve Content
	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
	return http.StatusOK
}

// rateLimit rejects API calls once the token bucket is empty.
func (s *CalendarServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set(config.HeaderRetryAfter, config.RetryAfterRateLimit)
			writeJSON(w, http.StatusTooManyRequests, apiResponse{Error: config.HTTPMsgRateLimited})
			return
		}
		next.ServeHTTP(w, r)
	})
}
