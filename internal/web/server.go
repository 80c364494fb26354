package web

import (
	"context"
	"net/http"
	"time"

	"insightdash/internal/domain"
	"insightdash/internal/insights"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Generator produces one narrative per call.
type Generator interface {
	GenerateFor(ctx context.Context, ds domain.Dataset, title, view string, surface insights.Surface) insights.Result
}

// HistoryReader exposes recorded runs; nil disables the history endpoint.
type HistoryReader interface {
	ListRecentInsightRuns(ctx context.Context, limit int) ([]domain.InsightRun, error)
}

type Server struct {
	appTitle  string
	generator Generator
	history   HistoryReader
	logger    *zap.Logger
}

func NewServer(appTitle string, generator Generator, history HistoryReader, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if appTitle == "" {
		appTitle = "Customer Insights Dashboard"
	}
	return &Server{
		appTitle:  appTitle,
		generator: generator,
		history:   history,
		logger:    logger.Named("web"),
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/views/main", http.StatusFound)
	}).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	router.HandleFunc("/views/{view}", s.handleViewPage).Methods(http.MethodGet)
	router.HandleFunc("/views/{view}/insights", s.handleViewInsights).Methods(http.MethodPost)
	router.HandleFunc("/charts/{chart:[a-z-]+}.{format:svg|png}", s.handleChartImage).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/views", s.handleAPIViews).Methods(http.MethodGet)
	api.HandleFunc("/charts", s.handleAPICharts).Methods(http.MethodGet)
	api.HandleFunc("/views/{view}", s.handleAPIView).Methods(http.MethodGet)
	api.HandleFunc("/views/{view}/insights", s.handleAPIInsights).Methods(http.MethodPost)
	api.HandleFunc("/insights/history", s.handleAPIHistory).Methods(http.MethodGet)

	return router
}

const (
	defaultWriteTimeout = 2 * time.Minute
	writeTimeoutMargin  = 30 * time.Second
)

// HTTPServer wraps the router. The write timeout outlasts narrativeTimeout,
// the outbound provider timeout, so an Ask AI response is never cut off.
func (s *Server) HTTPServer(addr string, narrativeTimeout time.Duration) *http.Server {
	writeTimeout := defaultWriteTimeout
	if narrativeTimeout > 0 {
		writeTimeout = narrativeTimeout + writeTimeoutMargin
	}
	return &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(started)))
	})
}
