package http

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/dental-clinic/internal/guard"
	"github.com/pribylovaa/dental-clinic/internal/http/middleware"
)

// Options: параметры сборки роутера веб-фронта.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// Guard: проверка сессии для страниц; nil отдаёт страницы без проверки.
	Guard *guard.Guard
	// Pages: обработчик страниц фронта (обычно http.FileServer).
	Pages http.Handler
	// Ready: флаг готовности для /healthz.
	Ready *atomic.Bool
	// Gatherer для /metrics; nil означает prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// NewRouter собирает http.Handler: служебные эндпоинты вне гарда, страницы за гардом.
func NewRouter(opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования
		middleware.Logging(opts.Logger),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	root.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	root.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready == nil || opts.Ready.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	root.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	pages := opts.Pages
	if pages == nil {
		pages = http.NotFoundHandler()
	}
	if opts.Guard != nil {
		pages = opts.Guard.Middleware(pages)
	}

	root.Handle("/*", pages)

	return root
}
