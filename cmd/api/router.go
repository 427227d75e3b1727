package main

import (
	"context"
	"net/http"
	"time"

	"booksearch/internal/book"
	"booksearch/internal/httpx"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// bookPaths are all served by the search handler. The trailing-slash and /api
// forms are what the bundled frontend requests.
var bookPaths = []string{"/books", "/books/", "/api/books", "/api/books/"}

type routerOptions struct {
	Books      *book.HTTPHandler
	Log        *zap.Logger
	Ready      func(context.Context) error
	RateLimit  *httpx.RateLimitMiddleware
	EnableHSTS bool
}

func newRouter(opts routerOptions) http.Handler {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.AccessLogMiddleware(opts.Log))
	r.Use(httpx.RecoveryMiddleware(opts.Log))
	r.Use(httpx.PublicCORSMiddleware)
	r.Use(httpx.SecurityHeadersMiddleware(opts.EnableHSTS))

	r.NotFound(httpx.NotFound)
	r.MethodNotAllowed(httpx.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := opts.Ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Group(func(r chi.Router) {
		if opts.RateLimit != nil {
			r.Use(opts.RateLimit.Middleware)
		}
		for _, p := range bookPaths {
			r.Get(p, opts.Books.List)
		}
	})

	return r
}
