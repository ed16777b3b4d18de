package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/actuallystonmai/user-directory/internal/handler"
)

func Setup(h *handler.Handler, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(lowercasePath)

	// Routes
	r.Get("/", h.ListUsers)
	r.Get("/add", h.AddForm)
	r.Post("/add", h.CreateUser)
	// Wildcards so empty or extra segments reach the id check and get a 400.
	r.Get("/edit/*", h.EditForm)
	r.Post("/edit/*", h.UpdateUser)
	r.Post("/delete/*", h.DeleteUser)
	r.Get("/health", h.Health)

	// Wrong methods on known paths are reported as missing pages too.
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.NotFound)

	return r
}

// lowercasePath makes route matching case-insensitive.
func lowercasePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.URL.Path = strings.ToLower(r.URL.Path)
		if r.URL.RawPath != "" {
			r.URL.RawPath = strings.ToLower(r.URL.RawPath)
		}
		next.ServeHTTP(w, r)
	})
}
