// Package web serves the JSON API and the task report page.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/trail/internal/db"
	"github.com/hpungsan/trail/internal/mapper"
)

// NewServer creates and configures the HTTP server. statsFn supplies the
// running engine's counters; pass nil when no engine is running.
func NewServer(store *db.Store, statsFn func() mapper.Stats, bind string, port int) *http.Server {
	if statsFn == nil {
		statsFn = func() mapper.Stats { return mapper.Stats{} }
	}

	h := &Handlers{
		store:   store,
		statsFn: statsFn,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /api/projects", h.HandleProjectList)
	mux.HandleFunc("POST /api/projects", h.HandleProjectCreate)
	mux.HandleFunc("GET /api/projects/{id}", h.HandleProjectGet)
	mux.HandleFunc("PUT /api/projects/{id}", h.HandleProjectUpdate)
	mux.HandleFunc("DELETE /api/projects/{id}", h.HandleProjectDelete)
	mux.HandleFunc("GET /api/projects/{id}/tasks", h.HandleTaskList)
	mux.HandleFunc("POST /api/projects/{id}/tasks", h.HandleTaskCreate)

	mux.HandleFunc("GET /api/tasks/{id}", h.HandleTaskGet)
	mux.HandleFunc("PUT /api/tasks/{id}", h.HandleTaskUpdate)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.HandleTaskDelete)
	mux.HandleFunc("GET /api/tasks/{id}/children", h.HandleTaskChildren)

	mux.HandleFunc("GET /api/contexts", h.HandleContextList)
	mux.HandleFunc("GET /api/contexts/{id}", h.HandleContextGet)
	mux.HandleFunc("PUT /api/contexts/{id}/task", h.HandleAssociate)
	mux.HandleFunc("POST /api/contexts/{id}/used", h.HandleMarkUsed)

	mux.HandleFunc("GET /api/stats", h.HandleStats)

	mux.HandleFunc("GET /report/tasks/{id}", h.HandleTaskReport)

	handler := securityHeaders(mux)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: handler,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("[web] API running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
