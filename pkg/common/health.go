// Package common provides shared utilities for the system.
package common

import (
	"log"
	"net/http"
	"sync/atomic"
)

// HealthServer exposes readiness and liveness endpoints for Kubernetes
// probes on its own listener, separate from the API server.
type HealthServer struct {
	ready  *atomic.Bool // Indicates if the service is ready to receive traffic
	server *http.Server
}

// NewHealthServer creates and starts a health check server on the given
// address. While the ready flag is false the readiness endpoint returns
// 503 Service Unavailable.
func NewHealthServer(addr string, ready *atomic.Bool) *HealthServer {
	mux := http.NewServeMux()
	server := &http.Server{Addr: addr, Handler: mux}
	hs := &HealthServer{
		ready:  ready,
		server: server,
	}

	mux.HandleFunc("/v1/readiness", hs.readinessHandler)
	mux.HandleFunc("/v1/health", hs.healthHandler)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Health server error: %v", err)
		}
	}()

	return hs
}

func (h *HealthServer) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		http.Error(w, "Not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// healthHandler always returns 200 OK as long as the server is running.
func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Server returns the underlying http.Server so the caller can shut it down.
func (h *HealthServer) Server() *http.Server { return h.server }
