package worker

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// HealthServer serves a liveness endpoint for daemon mode
type HealthServer struct {
	srv      *http.Server
	listener net.Listener
}

// StartHealthServer binds the listener and starts serving /healthz. Binding
// happens before returning so a bad address fails the daemon start instead of
// a background goroutine.
func StartHealthServer(addr string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("Health listener started on %s", listener.Addr())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Health listener failed: %v", err)
		}
	}()

	return &HealthServer{srv: srv, listener: listener}, nil
}

// Addr returns the bound listener address
func (h *HealthServer) Addr() string {
	return h.listener.Addr().String()
}

// Shutdown stops the listener
func (h *HealthServer) Shutdown(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}
