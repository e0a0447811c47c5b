package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/transitworks/paxassign/infra/logger"
)

// shutdownGrace bounds how long the exposition server waits for in-flight
// scrapes once the assignment run is cancelled.
const shutdownGrace = 5 * time.Second

// StartPromServer exposes the assignment metrics on addr under /metrics for
// the lifetime of ctx. A dedicated mux keeps the endpoint off the default
// serve mux. Blocks until the server stops; a context-triggered shutdown
// returns nil.
func StartPromServer(ctx context.Context, addr string) error {
	log := logger.New("prom-server")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("metrics endpoint shutdown: %v", err)
		}
	}()

	log.Infof("serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
