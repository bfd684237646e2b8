package selftelemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 2 * time.Second

// Serve runs the self-telemetry HTTP server on ln until ctx is done.
func Serve(ctx context.Context, ln net.Listener, r *Registry, logger *zap.Logger) error {
	mux := http.NewServeMux()
	InstallHandlers(mux, r)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	logger.Info("Self-telemetry HTTP listening", zap.String("addr", ln.Addr().String()))

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	var err error
	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := srv.Shutdown(sctx); serr != nil {
			logger.Warn("Self-telemetry shutdown", zap.Error(serr))
		}
		err = <-errc
	case err = <-errc:
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
