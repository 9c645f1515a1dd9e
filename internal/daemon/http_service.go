package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"queuewatch/internal/logging"
)

// httpService runs one listener for the daemon's lifetime. A nil service is
// a disabled listener; every method tolerates it.
type httpService struct {
	name   string
	bind   string
	logger *slog.Logger

	listener net.Listener
	server   *http.Server
}

func newHTTPService(name, bind string, handler http.Handler, logger *slog.Logger) *httpService {
	return &httpService{
		name:   name,
		bind:   bind,
		logger: logging.NewComponentLogger(logger, name+"-server"),
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

func (s *httpService) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("%s listen: %w", s.name, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.shutdown()
	}()

	s.logger.Info("listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *httpService) stop() {
	if s == nil {
		return
	}
	s.shutdown()
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *httpService) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

// address reports the bound address, which differs from bind when the port
// was 0.
func (s *httpService) address() string {
	if s == nil {
		return ""
	}
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}
