package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds how long Run waits for in-flight contact requests.
const DefaultShutdownTimeout = 5 * time.Second

// Server 联系表单 API 的 HTTP 生命周期（启动、优雅退出）
type Server struct {
	httpServer      *http.Server
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{httpServer: s, logger: logger, shutdownTimeout: DefaultShutdownTimeout}
}

// Start blocks until the server stops. A graceful Stop yields nil.
func (s *Server) Start() error {
	s.logger.Info("Starting contactform HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping contactform HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Run serves until ctx is cancelled (e.g. by a signal), then shuts down within the
// shutdown timeout. A listener failure is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("contactform HTTP server stopped", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil {
		s.logger.Warn("contactform HTTP server shutdown", zap.Error(err))
		return err
	}
	return <-errCh
}
