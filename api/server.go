package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

type server struct {
	cfg    Config
	logger *slog.Logger
}

func NewServer(cfg Config, logger *slog.Logger) (*server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &server{
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", s.healthCheckHandler)
	mux.HandleFunc("POST /api/lex", s.lexHandler)
	mux.HandleFunc("POST /api/parse", s.parseHandler)

	return s.recoverPanicMiddleware(s.requestLoggerMiddleware(s.corsMiddleware(mux)))
}

func (s *server) Serve(ctx context.Context) error {
	return s.serve(ctx, s.routes())
}

// serve returns once in-flight requests have drained or the shutdown timeout expired.
func (s *server) serve(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: handler,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		s.logger.Info("shutting down server", "addr", s.cfg.Addr)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.shutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to shutdown server", "addr", s.cfg.Addr, "error", err)
		}
	}()

	var serverErr error
	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		s.logger.Info("starting server with TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
	} else {
		s.logger.Info("starting server without TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServe()
	}

	if !errors.Is(serverErr, http.ErrServerClosed) {
		return serverErr
	}

	<-shutdownDone
	return nil
}
