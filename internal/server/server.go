// Package server wires the prediction handlers into an HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/uptrace/bunrouter"
	"golang.org/x/crypto/acme/autocert"

	"github.com/Brownie44l1/knee-api/internal/config"
	"github.com/Brownie44l1/knee-api/internal/handlers"
	"github.com/Brownie44l1/knee-api/internal/logger"
)

const shutdownTimeout = 15 * time.Second

// Server is the HTTP front of the classifier.
type Server struct {
	cfg     *config.Configuration
	handler *handlers.Handler
	log     logger.Logger
	limiter *stdlib.Middleware

	acmeAddr string // ACME http-01 challenge listener
}

// New prepares the server; it does not start listening.
func New(cfg *config.Configuration, handler *handlers.Handler, log logger.Logger) (*Server, error) {
	lm, err := newLimiter(cfg.Server.LimiterRate)
	if err != nil {
		return nil, err
	}
	log.Info("limiter rate='", cfg.Server.LimiterRate, "'")
	return &Server{cfg: cfg, handler: handler, log: log, limiter: lm, acmeAddr: ":http"}, nil
}

// Router returns the full handler chain: CORS and the upload limit around
// the bunrouter router.
func (s *Server) Router() http.Handler {
	router := bunrouter.New(
		bunrouter.Use(s.requestIDMiddleware),
		bunrouter.Use(s.loggingMiddleware),
		bunrouter.Use(s.limitMiddleware),
	).Compat()

	router.GET("/", s.handler.Home)
	router.GET("/health", s.handler.Health)
	router.GET("/docs", s.handler.Docs)
	router.POST("/predict", s.handler.Predict)

	return corsMiddleware(bodyLimitMiddleware(router, s.cfg.Server.MaxUploadSize))
}

// Run listens on all interfaces at the configured port until ctx is done,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var challenge *http.Server
	serve := func() error { return srv.Serve(ln) }
	switch {
	case len(s.cfg.Server.DomainNames) > 0:
		certManager := autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(s.cfg.Server.DomainNames...),
			Cache:      autocert.DirCache(s.cfg.Server.CertsDir),
		}
		srv.TLSConfig = certManager.TLSConfig()
		challenge = &http.Server{
			Addr:              s.acmeAddr,
			Handler:           certManager.HTTPHandler(nil),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := challenge.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("ACME challenge server failed: ", err)
			}
		}()
		serve = func() error { return srv.ServeTLS(ln, "", "") }
		s.log.Info("Start HTTPs server with LetsEncrypt ", s.cfg.Server.DomainNames, " on ", ln.Addr())
	case s.cfg.Server.ServerCrt != "":
		serve = func() error { return srv.ServeTLS(ln, s.cfg.Server.ServerCrt, s.cfg.Server.ServerKey) }
		s.log.Info("Start HTTPs server with ", s.cfg.Server.ServerCrt, " and ", s.cfg.Server.ServerKey, " on ", ln.Addr())
	default:
		s.log.Info("Start HTTP server on ", ln.Addr())
	}

	serverErrors := make(chan error, 1)
	go func() {
		if err := serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		if challenge != nil {
			challenge.Close()
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info("Shutting down server...")
	if challenge != nil {
		if err := challenge.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("ACME challenge server forced to shutdown: ", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.log.Info("Server stopped gracefully")
	return nil
}
