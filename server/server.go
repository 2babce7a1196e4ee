package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/rasterpost/rasterpost/config"
	"github.com/rasterpost/rasterpost/internal/logger"
	"github.com/rasterpost/rasterpost/internal/tracing"
	"github.com/rasterpost/rasterpost/services"
)

// Server wires configuration, logging, tracing and services together and
// runs the daemon until a termination signal arrives.
type Server struct {
	config       *config.Config
	log          logger.Logger
	services     *services.Services
	tracerCloser io.Closer
}

func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize logger
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	// Initialize tracing
	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		log.Fatalf("Could not initialize jaeger tracer: %s", err.Error())
	}
	opentracing.SetGlobalTracer(tracer)

	// Initialize services
	svcs, err := services.InitServices(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:       cfg,
		log:          appLogger,
		services:     svcs,
		tracerCloser: closer,
	}, nil
}

// Run blocks until SIGINT or SIGTERM. The daemon loop finishes the message
// it is working on before honoring the cancellation.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.log.Infof("Rasterpost is now running. Press Ctrl+C to exit.")

	var runErr error
	s.wrapGoroutine("daemon", func() {
		runErr = s.services.DaemonService.Run(ctx)
	})

	if s.tracerCloser != nil {
		s.tracerCloser.Close()
	}
	s.log.Infof("Shutdown complete")
	return runErr
}

func (s *Server) recoverWithJaeger(name string) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan(
			fmt.Sprintf("panic.%s", name),
		)
		defer span.Finish()

		ext.Error.Set(span, true)
		span.LogKV(
			"event", "panic",
			"process", name,
			"error", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)

		s.log.Errorf("Panic in %s: %v\n%s", name, r, debug.Stack())
	}
}

func (s *Server) wrapGoroutine(name string, fn func()) {
	defer s.recoverWithJaeger(name)
	fn()
}
