package hosting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/ext"
)

// BackgroundService is a long-running component started with the
// process and stopped on shutdown. Worker implements it.
type BackgroundService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Host runs background services for the lifetime of the process.
type Host struct {
	logger          *slog.Logger
	extensions      *ext.Registry
	shutdownTimeout time.Duration
	signals         []os.Signal

	mu       sync.Mutex
	services []BackgroundService
	failures chan error
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostLogger sets the host logger.
func WithHostLogger(l *slog.Logger) HostOption {
	return func(h *Host) { h.logger = l }
}

// WithHostExtensions sets the registry notified on shutdown.
func WithHostExtensions(r *ext.Registry) HostOption {
	return func(h *Host) { h.extensions = r }
}

// WithShutdownTimeout bounds the time services get to stop. Zero or
// negative disables the limit.
func WithShutdownTimeout(d time.Duration) HostOption {
	return func(h *Host) { h.shutdownTimeout = d }
}

// WithHostOptions applies the host-level settings of opts, currently
// the shutdown timeout.
func WithHostOptions(opts taskhub.Options) HostOption {
	return func(h *Host) { h.shutdownTimeout = opts.ShutdownTimeout }
}

// WithSignals sets the signals that trigger shutdown. The default is
// SIGINT and SIGTERM.
func WithSignals(sig ...os.Signal) HostOption {
	return func(h *Host) { h.signals = sig }
}

// NewHost creates a host. The shutdown timeout defaults to the task hub
// default.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		shutdownTimeout: taskhub.DefaultOptions().ShutdownTimeout,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
		failures:        make(chan error, 1),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.extensions == nil {
		h.extensions = ext.NewRegistry(h.logger)
	}
	return h
}

// Add registers a service. Services start in registration order.
func (h *Host) Add(svc BackgroundService) {
	h.mu.Lock()
	h.services = append(h.services, svc)
	h.mu.Unlock()
}

// ReportFailure implements FailureReporter. The first report triggers
// shutdown and becomes the error returned by Run.
func (h *Host) ReportFailure(err error) {
	select {
	case h.failures <- err:
	default:
	}
}

// Run starts every service, blocks until ctx is done, a shutdown signal
// arrives or a service reports a failure, then stops the started services
// in reverse order.
func (h *Host) Run(ctx context.Context) error {
	sigCtx, stopSignals := signal.NotifyContext(ctx, h.signals...)
	defer stopSignals()

	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		select {
		case err := <-h.failures:
			return err
		case <-gctx.Done():
			return nil
		}
	})

	h.mu.Lock()
	services := append([]BackgroundService(nil), h.services...)
	h.mu.Unlock()

	started := make([]BackgroundService, 0, len(services))
	for i, svc := range services {
		if err := svc.Start(gctx); err != nil {
			h.logger.Error("service failed to start", slog.Int("service", i), slog.String("error", err.Error()))
			cancel()
			_ = g.Wait()
			return errors.Join(err, h.stopAll(started))
		}
		started = append(started, svc)
	}

	h.logger.Info("host started", slog.Int("services", len(started)))
	<-gctx.Done()
	h.logger.Info("host shutting down", slog.String("reason", context.Cause(gctx).Error()))

	runErr := g.Wait()
	return errors.Join(runErr, h.stopAll(started))
}

// stopAll stops services in reverse order within the shutdown timeout.
// Stop failures are logged and stopping continues.
func (h *Host) stopAll(services []BackgroundService) error {
	ctx := context.Background()
	if h.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.shutdownTimeout)
		defer cancel()
	}

	h.extensions.EmitShutdown(ctx)

	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		done := make(chan error, 1)
		go func(svc BackgroundService) { done <- svc.Stop(ctx) }(services[i])

		select {
		case err := <-done:
			if err != nil {
				h.logger.Error("service failed to stop", slog.Int("service", i), slog.String("error", err.Error()))
				errs = append(errs, err)
			}
		case <-ctx.Done():
			h.logger.Error("shutdown timed out", slog.Int("pending_services", i+1))
			return errors.Join(append(errs, fmt.Errorf("%w after %s", taskhub.ErrShutdownTimeout, h.shutdownTimeout))...)
		}
	}
	return errors.Join(errs...)
}
