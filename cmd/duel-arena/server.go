package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/logging"
)

type sweeper interface {
	Sweep(ctx context.Context) int
}

// startSweeper schedules the job that expires sessions nobody joined.
func startSweeper(s sweeper) gocron.Scheduler {
	sched, err := gocron.NewScheduler()
	if err != nil {
		logging.Fatal("Failed to create scheduler", err, nil)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(constants.SweepInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), constants.SweepInterval)
			defer cancel()
			if n := s.Sweep(ctx); n > 0 {
				logging.Info("stale games expired", logging.Fields{"count": n})
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logging.Fatal("Failed to schedule sweeper", err, nil)
	}
	sched.Start()
	return sched
}

// serve runs the HTTP server until SIGINT or SIGTERM, then calls stop.
func serve(addr string, handler http.Handler, stop func()) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{Addr: addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Failed to start server", err, nil)
		}
	case <-ctx.Done():
		logging.Info("Shutting down", nil)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("server shutdown failed", err, nil)
	}
	stop()
}
