package utils

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

type ShutdownManager struct {
	cancelFunc    context.CancelFunc
	shutdownTasks []func(context.Context) error
	mu            sync.Mutex
	log           zerolog.Logger
	exit          func(code int)
}

func NewShutdownManager(ctx context.Context, log zerolog.Logger) (context.Context, *ShutdownManager) {
	ctx, cancel := context.WithCancel(ctx)
	manager := &ShutdownManager{
		cancelFunc: cancel,
		log:        log,
		exit:       os.Exit,
	}
	return ctx, manager
}

func (sm *ShutdownManager) Register(task func(context.Context) error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.shutdownTasks = append(sm.shutdownTasks, task)
}

func (sm *ShutdownManager) StartListening() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		sm.log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		sm.Shutdown()
		sm.exit(0)
	}()
}

// Shutdown cancels the root context and runs registered tasks in reverse order.
func (sm *ShutdownManager) Shutdown() {
	sm.cancelFunc()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	sm.mu.Lock()
	defer sm.mu.Unlock()
	for i := len(sm.shutdownTasks) - 1; i >= 0; i-- {
		if err := sm.shutdownTasks[i](ctx); err != nil {
			sm.log.Error().Err(err).Msg("shutdown task failed")
		}
	}
	sm.shutdownTasks = nil

	sm.log.Info().Msg("graceful shutdown complete")
}
