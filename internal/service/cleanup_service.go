package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sedefy/sedetok-backend/pkg/distributed"
	"github.com/sedefy/sedetok-backend/pkg/logger"
	"go.uber.org/zap"
)

// CleanupService periodically deletes waiting matches that never got their
// creator seated (a match insert whose seat-1 insert failed leaves such a
// row behind; matchmaking itself does not roll it back). When a Redis lock
// manager is provided, only one server instance runs the sweep per tick.
type CleanupService struct {
	matchStore MatchStore
	locks      *distributed.RedisLockManager
	instanceID string
	interval   time.Duration
	maxAge     time.Duration
	logger     *zap.Logger
	stopChan   chan struct{}
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

func NewCleanupService(
	matchStore MatchStore,
	locks *distributed.RedisLockManager,
	interval time.Duration,
	maxAge time.Duration,
) *CleanupService {
	return &CleanupService{
		matchStore: matchStore,
		locks:      locks,
		instanceID: uuid.NewString(),
		interval:   interval,
		maxAge:     maxAge,
		logger:     logger.Get(),
		stopChan:   make(chan struct{}),
	}
}

// Start launches the sweep loop
func (s *CleanupService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("Starting CleanupService",
		zap.Duration("interval", s.interval),
		zap.Duration("maxAge", s.maxAge))

	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop halts the sweep loop and waits for the current sweep to end
func (s *CleanupService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping CleanupService")
	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info("CleanupService stopped")
}

func (s *CleanupService) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		}
	}
}

func (s *CleanupService) sweep() {
	ctx := context.Background()

	if s.locks != nil {
		lock, err := s.locks.AcquireLock(ctx, "sweep:empty-matches", s.instanceID, s.interval)
		if errors.Is(err, distributed.ErrLockNotAcquired) {
			s.logger.Debug("Another instance is sweeping, skipping")
			return
		}
		if err != nil {
			s.logger.Error("Failed to acquire sweep lock", zap.Error(err))
			return
		}
		defer lock.Release(ctx)
	}

	deleted, err := s.matchStore.DeleteEmptyWaiting(s.maxAge)
	if err != nil {
		s.logger.Error("Failed to sweep empty matches", zap.Error(err))
		return
	}

	if deleted > 0 {
		s.logger.Info("Swept empty waiting matches", zap.Int64("deleted", deleted))
	}
}
