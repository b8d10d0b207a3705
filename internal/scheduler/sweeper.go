// Package scheduler runs the auto-completion sweep: fully staffed shifts
// whose end time has passed are invoiced and completed without cafe action.
// The sweep is idempotent, so overlapping runs or restarts are harmless.
package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/pricing"
	"cafeshift_backend/internal/repositories"
	"cafeshift_backend/internal/services"
)

const lockKey = "sweep:auto-complete"

// Locker serializes sweep runs across instances. Acquire returns false when
// another holder has the lease.
type Locker interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context)
}

// RedisLocker takes the lease with SET NX so only one instance sweeps at a
// time. The TTL bounds how long a crashed holder blocks the others.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring sweep lock: %w", err)
	}
	return ok, nil
}

func (l *RedisLocker) Release(ctx context.Context) {
	if err := l.client.Del(ctx, lockKey).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to release sweep lock")
	}
}

// LocalLocker is the single-instance fallback when no Redis is configured.
type LocalLocker struct {
	busy chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{busy: make(chan struct{}, 1)}
}

func (l *LocalLocker) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	select {
	case l.busy <- struct{}{}:
		return true, nil
	default:
		return false, nil
	}
}

func (l *LocalLocker) Release(ctx context.Context) {
	<-l.busy
}

// Sweeper owns the periodic auto-completion run.
type Sweeper struct {
	shiftRepo  repositories.ShiftRepository
	invoiceSvc services.InvoiceService
	locker     Locker
	db         *sql.DB
	interval   time.Duration
	cron       *cron.Cron
	now        func() time.Time
}

func NewSweeper(sr repositories.ShiftRepository, is services.InvoiceService, locker Locker, db *sql.DB, interval time.Duration) *Sweeper {
	return &Sweeper{
		shiftRepo:  sr,
		invoiceSvc: is,
		locker:     locker,
		db:         db,
		interval:   interval,
		now:        time.Now,
	}
}

// Start schedules the sweep at the configured interval and returns
// immediately. Call Stop to drain.
func (s *Sweeper) Start() error {
	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.Sweep(context.Background()); err != nil {
			log.Error().Err(err).Msg("Auto-completion sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling sweep: %w", err)
	}
	s.cron.Start()
	log.Info().Dur("interval", s.interval).Msg("Auto-completion sweeper started")
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep takes the lease and runs once. A lost lease is not an error; some
// other instance is sweeping.
func (s *Sweeper) Sweep(ctx context.Context) error {
	// Lease outlives the interval so back-to-back ticks cannot overlap.
	ok, err := s.locker.Acquire(ctx, s.interval+30*time.Second)
	if err != nil {
		return err
	}
	if !ok {
		log.Debug().Msg("Sweep lease held elsewhere, skipping run")
		return nil
	}
	defer s.locker.Release(ctx)

	return s.RunOnce(ctx)
}

// RunOnce completes every fully staffed shift whose end has passed. Per-shift
// failures are logged and skipped so one bad row never stalls the rest.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	shifts, err := s.shiftRepo.GetShiftsByStatus(models.ShiftStatusAccepted)
	if err != nil {
		return fmt.Errorf("listing accepted shifts: %w", err)
	}

	now := s.now()
	completed := 0
	for i := range shifts {
		shift := &shifts[i]
		end, err := pricing.ShiftEnd(shift.Date, shift.EndTime)
		if err != nil {
			log.Error().Err(err).Int64("shift_id", shift.ID).Msg("Skipping shift with unparsable end time")
			continue
		}
		if now.Before(end) {
			continue
		}
		if err := s.completeShift(shift); err != nil {
			log.Error().Err(err).Int64("shift_id", shift.ID).Msg("Failed to auto-complete shift")
			continue
		}
		completed++
	}

	if completed > 0 {
		log.Info().Int("completed", completed).Msg("Auto-completion sweep finished")
	}
	return nil
}

// completeShift issues the settled invoice and then flips the status. An
// invoice already present means an earlier run got that far; completion still
// proceeds, which is what makes re-runs converge.
func (s *Sweeper) completeShift(shift *models.Shift) error {
	if len(shift.AcceptedBy) > 0 {
		_, err := s.invoiceSvc.CreateSettledInvoice(shift)
		if err != nil && !errors.Is(err, services.ErrInvoiceExists) {
			return fmt.Errorf("creating settled invoice: %w", err)
		}
	}

	from := []string{models.ShiftStatusAccepted}
	err := s.shiftRepo.UpdateShiftStatus(s.db, shift.ID, from, models.ShiftStatusCompleted)
	if err != nil && !errors.Is(err, repositories.ErrConditionFailed) {
		return fmt.Errorf("marking shift completed: %w", err)
	}
	return nil
}
