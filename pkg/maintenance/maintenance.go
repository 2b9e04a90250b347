// Package maintenance runs the scheduled housekeeping sweep: expired session
// cleanup, orphaned upload removal, and business gauge refresh.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/inkwell/pkg/observability"
	"github.com/platinummonkey/inkwell/pkg/storage"
	"github.com/platinummonkey/inkwell/pkg/storage/objstore"
)

// sweepTimeout bounds one full sweep run.
const sweepTimeout = 5 * time.Minute

// Config for the maintenance service.
type Config struct {
	// Schedule is a cron expression for the sweep.
	Schedule string
	// UploadGracePeriod is how old an unreferenced object must be before the
	// sweep deletes it. It must comfortably exceed the longest plausible gap
	// between uploading a file and saving the article that references it.
	UploadGracePeriod time.Duration
}

// Service schedules the periodic sweep.
type Service struct {
	cfg     Config
	store   storage.Store
	objects *objstore.Client
	metrics *observability.Metrics
	logger  *observability.Logger
	cron    *cron.Cron
}

// NewService creates the maintenance service. The objects client may be nil;
// the orphan sweep is then skipped.
func NewService(cfg Config, store storage.Store, objects *objstore.Client, metrics *observability.Metrics, logger *observability.Logger) *Service {
	if cfg.UploadGracePeriod <= 0 {
		cfg.UploadGracePeriod = 24 * time.Hour
	}
	return &Service{
		cfg:     cfg,
		store:   store,
		objects: objects,
		metrics: metrics,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start registers the sweep and starts the scheduler. One sweep runs
// immediately so gauges are populated from process start.
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.runSweep); err != nil {
		return err
	}
	go s.runSweep()
	s.cron.Start()
	return nil
}

// Stop stops the scheduler, waiting for a running sweep to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Service) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	s.sweepSessions(ctx)
	s.sweepOrphanedUploads(ctx)
	s.refreshGauges(ctx)
	s.logger.WithField("duration_ms", time.Since(start).Milliseconds()).Info("maintenance sweep finished")
}

func (s *Service) sweepSessions(ctx context.Context) {
	deleted, err := s.store.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		s.logger.WithError(err).Error("failed to delete expired sessions")
		return
	}
	if deleted > 0 {
		s.logger.WithField("deleted", deleted).Info("expired sessions removed")
	}
}

// sweepOrphanedUploads deletes objects no image field references, once they
// are older than the grace period. The grace period protects uploads whose
// article has not been saved yet.
func (s *Service) sweepOrphanedUploads(ctx context.Context) {
	if s.objects == nil {
		return
	}

	referenced, err := s.store.ReferencedObjects(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to list referenced objects, skipping orphan sweep")
		return
	}
	objects, err := s.objects.List(ctx, "")
	if err != nil {
		s.logger.WithError(err).Error("failed to list stored objects, skipping orphan sweep")
		return
	}

	cutoff := time.Now().Add(-s.cfg.UploadGracePeriod)
	var orphans []string
	for _, obj := range objects {
		if !referenced[obj.Key] && obj.LastModified.Before(cutoff) {
			orphans = append(orphans, obj.Key)
		}
	}
	if len(orphans) == 0 {
		return
	}

	failed := s.objects.DeleteObjects(ctx, s.logger, orphans)
	s.logger.WithFields(map[string]interface{}{
		"deleted": len(orphans) - len(failed),
		"failed":  len(failed),
	}).Info("orphaned uploads removed")
}

func (s *Service) refreshGauges(ctx context.Context) {
	if s.metrics == nil {
		return
	}

	if articles, err := s.store.CountArticles(ctx); err == nil {
		s.metrics.ArticlesTotal.Set(float64(articles))
	} else {
		s.logger.WithError(err).Warn("failed to count articles")
	}
	if users, err := s.store.CountUsers(ctx); err == nil {
		s.metrics.UsersTotal.Set(float64(users))
	} else {
		s.logger.WithError(err).Warn("failed to count users")
	}
}
