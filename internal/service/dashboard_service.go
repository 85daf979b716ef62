package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ppisng/ppis-api/internal/models"
	"github.com/ppisng/ppis-api/pkg/batch"
)

type dashboardCounters interface {
	Count(ctx context.Context) (int, error)
}

type dashboardProfileCounter interface {
	Count(ctx context.Context, role *models.Role) (int, error)
}

type dashboardSettingsReader interface {
	Get(ctx context.Context) (*models.SchoolSettings, error)
}

// DashboardService composes the admin landing payload. Every fetch runs
// concurrently and each failure is tolerated: a broken counter renders as
// zero, missing settings render as nil, and the dashboard still loads.
type DashboardService struct {
	students dashboardCounters
	classes  dashboardCounters
	subjects dashboardCounters
	scores   dashboardCounters
	profiles dashboardProfileCounter
	settings dashboardSettingsReader
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(students, classes, subjects, scores dashboardCounters, profiles dashboardProfileCounter, settings dashboardSettingsReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students: students,
		classes:  classes,
		subjects: subjects,
		scores:   scores,
		profiles: profiles,
		settings: settings,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

const dashboardCacheKey = "dashboard:summary"

// Summary returns the aggregated dashboard payload.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	if s.cache.Enabled() {
		var cached models.DashboardSummary
		if hit, _ := s.cache.Get(ctx, dashboardCacheKey, &cached); hit {
			return &cached, nil
		}
	}

	summary := &models.DashboardSummary{GeneratedAt: s.now()}
	teacherRole := models.RoleFormTeacher

	results := batch.SettleAll(ctx,
		func(ctx context.Context) error {
			count, err := s.students.Count(ctx)
			summary.Students = count
			return err
		},
		func(ctx context.Context) error {
			count, err := s.profiles.Count(ctx, &teacherRole)
			summary.Teachers = count
			return err
		},
		func(ctx context.Context) error {
			count, err := s.classes.Count(ctx)
			summary.Classes = count
			return err
		},
		func(ctx context.Context) error {
			count, err := s.subjects.Count(ctx)
			summary.Subjects = count
			return err
		},
		func(ctx context.Context) error {
			count, err := s.scores.Count(ctx)
			summary.Scores = count
			return err
		},
		func(ctx context.Context) error {
			settings, err := s.settings.Get(ctx)
			if err == nil {
				summary.Settings = settings
			}
			return err
		},
	)
	for _, failed := range batch.Failed(results) {
		s.logger.Warn("dashboard fetch failed; defaulting",
			zap.Int("task", failed.Index), zap.Error(failed.Err))
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL)
	}
	return summary, nil
}
