package store

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

// ReportCache is a fast lookaside for the latest report per type.
// *RedisStore implements it.
type ReportCache interface {
	CachedReport(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error)
	CacheReport(ctx context.Context, r *models.MeetingReport) error
	EvictReport(ctx context.Context, t models.MeetingType) error
}

// ReportStore exposes only the latest report per meeting type. The data
// store keeps every generation; the optional cache is read through.
type ReportStore struct {
	ds     DataStore
	cache  ReportCache
	logger zerolog.Logger
}

// NewReportStore creates a report store. cache may be nil.
func NewReportStore(ds DataStore, cache ReportCache, logger zerolog.Logger) *ReportStore {
	return &ReportStore{
		ds:     ds,
		cache:  cache,
		logger: logger.With().Str("component", "reports").Logger(),
	}
}

// Get returns the latest report for t, or nil if none was ever saved.
func (s *ReportStore) Get(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error) {
	if s.cache != nil {
		r, err := s.cache.CachedReport(ctx, t)
		if err != nil {
			s.logger.Warn().Err(err).Str("type", string(t)).Msg("Report cache read failed")
		} else if r != nil {
			return r, nil
		}
	}

	r, err := s.ds.LatestMeetingReport(ctx, t)
	if err != nil || r == nil {
		return r, err
	}

	if s.cache != nil {
		if err := s.cache.CacheReport(ctx, r); err != nil {
			s.logger.Warn().Err(err).Str("type", string(t)).Msg("Report cache fill failed")
		}
	}
	return r, nil
}

// Save makes r the latest report of its type. The durable write happens
// first; a failed cache write evicts the stale entry instead.
func (s *ReportStore) Save(ctx context.Context, r *models.MeetingReport) error {
	if err := s.ds.SaveMeetingReport(ctx, r); err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.CacheReport(ctx, r); err != nil {
		s.logger.Warn().Err(err).Str("type", string(r.Type)).Msg("Report cache write failed, evicting")
		if err := s.cache.EvictReport(ctx, r.Type); err != nil {
			s.logger.Error().Err(err).Str("type", string(r.Type)).Msg("Report cache eviction failed")
		}
	}
	return nil
}

// Recent lists reports across all types, newest first.
func (s *ReportStore) Recent(ctx context.Context, limit int) ([]models.MeetingReport, error) {
	return s.ds.ListMeetingReports(ctx, limit)
}
