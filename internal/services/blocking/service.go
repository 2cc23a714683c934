package blocking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/enums"
	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrSelfBlock     = errors.New("cannot block yourself")
	ErrSelfReport    = errors.New("cannot report yourself")
	ErrInvalidReason = errors.New("unknown report reason")
	ErrRateLimited   = errors.New("report rate limit exceeded")
)

// RateLimitedError carries how long the reporter has to wait. It
// matches ErrRateLimited under errors.Is.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string { return ErrRateLimited.Error() }

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

const (
	reportWindow            = 10 * time.Minute
	defaultReportsPerWindow = 3
	maxReportDetailsLen     = 1000
)

type BlockStore interface {
	Upsert(ctx context.Context, blockerID, blockedID uuid.UUID) error
	Delete(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error)
	Exists(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error)
	IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error)
	ListBlocked(ctx context.Context, blockerID uuid.UUID) ([]uuid.UUID, error)
}

type ReportStore interface {
	Create(ctx context.Context, report model.Report) error
}

type ProfileStore interface {
	GetMany(ctx context.Context, userIDs []uuid.UUID) ([]model.Profile, error)
}

// RateWindow counts events per key inside a rolling window.
type RateWindow interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type Config struct {
	ReportsPerWindow int
}

type Service struct {
	blocks   BlockStore
	reports  ReportStore
	profiles ProfileStore
	rate     RateWindow
	cfg      Config
	now      func() time.Time
}

type Dependencies struct {
	Blocks   BlockStore
	Reports  ReportStore
	Profiles ProfileStore
	Rate     RateWindow
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.ReportsPerWindow <= 0 {
		cfg.ReportsPerWindow = defaultReportsPerWindow
	}
	return &Service{
		blocks:   deps.Blocks,
		reports:  deps.Reports,
		profiles: deps.Profiles,
		rate:     deps.Rate,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Block suppresses blockedID for blockerID. Blocking twice is a
// no-op, not an error.
func (s *Service) Block(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == uuid.Nil || blockedID == uuid.Nil {
		return ErrInvalidInput
	}
	if blockerID == blockedID {
		return ErrSelfBlock
	}

	if err := s.blocks.Upsert(ctx, blockerID, blockedID); err != nil {
		return fmt.Errorf("create block: %w", err)
	}
	return nil
}

// Unblock lifts a block. Removing a block that does not exist is a
// no-op as well.
func (s *Service) Unblock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == uuid.Nil || blockedID == uuid.Nil {
		return ErrInvalidInput
	}
	if blockerID == blockedID {
		return ErrSelfBlock
	}

	if _, err := s.blocks.Delete(ctx, blockerID, blockedID); err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

// IsBlocked reports whether blockerID has blocked blockedID in that
// direction only.
func (s *Service) IsBlocked(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	if blockerID == uuid.Nil || blockedID == uuid.Nil {
		return false, ErrInvalidInput
	}

	exists, err := s.blocks.Exists(ctx, blockerID, blockedID)
	if err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return exists, nil
}

// ListBlocked returns the public profiles of everyone the caller has
// blocked.
func (s *Service) ListBlocked(ctx context.Context, blockerID uuid.UUID) ([]model.Profile, error) {
	if blockerID == uuid.Nil {
		return nil, ErrInvalidInput
	}

	ids, err := s.blocks.ListBlocked(ctx, blockerID)
	if err != nil {
		return nil, fmt.Errorf("list blocked ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	profiles, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load blocked profiles: %w", err)
	}
	out := make([]model.Profile, len(profiles))
	for i, p := range profiles {
		out[i] = p.PublicView()
	}
	return out, nil
}

// Report files an abuse report. It never touches block state; a
// reporter who also wants the target gone calls Block separately.
// Reports are capped per reporter inside a rolling window; if the
// limiter backend is down the report is refused rather than waved
// through.
func (s *Service) Report(ctx context.Context, reporterID, targetID uuid.UUID, reason enums.ReportReason, details string) error {
	if reporterID == uuid.Nil || targetID == uuid.Nil {
		return ErrInvalidInput
	}
	if reporterID == targetID {
		return ErrSelfReport
	}
	if !validReason(reason) {
		return ErrInvalidReason
	}
	trimmedDetails := strings.TrimSpace(details)
	if len(trimmedDetails) > maxReportDetailsLen {
		return fmt.Errorf("details too long: %w", ErrInvalidInput)
	}

	count, retryAfter, err := s.rate.IncrementWindow(ctx, reportRateKey(reporterID), reportWindow)
	if err != nil {
		return fmt.Errorf("check report rate: %w", err)
	}
	if count > int64(s.cfg.ReportsPerWindow) {
		return &RateLimitedError{RetryAfter: retryAfter}
	}

	report := model.Report{
		ID:         uuid.New(),
		ReporterID: reporterID,
		TargetID:   targetID,
		Reason:     reason,
		Details:    trimmedDetails,
		CreatedAt:  s.now(),
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}

func validReason(reason enums.ReportReason) bool {
	switch reason {
	case enums.ReportReasonSpam, enums.ReportReasonFake, enums.ReportReasonHarassment, enums.ReportReasonOther:
		return true
	default:
		return false
	}
}

func reportRateKey(reporterID uuid.UUID) string {
	return "reports:rate:" + reporterID.String()
}
