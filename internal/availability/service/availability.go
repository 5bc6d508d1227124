package service

import (
	"context"
	"errors"
	"time"

	availabilityerrors "coachbook/internal/availability/errors"
	"coachbook/internal/availability/repository"
	"coachbook/internal/availability/validator"
	"coachbook/pkg/config"
	apperrors "coachbook/pkg/errors"
	"coachbook/pkg/model"
	"coachbook/pkg/sanitizer"
)

// AvailabilityService owns the recurring weekly windows and the blocked
// intervals that override them, and is the single authority on whether a
// time range is open for booking. Every caller that needs an availability
// decision goes through IsOpen or OpenRangesOn so instant answers and
// generated slot lists can never disagree.
type AvailabilityService interface {
	CreateWindow(ctx context.Context, w *model.AvailabilityWindow) error
	GetWindows(ctx context.Context, orgID string) ([]*model.AvailabilityWindow, error)
	DeleteWindow(ctx context.Context, orgID string, id string) error

	CreateBlock(ctx context.Context, b *model.BlockedInterval) error
	GetBlocks(ctx context.Context, orgID string) ([]*model.BlockedInterval, error)
	DeleteBlock(ctx context.Context, orgID string, id string) error

	OpenRangesOn(ctx context.Context, orgID string, day time.Time) ([]model.TimeRange, error)
	OpenRangesOnDate(ctx context.Context, orgID string, date string) ([]model.TimeRange, error)
	IsOpen(ctx context.Context, orgID string, rng model.TimeRange) (bool, error)
}

type availabilityService struct {
	windows   repository.WindowRepository
	blocks    repository.BlockRepository
	validator *validator.AvailabilityValidator
	cfg       *config.Config
}

func NewAvailabilityService(
	windows repository.WindowRepository,
	blocks repository.BlockRepository,
	validator *validator.AvailabilityValidator,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		windows:   windows,
		blocks:    blocks,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *availabilityService) CreateWindow(ctx context.Context, w *model.AvailabilityWindow) error {
	if err := s.validator.ValidateWindow(w); err != nil {
		s.cfg.Log.Warn("Availability window validation failed",
			"org_id", w.OrgID,
			"day_of_week", w.DayOfWeek,
			"error", err,
		)
		return apperrors.Validation("Availability window validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.windows.Create(ctx, w); err != nil {
		s.cfg.Log.Error("Failed to create availability window",
			"org_id", w.OrgID,
			"error", err,
		)
		return apperrors.Internal("Failed to create availability window", err)
	}

	s.cfg.Log.Info("Availability window created",
		"id", w.ID,
		"org_id", w.OrgID,
		"day_of_week", w.DayOfWeek,
		"start_time", w.StartTime,
		"end_time", w.EndTime,
	)
	return nil
}

func (s *availabilityService) GetWindows(ctx context.Context, orgID string) ([]*model.AvailabilityWindow, error) {
	if orgID == "" {
		return nil, apperrors.InvalidInput("Organization ID cannot be empty")
	}

	windows, err := s.windows.FindByOrg(ctx, orgID)
	if err != nil {
		s.cfg.Log.Error("Failed to list availability windows", "org_id", orgID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve availability windows", err)
	}
	return windows, nil
}

func (s *availabilityService) DeleteWindow(ctx context.Context, orgID string, id string) error {
	if orgID == "" || id == "" {
		return apperrors.InvalidInput("Organization ID and window ID are required")
	}

	if err := s.windows.Delete(ctx, orgID, id); err != nil {
		if errors.Is(err, availabilityerrors.ErrWindowNotFound) {
			return apperrors.NotFoundWithID("Availability window", id)
		}
		if errors.Is(err, availabilityerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid availability window ID format")
		}
		s.cfg.Log.Error("Failed to delete availability window", "id", id, "error", err)
		return apperrors.Internal("Failed to delete availability window", err)
	}

	s.cfg.Log.Info("Availability window deleted", "id", id, "org_id", orgID)
	return nil
}

func (s *availabilityService) CreateBlock(ctx context.Context, b *model.BlockedInterval) error {
	b.Reason = sanitizer.NormalizeLabel(b.Reason)

	if err := s.validator.ValidateBlock(b); err != nil {
		s.cfg.Log.Warn("Blocked interval validation failed",
			"org_id", b.OrgID,
			"error", err,
		)
		return apperrors.Validation("Blocked interval validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.blocks.Create(ctx, b); err != nil {
		s.cfg.Log.Error("Failed to create blocked interval",
			"org_id", b.OrgID,
			"error", err,
		)
		return apperrors.Internal("Failed to create blocked interval", err)
	}

	s.cfg.Log.Info("Blocked interval created",
		"id", b.ID,
		"org_id", b.OrgID,
		"date", b.Date,
		"start_time", b.StartTime,
		"end_time", b.EndTime,
	)
	return nil
}

func (s *availabilityService) GetBlocks(ctx context.Context, orgID string) ([]*model.BlockedInterval, error) {
	if orgID == "" {
		return nil, apperrors.InvalidInput("Organization ID cannot be empty")
	}

	blocks, err := s.blocks.FindByOrg(ctx, orgID)
	if err != nil {
		s.cfg.Log.Error("Failed to list blocked intervals", "org_id", orgID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve blocked intervals", err)
	}
	return blocks, nil
}

func (s *availabilityService) DeleteBlock(ctx context.Context, orgID string, id string) error {
	if orgID == "" || id == "" {
		return apperrors.InvalidInput("Organization ID and blocked interval ID are required")
	}

	if err := s.blocks.Delete(ctx, orgID, id); err != nil {
		if errors.Is(err, availabilityerrors.ErrBlockNotFound) {
			return apperrors.NotFoundWithID("Blocked interval", id)
		}
		if errors.Is(err, availabilityerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid blocked interval ID format")
		}
		s.cfg.Log.Error("Failed to delete blocked interval", "id", id, "error", err)
		return apperrors.Internal("Failed to delete blocked interval", err)
	}

	s.cfg.Log.Info("Blocked interval deleted", "id", id, "org_id", orgID)
	return nil
}

func (s *availabilityService) OpenRangesOn(ctx context.Context, orgID string, day time.Time) ([]model.TimeRange, error) {
	if orgID == "" {
		return nil, apperrors.InvalidInput("Organization ID cannot be empty")
	}

	local := day.In(s.cfg.Location)
	dateStr := local.Format("2006-01-02")
	dayOfWeek := int(local.Weekday())

	windows, err := s.windows.FindByOrgAndDay(ctx, orgID, dayOfWeek)
	if err != nil {
		s.cfg.Log.Error("Failed to load availability windows", "org_id", orgID, "error", err)
		return nil, apperrors.Internal("Failed to resolve availability", err)
	}

	blocks, err := s.blocks.FindApplicable(ctx, orgID, dateStr, dayOfWeek)
	if err != nil {
		s.cfg.Log.Error("Failed to load blocked intervals", "org_id", orgID, "error", err)
		return nil, apperrors.Internal("Failed to resolve availability", err)
	}

	return resolveOpenRanges(day, s.cfg.Location, windows, blocks), nil
}

// OpenRangesOnDate resolves a YYYY-MM-DD calendar day interpreted in the
// organization's timezone.
func (s *availabilityService) OpenRangesOnDate(ctx context.Context, orgID string, date string) ([]model.TimeRange, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.cfg.Location)
	if err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}
	return s.OpenRangesOn(ctx, orgID, day)
}

// IsOpen reports whether the whole range falls inside a single open
// interval on its start date. A range that straddles local midnight is
// never open because windows are defined per day.
func (s *availabilityService) IsOpen(ctx context.Context, orgID string, rng model.TimeRange) (bool, error) {
	if !rng.End.After(rng.Start) {
		return false, apperrors.InvalidInput("Range end must be after range start")
	}

	open, err := s.OpenRangesOn(ctx, orgID, rng.Start)
	if err != nil {
		return false, err
	}

	for _, o := range open {
		if !rng.Start.Before(o.Start) && !rng.End.After(o.End) {
			return true, nil
		}
	}
	return false, nil
}
