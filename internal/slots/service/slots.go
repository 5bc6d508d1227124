package service

import (
	"context"
	"time"

	availabilityservice "coachbook/internal/availability/service"
	"coachbook/pkg/config"
	apperrors "coachbook/pkg/errors"
	"coachbook/pkg/model"
)

// ConflictChecker reports whether a time range overlaps an existing
// occupying booking for the org. Satisfied by the bookings conflict
// detector.
type ConflictChecker interface {
	Overlaps(ctx context.Context, orgID string, rng model.TimeRange, excludeBookingID string) (bool, error)
}

// GridCell is one fixed-granularity tick of the trainer console's day
// view. A trainer may book any open cell regardless of notice or buffer
// rules.
type GridCell struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

const (
	GridCellOpen   = "open"
	GridCellClosed = "closed"
	GridCellBooked = "booked"
)

type SlotService interface {
	// GenerateSlots enumerates candidate start times for the given
	// service duration over the configured lookahead horizon. Results
	// must not be cached: any booking by another actor can invalidate
	// them.
	GenerateSlots(ctx context.Context, orgID string, durationMinutes int) ([]model.Slot, error)

	// Grid returns the trainer console's tick view for one calendar day.
	Grid(ctx context.Context, orgID string, date string) ([]GridCell, error)
}

type slotService struct {
	availability availabilityservice.AvailabilityService
	conflicts    ConflictChecker
	cfg          *config.Config
	now          func() time.Time
}

func NewSlotService(
	availability availabilityservice.AvailabilityService,
	conflicts ConflictChecker,
	cfg *config.Config,
) SlotService {
	return &slotService{
		availability: availability,
		conflicts:    conflicts,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *slotService) GenerateSlots(ctx context.Context, orgID string, durationMinutes int) ([]model.Slot, error) {
	if orgID == "" {
		return nil, apperrors.InvalidInput("Organization ID cannot be empty")
	}
	if durationMinutes <= 0 {
		return nil, apperrors.Validation("Service duration must be positive", map[string]any{
			"duration_minutes": durationMinutes,
		})
	}

	now := s.now().In(s.cfg.Location)
	minStart := now.Add(time.Duration(s.cfg.MinNoticeHours) * time.Hour)
	duration := time.Duration(durationMinutes) * time.Minute
	step := duration + time.Duration(s.cfg.BufferMinutes)*time.Minute

	var slots []model.Slot
	for d := 0; d <= s.cfg.LookaheadDays; d++ {
		day := now.AddDate(0, 0, d)

		open, err := s.availability.OpenRangesOn(ctx, orgID, day)
		if err != nil {
			return nil, err
		}

		for _, rng := range open {
			for start := rng.Start; ; start = start.Add(step) {
				end := start.Add(duration)
				if end.After(rng.End) {
					break
				}
				if start.Before(minStart) {
					continue
				}

				conflict, err := s.conflicts.Overlaps(ctx, orgID, model.TimeRange{Start: start, End: end}, "")
				if err != nil {
					return nil, err
				}
				if conflict {
					continue
				}

				slots = append(slots, model.Slot{StartTime: start, EndTime: end})
			}
		}
	}

	s.cfg.Log.Debug("Slots generated",
		"org_id", orgID,
		"duration_minutes", durationMinutes,
		"count", len(slots),
	)
	return slots, nil
}

func (s *slotService) Grid(ctx context.Context, orgID string, date string) ([]GridCell, error) {
	if orgID == "" {
		return nil, apperrors.InvalidInput("Organization ID cannot be empty")
	}

	day, err := time.ParseInLocation("2006-01-02", date, s.cfg.Location)
	if err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	open, err := s.availability.OpenRangesOn(ctx, orgID, day)
	if err != nil {
		return nil, err
	}

	dayStart, okStart := parseClock(s.cfg.DayStart)
	dayEnd, okEnd := parseClock(s.cfg.DayEnd)
	if !okStart || !okEnd || dayEnd <= dayStart {
		return nil, apperrors.Internal("Operating hours are misconfigured", nil)
	}

	tick := time.Duration(s.cfg.SlotIntervalMinutes) * time.Minute
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.cfg.Location)

	var cells []GridCell
	for m := dayStart; m+s.cfg.SlotIntervalMinutes <= dayEnd; m += s.cfg.SlotIntervalMinutes {
		start := midnight.Add(time.Duration(m) * time.Minute)
		end := start.Add(tick)
		rng := model.TimeRange{Start: start, End: end}

		status := GridCellClosed
		for _, o := range open {
			if !rng.Start.Before(o.Start) && !rng.End.After(o.End) {
				status = GridCellOpen
				break
			}
		}

		if status == GridCellOpen {
			conflict, err := s.conflicts.Overlaps(ctx, orgID, rng, "")
			if err != nil {
				return nil, err
			}
			if conflict {
				status = GridCellBooked
			}
		}

		cells = append(cells, GridCell{StartTime: start, EndTime: end, Status: status})
	}

	return cells, nil
}

func parseClock(hhmm string) (int, bool) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
