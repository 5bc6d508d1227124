package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachbook/pkg/config"
	"coachbook/pkg/logger"
	"coachbook/pkg/model"
)

type stubAvailability struct {
	openRangesFunc func(day time.Time) []model.TimeRange
}

func (s *stubAvailability) CreateWindow(ctx context.Context, w *model.AvailabilityWindow) error {
	return nil
}

func (s *stubAvailability) GetWindows(ctx context.Context, orgID string) ([]*model.AvailabilityWindow, error) {
	return nil, nil
}

func (s *stubAvailability) DeleteWindow(ctx context.Context, orgID string, id string) error {
	return nil
}

func (s *stubAvailability) CreateBlock(ctx context.Context, b *model.BlockedInterval) error {
	return nil
}

func (s *stubAvailability) GetBlocks(ctx context.Context, orgID string) ([]*model.BlockedInterval, error) {
	return nil, nil
}

func (s *stubAvailability) DeleteBlock(ctx context.Context, orgID string, id string) error {
	return nil
}

func (s *stubAvailability) OpenRangesOn(ctx context.Context, orgID string, day time.Time) ([]model.TimeRange, error) {
	if s.openRangesFunc != nil {
		return s.openRangesFunc(day), nil
	}
	return nil, nil
}

func (s *stubAvailability) OpenRangesOnDate(ctx context.Context, orgID string, date string) ([]model.TimeRange, error) {
	return nil, nil
}

func (s *stubAvailability) IsOpen(ctx context.Context, orgID string, rng model.TimeRange) (bool, error) {
	return false, nil
}

type stubConflicts struct {
	booked []model.TimeRange
}

func (s *stubConflicts) Overlaps(ctx context.Context, orgID string, rng model.TimeRange, excludeBookingID string) (bool, error) {
	for _, b := range s.booked {
		if b.Overlaps(rng) {
			return true, nil
		}
	}
	return false, nil
}

func newTestSlotService(t *testing.T, openRanges func(day time.Time) []model.TimeRange, booked []model.TimeRange, now time.Time) *slotService {
	t.Helper()

	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	loc, err := time.LoadLocation("Australia/Brisbane")
	require.NoError(t, err)

	cfg := &config.Config{
		Log:                 log,
		Location:            loc,
		MinNoticeHours:      24,
		BufferMinutes:       15,
		SlotIntervalMinutes: 15,
		LookaheadDays:       30,
		DayStart:            "06:00",
		DayEnd:              "21:00",
	}

	return &slotService{
		availability: &stubAvailability{openRangesFunc: openRanges},
		conflicts:    &stubConflicts{booked: booked},
		cfg:          cfg,
		now:          func() time.Time { return now },
	}
}

func TestGenerateSlots_StepIsDurationPlusBuffer(t *testing.T) {
	loc, err := time.LoadLocation("Australia/Brisbane")
	require.NoError(t, err)

	// 2026-03-09 is a Monday with a single 09:00-12:00 window; now is a
	// week earlier, so minimum notice filters nothing.
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, loc)

	openRanges := func(day time.Time) []model.TimeRange {
		if day.In(loc).Format("2006-01-02") != "2026-03-09" {
			return nil
		}
		return []model.TimeRange{{
			Start: time.Date(2026, 3, 9, 9, 0, 0, 0, loc),
			End:   time.Date(2026, 3, 9, 12, 0, 0, 0, loc),
		}}
	}

	svc := newTestSlotService(t, openRanges, nil, now)

	slots, err := svc.GenerateSlots(context.Background(), "org1", 60)
	require.NoError(t, err)

	// 60 min duration plus 15 min buffer walks 09:00, 10:15, 11:30;
	// 11:30+60 overshoots the window close so only two slots remain.
	require.Len(t, slots, 2)
	assert.Equal(t, time.Date(2026, 3, 9, 9, 0, 0, 0, loc), slots[0].StartTime)
	assert.Equal(t, time.Date(2026, 3, 9, 10, 0, 0, 0, loc), slots[0].EndTime)
	assert.Equal(t, time.Date(2026, 3, 9, 10, 15, 0, 0, loc), slots[1].StartTime)
	assert.Equal(t, monday.Add(11*time.Hour+15*time.Minute), slots[1].EndTime)
}

func TestGenerateSlots_MinimumNoticeFiltersEarlyStarts(t *testing.T) {
	loc, err := time.LoadLocation("Australia/Brisbane")
	require.NoError(t, err)

	// Now is Monday 09:30; the same day's 09:00-12:00 window is entirely
	// inside the 24h notice period, next Monday's is not.
	now := time.Date(2026, 3, 9, 9, 30, 0, 0, loc)

	openRanges := func(day time.Time) []model.TimeRange {
		d := day.In(loc)
		if d.Weekday() != time.Monday {
			return nil
		}
		return []model.TimeRange{{
			Start: time.Date(d.Year(), d.Month(), d.Day(), 9, 0, 0, 0, loc),
			End:   time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc),
		}}
	}

	svc := newTestSlotService(t, openRanges, nil, now)

	slots, err := svc.GenerateSlots(context.Background(), "org1", 60)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	for _, slot := range slots {
		assert.False(t, slot.StartTime.Before(now.Add(24*time.Hour)),
			"slot %v violates minimum notice", slot.StartTime)
	}
	assert.Equal(t, time.Date(2026, 3, 16, 9, 0, 0, 0, loc), slots[0].StartTime)
}

func TestGenerateSlots_ConflictingSlotSuppressed(t *testing.T) {
	loc, err := time.LoadLocation("Australia/Brisbane")
	require.NoError(t, err)

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, loc)

	openRanges := func(day time.Time) []model.TimeRange {
		if day.In(loc).Format("2006-01-02") != "2026-03-09" {
			return nil
		}
		return []model.TimeRange{{
			Start: time.Date(2026, 3, 9, 9, 0, 0, 0, loc),
			End:   time.Date(2026, 3, 9, 12, 0, 0, 0, loc),
		}}
	}

	booked := []model.TimeRange{{
		Start: time.Date(2026, 3, 9, 10, 0, 0, 0, loc),
		End:   time.Date(2026, 3, 9, 11, 0, 0, 0, loc),
	}}

	svc := newTestSlotService(t, openRanges, booked, now)

	slots, err := svc.GenerateSlots(context.Background(), "org1", 60)
	require.NoError(t, err)

	// 10:15-11:15 overlaps the 10:00-11:00 booking and must not appear.
	require.Len(t, slots, 1)
	assert.Equal(t, time.Date(2026, 3, 9, 9, 0, 0, 0, loc), slots[0].StartTime)
}

func TestGenerateSlots_InvalidDuration(t *testing.T) {
	loc, err := time.LoadLocation("Australia/Brisbane")
	require.NoError(t, err)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, loc)

	svc := newTestSlotService(t, nil, nil, now)

	_, err = svc.GenerateSlots(context.Background(), "org1", 0)
	require.Error(t, err)

	_, err = svc.GenerateSlots(context.Background(), "org1", -30)
	require.Error(t, err)
}

func TestGrid(t *testing.T) {
	loc, err := time.LoadLocation("Australia/Brisbane")
	require.NoError(t, err)

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, loc)

	openRanges := func(day time.Time) []model.TimeRange {
		return []model.TimeRange{{
			Start: time.Date(2026, 3, 9, 9, 0, 0, 0, loc),
			End:   time.Date(2026, 3, 9, 10, 0, 0, 0, loc),
		}}
	}

	booked := []model.TimeRange{{
		Start: time.Date(2026, 3, 9, 9, 30, 0, 0, loc),
		End:   time.Date(2026, 3, 9, 9, 45, 0, 0, loc),
	}}

	svc := newTestSlotService(t, openRanges, booked, now)

	cells, err := svc.Grid(context.Background(), "org1", "2026-03-09")
	require.NoError(t, err)

	// 06:00 through 21:00 at 15 minute ticks.
	require.Len(t, cells, 60)

	byStart := make(map[string]GridCell, len(cells))
	for _, c := range cells {
		byStart[c.StartTime.Format("15:04")] = c
	}

	assert.Equal(t, GridCellClosed, byStart["08:45"].Status)
	assert.Equal(t, GridCellOpen, byStart["09:00"].Status)
	assert.Equal(t, GridCellOpen, byStart["09:15"].Status)
	assert.Equal(t, GridCellBooked, byStart["09:30"].Status)
	assert.Equal(t, GridCellOpen, byStart["09:45"].Status)
	assert.Equal(t, GridCellClosed, byStart["10:00"].Status)
}

func TestGrid_InvalidDate(t *testing.T) {
	loc, err := time.LoadLocation("Australia/Brisbane")
	require.NoError(t, err)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, loc)

	svc := newTestSlotService(t, nil, nil, now)

	_, err = svc.Grid(context.Background(), "org1", "not-a-date")
	require.Error(t, err)
}
