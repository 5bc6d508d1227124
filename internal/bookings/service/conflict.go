package service

import (
	"context"

	"coachbook/internal/bookings/repository"
	apperrors "coachbook/pkg/errors"
	"coachbook/pkg/model"
)

// ConflictDetector answers whether a time range collides with an
// occupying booking. It is the only overlap authority: slot generation,
// the trainer grid, create and reschedule all go through it.
type ConflictDetector struct {
	repo repository.BookingRepository
}

func NewConflictDetector(repo repository.BookingRepository) *ConflictDetector {
	return &ConflictDetector{repo: repo}
}

// Overlaps reports whether [rng.Start, rng.End) intersects any
// non-cancelled booking for the org. Two half-open intervals conflict
// iff a1 < b2 and b1 < a2. excludeBookingID lets a reschedule skip the
// booking being moved.
func (d *ConflictDetector) Overlaps(ctx context.Context, orgID string, rng model.TimeRange, excludeBookingID string) (bool, error) {
	if !rng.End.After(rng.Start) {
		return false, apperrors.InvalidInput("Range end must be after range start")
	}

	existing, err := d.repo.FindOverlapping(ctx, orgID, rng, excludeBookingID)
	if err != nil {
		return false, apperrors.Internal("Failed to check existing bookings", err)
	}
	return len(existing) > 0, nil
}
