package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "coachbook/internal/bookings/errors"
	"coachbook/internal/bookings/repository"
	"coachbook/internal/bookings/validator"
	"coachbook/internal/notify"
	"coachbook/pkg/client"
	"coachbook/pkg/config"
	apperrors "coachbook/pkg/errors"
	"coachbook/pkg/model"
	"coachbook/pkg/sanitizer"
)

// AvailabilityChecker is the slice of the availability service the
// lifecycle needs: a single authoritative open/closed answer.
type AvailabilityChecker interface {
	IsOpen(ctx context.Context, orgID string, rng model.TimeRange) (bool, error)
}

// CreditLedger is the slice of the packages service the lifecycle needs.
// Consume is called inside the completion transaction so a failed
// deduction rolls the completion back.
type CreditLedger interface {
	UsableRemaining(ctx context.Context, purchaseID string) (int, error)
	Consume(ctx context.Context, purchaseID string) error
}

// SweepSummary reports one AutoComplete pass. Per-item failures are
// isolated so one bad booking never aborts the rest of the batch.
type SweepSummary struct {
	Scanned   int `json:"scanned"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

type BookingService interface {
	// Create validates and inserts a confirmed booking. The returned
	// warning is non-empty when the booking succeeded but the
	// confirmation notification could not be sent.
	Create(ctx context.Context, booking *model.Booking) (string, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByOrg(ctx context.Context, orgID string, from, to *time.Time, limit int, offset int64) ([]*model.Booking, int64, error)
	Reschedule(ctx context.Context, id string, newStart, newEnd time.Time) (string, error)
	Cancel(ctx context.Context, id string, actor string) (string, error)
	ConfirmByClient(ctx context.Context, id string) error
	CompleteDue(ctx context.Context) (SweepSummary, error)
}

type bookingService struct {
	repo         repository.BookingRepository
	lockRepo     repository.SlotLockRepository
	detector     *ConflictDetector
	validator    *validator.BookingValidator
	availability AvailabilityChecker
	ledger       CreditLedger
	waiver       client.WaiverChecker
	notifier     notify.Notifier
	cfg          *config.Config
	now          func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.SlotLockRepository,
	detector *ConflictDetector,
	validator *validator.BookingValidator,
	availability AvailabilityChecker,
	ledger CreditLedger,
	waiver client.WaiverChecker,
	notifier notify.Notifier,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:         repo,
		lockRepo:     lockRepo,
		detector:     detector,
		validator:    validator,
		availability: availability,
		ledger:       ledger,
		waiver:       waiver,
		notifier:     notifier,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) (string, error) {
	s.applyDefaults(booking)
	booking.Notes = sanitizer.NormalizeNotes(booking.Notes)

	if err := s.validate(booking); err != nil {
		return "", err
	}
	if err := s.checkNotInPast(booking.StartTime); err != nil {
		return "", err
	}

	if err := s.checkWaiver(ctx, booking); err != nil {
		return "", err
	}
	if err := s.checkOpen(ctx, booking.OrgID, model.TimeRange{Start: booking.StartTime, End: booking.EndTime}); err != nil {
		return "", err
	}
	if err := s.checkCredit(ctx, booking.SessionPurchaseID); err != nil {
		return "", err
	}

	// Advisory lock on the slot narrows the race window between the
	// overlap re-check and the insert to transaction-level guarantees.
	lockID, err := s.acquireSlotLock(ctx, booking.OrgID, booking.StartTime)
	if err != nil {
		return "", err
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.checkConflict(sessCtx, booking.OrgID, model.TimeRange{Start: booking.StartTime, End: booking.EndTime}, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking",
			"org_id", booking.OrgID,
			"client_id", booking.ClientID,
			"start_time", booking.StartTime,
			"error", err,
		)
		return "", err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"org_id", booking.OrgID,
		"client_id", booking.ClientID,
		"start_time", booking.StartTime,
		"source", booking.Source,
	)

	warning := s.requestConfirmation(ctx, booking)
	return warning, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetByOrg(ctx context.Context, orgID string, from, to *time.Time, limit int, offset int64) ([]*model.Booking, int64, error) {
	if orgID == "" {
		return nil, 0, apperrors.InvalidInput("Organization ID cannot be empty")
	}

	count, err := s.repo.CountByOrg(ctx, orgID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to count bookings", "org_id", orgID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count bookings", err)
	}

	bookings, err := s.repo.FindByOrg(ctx, orgID, from, to, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "org_id", orgID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
	}

	return bookings, count, nil
}

func (s *bookingService) Reschedule(ctx context.Context, id string, newStart, newEnd time.Time) (string, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if booking.Status != config.StatusConfirmed {
		return "", apperrors.PolicyViolation("Only confirmed bookings can be rescheduled")
	}

	if !newEnd.After(newStart) {
		return "", apperrors.Validation("New end time must be after new start time", nil)
	}
	if err := s.checkNotInPast(newStart); err != nil {
		return "", err
	}
	if err := s.checkOpen(ctx, booking.OrgID, model.TimeRange{Start: newStart, End: newEnd}); err != nil {
		return "", err
	}

	durationMinutes := int(newEnd.Sub(newStart) / time.Minute)

	lockID, err := s.acquireSlotLock(ctx, booking.OrgID, newStart)
	if err != nil {
		return "", err
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.checkConflict(sessCtx, booking.OrgID, model.TimeRange{Start: newStart, End: newEnd}, id); err != nil {
			return err
		}
		if err := s.repo.Reschedule(sessCtx, id, newStart, newEnd, durationMinutes); err != nil {
			if errors.Is(err, bookingserrors.ErrNotConfirmed) {
				return apperrors.PolicyViolation("Only confirmed bookings can be rescheduled")
			}
			return apperrors.Internal("Failed to reschedule booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to reschedule booking", "id", id, "error", err)
		return "", err
	}

	booking.StartTime = newStart
	booking.EndTime = newEnd
	booking.DurationMinutes = durationMinutes
	booking.ClientConfirmed = false
	booking.ConfirmationSentAt = nil

	s.cfg.Log.Info("Booking rescheduled successfully",
		"id", id,
		"org_id", booking.OrgID,
		"new_start", newStart,
		"new_end", newEnd,
	)

	warning := s.requestRescheduleConfirmation(ctx, booking)
	return warning, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string, actor string) (string, error) {
	if actor != config.SourceClient && actor != config.SourceTrainer {
		return "", apperrors.InvalidInput("Actor must be 'client' or 'trainer'")
	}

	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if booking.Status != config.StatusConfirmed {
		return "", apperrors.PolicyViolation("Only confirmed bookings can be cancelled")
	}

	// Clients must respect the cancellation notice window; trainers may
	// cancel at any time.
	if actor == config.SourceClient {
		notice := time.Duration(s.cfg.CancelNoticeHours) * time.Hour
		if booking.StartTime.Before(s.now().Add(notice)) {
			return "", apperrors.PolicyViolation(fmt.Sprintf(
				"Cancellation requires at least %d hours notice", s.cfg.CancelNoticeHours,
			))
		}
	}

	moved, err := s.repo.UpdateStatus(ctx, id, config.StatusConfirmed, config.StatusCancelled)
	if err != nil {
		s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
		return "", apperrors.Internal("Failed to cancel booking", err)
	}
	if !moved {
		return "", apperrors.PolicyViolation("Only confirmed bookings can be cancelled")
	}

	booking.Status = config.StatusCancelled
	s.cfg.Log.Info("Booking cancelled", "id", id, "org_id", booking.OrgID, "actor", actor)

	var warning string
	if err := s.notifier.NotifyCancelled(ctx, booking); err != nil {
		s.cfg.Log.Warn("Cancellation notification failed", "id", id, "error", err)
		warning = "Booking cancelled but the cancellation notification could not be sent"
	}
	return warning, nil
}

func (s *bookingService) ConfirmByClient(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	confirmed, err := s.repo.ConfirmByClient(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to record client confirmation", "id", id, "error", err)
		return apperrors.Internal("Failed to record client confirmation", err)
	}
	if !confirmed {
		// Distinguish an unknown booking from one with nothing pending.
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return apperrors.PolicyViolation("Booking has no confirmation pending")
	}

	s.cfg.Log.Info("Client confirmed booking", "id", id)
	return nil
}

// CompleteDue promotes confirmed bookings whose end time has passed to
// completed, consuming one session credit for package-linked bookings.
// Completion and deduction commit in the same transaction. Safe to run
// concurrently with itself: the status guard makes each item move at
// most once.
func (s *bookingService) CompleteDue(ctx context.Context) (SweepSummary, error) {
	due, err := s.repo.FindCompletable(ctx, s.now(), s.cfg.SweepBatchSize)
	if err != nil {
		return SweepSummary{}, apperrors.Internal("Failed to find completable bookings", err)
	}

	summary := SweepSummary{Scanned: len(due)}
	for _, booking := range due {
		if err := s.completeOne(ctx, booking); err != nil {
			summary.Failed++
			s.cfg.Log.Error("Failed to complete booking",
				"id", booking.ID,
				"org_id", booking.OrgID,
				"session_purchase_id", booking.SessionPurchaseID,
				"error", err,
			)
			continue
		}
		summary.Completed++
	}

	return summary, nil
}

func (s *bookingService) completeOne(ctx context.Context, booking *model.Booking) error {
	var moved bool
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var err error
		moved, err = s.repo.UpdateStatus(sessCtx, booking.ID, config.StatusConfirmed, config.StatusCompleted)
		if err != nil {
			return apperrors.Internal("Failed to complete booking", err)
		}
		if !moved {
			// Another sweep got here first.
			return nil
		}
		if booking.SessionPurchaseID != "" {
			if err := s.ledger.Consume(sessCtx, booking.SessionPurchaseID); err != nil {
				// An exhausted or missing package can never satisfy the
				// deduction; keep the completion and record the shortfall
				// so the sweep does not re-fail this booking forever.
				if apperrors.IsCode(err, apperrors.CodeCreditExhausted) ||
					apperrors.IsCode(err, apperrors.CodeNotFound) {
					s.cfg.Log.Warn("Booking completed without credit deduction",
						"id", booking.ID,
						"org_id", booking.OrgID,
						"session_purchase_id", booking.SessionPurchaseID,
						"error", err,
					)
					return nil
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !moved {
		return nil
	}

	booking.Status = config.StatusCompleted
	s.cfg.Log.Info("Booking completed",
		"id", booking.ID,
		"org_id", booking.OrgID,
		"session_purchase_id", booking.SessionPurchaseID,
	)

	if err := s.notifier.NotifyCompleted(ctx, booking); err != nil {
		s.cfg.Log.Warn("Completion notification failed", "id", booking.ID, "error", err)
	}
	return nil
}

// --- Helpers ---

func (s *bookingService) applyDefaults(b *model.Booking) {
	b.Status = config.StatusConfirmed
	b.ClientConfirmed = false
	b.ConfirmationSentAt = nil
	if b.BookedBy == "" {
		b.BookedBy = b.ClientID
	}
	if b.DurationMinutes > 0 {
		b.EndTime = b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
	} else if b.EndTime.After(b.StartTime) {
		b.DurationMinutes = int(b.EndTime.Sub(b.StartTime) / time.Minute)
	}
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) checkNotInPast(start time.Time) error {
	grace := time.Duration(s.cfg.GraceMinutes) * time.Minute
	if start.Before(s.now().Add(-grace)) {
		return apperrors.Validation("Booking start time is in the past", map[string]any{
			"start_time": start.Format(time.RFC3339),
		})
	}
	return nil
}

func (s *bookingService) checkWaiver(ctx context.Context, b *model.Booking) error {
	if !s.cfg.RequireWaiver || b.Source != config.SourceClient {
		return nil
	}

	signed, err := s.waiver.HasSignedWaiver(ctx, b.ClientID)
	if err != nil {
		s.cfg.Log.Error("Waiver check failed", "client_id", b.ClientID, "error", err)
		return apperrors.Internal("Failed to verify waiver status", err)
	}
	if !signed {
		return apperrors.WaiverRequired(b.ClientID)
	}
	return nil
}

func (s *bookingService) checkOpen(ctx context.Context, orgID string, rng model.TimeRange) error {
	open, err := s.availability.IsOpen(ctx, orgID, rng)
	if err != nil {
		return err
	}
	if !open {
		return apperrors.PolicyViolation("Requested time is outside the organization's open hours")
	}
	return nil
}

func (s *bookingService) checkCredit(ctx context.Context, purchaseID string) error {
	if purchaseID == "" {
		return nil
	}

	remaining, err := s.ledger.UsableRemaining(ctx, purchaseID)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return apperrors.CreditExhausted(purchaseID)
	}
	return nil
}

func (s *bookingService) checkConflict(ctx context.Context, orgID string, rng model.TimeRange, excludeID string) error {
	conflict, err := s.detector.Overlaps(ctx, orgID, rng, excludeID)
	if err != nil {
		return err
	}
	if conflict {
		return apperrors.Conflict(fmt.Sprintf(
			"Booking time overlaps an existing booking (%s - %s)",
			rng.Start.Format(time.RFC3339),
			rng.End.Format(time.RFC3339),
		))
	}
	return nil
}

func (s *bookingService) acquireSlotLock(ctx context.Context, orgID string, startTime time.Time) (string, error) {
	lockID := repository.SlotLockID(orgID, startTime)

	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: s.now().Add(10 * time.Second),
	}

	if err := s.lockRepo.Acquire(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

func (s *bookingService) requestConfirmation(ctx context.Context, booking *model.Booking) string {
	if err := s.notifier.RequestConfirmation(ctx, booking); err != nil {
		s.cfg.Log.Warn("Confirmation request failed", "id", booking.ID, "error", err)
		return "Booking created but the confirmation request could not be sent"
	}

	sentAt := s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.MarkConfirmationSent(ctx, booking.ID, sentAt); err != nil {
		s.cfg.Log.Warn("Failed to stamp confirmation_sent_at", "id", booking.ID, "error", err)
		return ""
	}
	booking.ConfirmationSentAt = &sentAt
	return ""
}

func (s *bookingService) requestRescheduleConfirmation(ctx context.Context, booking *model.Booking) string {
	if err := s.notifier.NotifyRescheduled(ctx, booking); err != nil {
		s.cfg.Log.Warn("Reschedule notification failed", "id", booking.ID, "error", err)
		return "Booking rescheduled but the confirmation request could not be sent"
	}

	sentAt := s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.MarkConfirmationSent(ctx, booking.ID, sentAt); err != nil {
		s.cfg.Log.Warn("Failed to stamp confirmation_sent_at", "id", booking.ID, "error", err)
		return ""
	}
	booking.ConfirmationSentAt = &sentAt
	return ""
}
