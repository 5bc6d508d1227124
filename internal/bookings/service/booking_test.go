package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "coachbook/internal/bookings/errors"
	"coachbook/internal/bookings/validator"
	"coachbook/pkg/client"
	"coachbook/pkg/config"
	apperrors "coachbook/pkg/errors"
	"coachbook/pkg/logger"
	"coachbook/pkg/model"
	mongotx "coachbook/pkg/db/mongo"
)

// mockBookingRepository keeps bookings in memory and runs transaction
// callbacks directly; the lifecycle's guarded updates are reproduced so
// idempotence tests are meaningful.
type mockBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	nextID   int
}

func newMockBookingRepository(bookings ...*model.Booking) *mockBookingRepository {
	m := &mockBookingRepository{bookings: make(map[string]*model.Booking)}
	for _, b := range bookings {
		m.bookings[b.ID] = b
	}
	return m
}

func (m *mockBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		m.nextID++
		b.ID = fmt.Sprintf("686f00000000000000000%03d", m.nextID)
	}
	b.CreatedAt = time.Now()
	clone := *b
	m.bookings[b.ID] = &clone
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (m *mockBookingRepository) FindByOrg(ctx context.Context, orgID string, from, to *time.Time, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.OrgID == orgID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockBookingRepository) CountByOrg(ctx context.Context, orgID string, from, to *time.Time) (int64, error) {
	bookings, _ := m.FindByOrg(ctx, orgID, from, to, 0, 0)
	return int64(len(bookings)), nil
}

func (m *mockBookingRepository) FindOverlapping(ctx context.Context, orgID string, rng model.TimeRange, excludeID string) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.OrgID != orgID || b.ID == excludeID || b.Status == config.StatusCancelled {
			continue
		}
		if b.StartTime.Before(rng.End) && rng.Start.Before(b.EndTime) {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockBookingRepository) Reschedule(ctx context.Context, id string, start, end time.Time, durationMinutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != config.StatusConfirmed {
		return bookingserrors.ErrNotConfirmed
	}
	b.StartTime = start
	b.EndTime = end
	b.DurationMinutes = durationMinutes
	b.ClientConfirmed = false
	b.ConfirmationSentAt = nil
	return nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	return true, nil
}

func (m *mockBookingRepository) MarkConfirmationSent(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.ConfirmationSentAt = &at
	b.ClientConfirmed = false
	return nil
}

func (m *mockBookingRepository) ConfirmByClient(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != config.StatusConfirmed || b.ClientConfirmed || b.ConfirmationSentAt == nil {
		return false, nil
	}
	b.ClientConfirmed = true
	return true, nil
}

func (m *mockBookingRepository) FindCompletable(ctx context.Context, before time.Time, limit int) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.Status == config.StatusConfirmed && !b.EndTime.After(before) {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockLockRepository struct {
	mu     sync.Mutex
	held   map[string]bool
	denied bool
}

func newMockLockRepository() *mockLockRepository {
	return &mockLockRepository{held: make(map[string]bool)}
}

func (m *mockLockRepository) Acquire(ctx context.Context, lock *model.SlotLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denied || m.held[lock.ID] {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	m.held[lock.ID] = true
	return nil
}

func (m *mockLockRepository) Release(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, lockID)
	return nil
}

type stubAvailability struct {
	closed bool
}

func (s *stubAvailability) IsOpen(ctx context.Context, orgID string, rng model.TimeRange) (bool, error) {
	return !s.closed, nil
}

type stubLedger struct {
	mu        sync.Mutex
	remaining map[string]int
	consumed  map[string]int
	failOn    map[string]error
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		remaining: make(map[string]int),
		consumed:  make(map[string]int),
		failOn:    make(map[string]error),
	}
}

func (s *stubLedger) UsableRemaining(ctx context.Context, purchaseID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.remaining[purchaseID]
	if !ok {
		return 0, apperrors.NotFoundWithID("Session package", purchaseID)
	}
	return r, nil
}

func (s *stubLedger) Consume(ctx context.Context, purchaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failOn[purchaseID]; ok {
		return err
	}
	if s.remaining[purchaseID] <= 0 {
		return apperrors.CreditExhausted(purchaseID)
	}
	s.remaining[purchaseID]--
	s.consumed[purchaseID]++
	return nil
}

type stubNotifier struct {
	mu       sync.Mutex
	fail     bool
	requests []string
}

func (s *stubNotifier) record(event string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("broker unavailable")
	}
	s.requests = append(s.requests, event)
	return nil
}

func (s *stubNotifier) RequestConfirmation(ctx context.Context, b *model.Booking) error {
	return s.record("confirmation")
}

func (s *stubNotifier) NotifyRescheduled(ctx context.Context, b *model.Booking) error {
	return s.record("rescheduled")
}

func (s *stubNotifier) NotifyCancelled(ctx context.Context, b *model.Booking) error {
	return s.record("cancelled")
}

func (s *stubNotifier) NotifyCompleted(ctx context.Context, b *model.Booking) error {
	return s.record("completed")
}

type fixture struct {
	svc      *bookingService
	repo     *mockBookingRepository
	locks    *mockLockRepository
	avail    *stubAvailability
	ledger   *stubLedger
	notifier *stubNotifier
	now      time.Time
}

func newFixture(t *testing.T, bookings ...*model.Booking) *fixture {
	t.Helper()

	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})

	cfg := &config.Config{
		Log:               log,
		RequireWaiver:     true,
		CancelNoticeHours: 12,
		GraceMinutes:      5,
		SweepBatchSize:    100,
	}

	repo := newMockBookingRepository(bookings...)
	locks := newMockLockRepository()
	avail := &stubAvailability{}
	ledger := newStubLedger()
	notifier := &stubNotifier{}
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	svc := &bookingService{
		repo:         repo,
		lockRepo:     locks,
		detector:     NewConflictDetector(repo),
		validator:    validator.NewBookingValidator(log),
		availability: avail,
		ledger:       ledger,
		waiver:       client.StaticWaiverChecker{"686f0000000000000000c001": true},
		notifier:     notifier,
		cfg:          cfg,
		now:          func() time.Time { return now },
	}

	return &fixture{
		svc: svc, repo: repo, locks: locks, avail: avail,
		ledger: ledger, notifier: notifier, now: now,
	}
}

const (
	orgID          = "686f0000000000000000a001"
	signedClientID = "686f0000000000000000c001"
	otherClientID  = "686f0000000000000000c002"
	serviceID      = "686f0000000000000000d001"
)

func newBooking(clientID string, start time.Time, durationMinutes int) *model.Booking {
	return &model.Booking{
		OrgID:           orgID,
		ClientID:        clientID,
		ServiceID:       serviceID,
		StartTime:       start,
		DurationMinutes: durationMinutes,
		Source:          config.SourceClient,
	}
}

func TestCreate_Success(t *testing.T) {
	f := newFixture(t)

	booking := newBooking(signedClientID, f.now.Add(48*time.Hour), 60)
	warning, err := f.svc.Create(context.Background(), booking)
	require.NoError(t, err)
	assert.Empty(t, warning)

	assert.Equal(t, config.StatusConfirmed, booking.Status)
	assert.Equal(t, booking.StartTime.Add(time.Hour), booking.EndTime)
	assert.NotNil(t, booking.ConfirmationSentAt)
	assert.False(t, booking.ClientConfirmed)
	assert.Equal(t, []string{"confirmation"}, f.notifier.requests)

	stored, err := f.repo.FindByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.ConfirmationSentAt)
}

func TestCreate_OverlapRejected(t *testing.T) {
	base := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	existing := &model.Booking{
		ID: "686f0000000000000000b001", OrgID: orgID, ClientID: otherClientID,
		StartTime: base, EndTime: base.Add(time.Hour),
		Status: config.StatusConfirmed,
	}
	f := newFixture(t, existing)

	// 10:30-11:30 against an existing 10:00-11:00.
	booking := newBooking(signedClientID, base.Add(30*time.Minute), 60)
	_, err := f.svc.Create(context.Background(), booking)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestCreate_CancelledBookingDoesNotOccupy(t *testing.T) {
	base := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	cancelled := &model.Booking{
		ID: "686f0000000000000000b001", OrgID: orgID, ClientID: otherClientID,
		StartTime: base, EndTime: base.Add(time.Hour),
		Status: config.StatusCancelled,
	}
	f := newFixture(t, cancelled)

	booking := newBooking(signedClientID, base.Add(30*time.Minute), 60)
	_, err := f.svc.Create(context.Background(), booking)
	require.NoError(t, err)
}

func TestCreate_CreditExhausted(t *testing.T) {
	f := newFixture(t)
	f.ledger.remaining["686f0000000000000000e001"] = 0

	booking := newBooking(signedClientID, f.now.Add(48*time.Hour), 60)
	booking.SessionPurchaseID = "686f0000000000000000e001"

	_, err := f.svc.Create(context.Background(), booking)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCreditExhausted))
}

func TestCreate_WaiverRequired(t *testing.T) {
	f := newFixture(t)

	booking := newBooking(otherClientID, f.now.Add(48*time.Hour), 60)
	_, err := f.svc.Create(context.Background(), booking)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeWaiverRequired))
}

func TestCreate_TrainerSourceSkipsWaiver(t *testing.T) {
	f := newFixture(t)

	booking := newBooking(otherClientID, f.now.Add(48*time.Hour), 60)
	booking.Source = config.SourceTrainer
	booking.BookedBy = orgID

	_, err := f.svc.Create(context.Background(), booking)
	require.NoError(t, err)
}

func TestCreate_ClosedTimeRejected(t *testing.T) {
	f := newFixture(t)
	f.avail.closed = true

	booking := newBooking(signedClientID, f.now.Add(48*time.Hour), 60)
	_, err := f.svc.Create(context.Background(), booking)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePolicyViolation))
}

func TestCreate_PastStartRejected(t *testing.T) {
	f := newFixture(t)

	booking := newBooking(signedClientID, f.now.Add(-time.Hour), 60)
	_, err := f.svc.Create(context.Background(), booking)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestCreate_WithinGraceAccepted(t *testing.T) {
	f := newFixture(t)

	booking := newBooking(signedClientID, f.now.Add(-2*time.Minute), 60)
	_, err := f.svc.Create(context.Background(), booking)
	require.NoError(t, err)
}

func TestCreate_SlotLockContention(t *testing.T) {
	f := newFixture(t)
	f.locks.denied = true

	booking := newBooking(signedClientID, f.now.Add(48*time.Hour), 60)
	_, err := f.svc.Create(context.Background(), booking)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestCreate_NotificationFailureIsNonFatal(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail = true

	booking := newBooking(signedClientID, f.now.Add(48*time.Hour), 60)
	warning, err := f.svc.Create(context.Background(), booking)
	require.NoError(t, err)
	assert.NotEmpty(t, warning)

	// The booking exists but no confirmation request was recorded.
	stored, err := f.repo.FindByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ConfirmationSentAt)
}

func TestReschedule_ResetsConfirmation(t *testing.T) {
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	sentAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	existing := &model.Booking{
		ID: "686f0000000000000000b001", OrgID: orgID, ClientID: signedClientID,
		StartTime: start, EndTime: start.Add(time.Hour), DurationMinutes: 60,
		Status: config.StatusConfirmed, Source: config.SourceClient,
		ClientConfirmed: true, ConfirmationSentAt: &sentAt,
	}
	f := newFixture(t, existing)

	newStart := start.Add(24 * time.Hour)
	warning, err := f.svc.Reschedule(context.Background(), existing.ID, newStart, newStart.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, warning)

	stored, err := f.repo.FindByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, newStart, stored.StartTime)
	assert.False(t, stored.ClientConfirmed)
	require.NotNil(t, stored.ConfirmationSentAt)
	assert.True(t, stored.ConfirmationSentAt.After(sentAt))
	assert.Equal(t, []string{"rescheduled"}, f.notifier.requests)
}

func TestReschedule_ConflictLeavesBookingUntouched(t *testing.T) {
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	moving := &model.Booking{
		ID: "686f0000000000000000b001", OrgID: orgID, ClientID: signedClientID,
		StartTime: start, EndTime: start.Add(time.Hour), DurationMinutes: 60,
		Status: config.StatusConfirmed, Source: config.SourceClient,
	}
	blocker := &model.Booking{
		ID: "686f0000000000000000b002", OrgID: orgID, ClientID: otherClientID,
		StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour),
		Status: config.StatusConfirmed, Source: config.SourceTrainer,
	}
	f := newFixture(t, moving, blocker)

	_, err := f.svc.Reschedule(context.Background(), moving.ID, start.Add(2*time.Hour), start.Add(3*time.Hour))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	stored, err := f.repo.FindByID(context.Background(), moving.ID)
	require.NoError(t, err)
	assert.Equal(t, start, stored.StartTime)
}

func TestReschedule_DoesNotConflictWithItself(t *testing.T) {
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	existing := &model.Booking{
		ID: "686f0000000000000000b001", OrgID: orgID, ClientID: signedClientID,
		StartTime: start, EndTime: start.Add(time.Hour), DurationMinutes: 60,
		Status: config.StatusConfirmed, Source: config.SourceClient,
	}
	f := newFixture(t, existing)

	// Shift by 30 minutes into its own previous range.
	_, err := f.svc.Reschedule(context.Background(), existing.ID, start.Add(30*time.Minute), start.Add(90*time.Minute))
	require.NoError(t, err)
}

func TestReschedule_NonConfirmedRejected(t *testing.T) {
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	cancelled := &model.Booking{
		ID: "686f0000000000000000b001", OrgID: orgID, ClientID: signedClientID,
		StartTime: start, EndTime: start.Add(time.Hour),
		Status: config.StatusCancelled, Source: config.SourceClient,
	}
	f := newFixture(t, cancelled)

	_, err := f.svc.Reschedule(context.Background(), cancelled.ID, start.Add(24*time.Hour), start.Add(25*time.Hour))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePolicyViolation))
}

func TestCancel_NoticeWindow(t *testing.T) {
	soon := &model.Booking{
		ID: "686f0000000000000000b001", OrgID: orgID, ClientID: signedClientID,
		StartTime: time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC),
		Status:    config.StatusConfirmed, Source: config.SourceClient,
	}
	f := newFixture(t, soon)

	// 7 hours out, inside the 12 hour client notice window.
	_, err := f.svc.Cancel(context.Background(), soon.ID, config.SourceClient)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePolicyViolation))

	// A trainer may cancel regardless of notice.
	warning, err := f.svc.Cancel(context.Background(), soon.ID, config.SourceTrainer)
	require.NoError(t, err)
	assert.Empty(t, warning)

	stored, err := f.repo.FindByID(context.Background(), soon.ID)
	require.NoError(t, err)
	assert.Equal(t, config.StatusCancelled, stored.Status)

	// Cancelling twice violates the state machine.
	_, err = f.svc.Cancel(context.Background(), soon.ID, config.SourceTrainer)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePolicyViolation))
}

func TestConfirmByClient(t *testing.T) {
	sentAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	pending := &model.Booking{
		ID: "686f0000000000000000b001", OrgID: orgID, ClientID: signedClientID,
		StartTime: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC),
		Status:    config.StatusConfirmed, Source: config.SourceClient,
		ConfirmationSentAt: &sentAt,
	}
	neverAsked := &model.Booking{
		ID: "686f0000000000000000b002", OrgID: orgID, ClientID: signedClientID,
		StartTime: time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 5, 11, 0, 0, 0, time.UTC),
		Status:    config.StatusConfirmed, Source: config.SourceClient,
	}
	f := newFixture(t, pending, neverAsked)
	ctx := context.Background()

	require.NoError(t, f.svc.ConfirmByClient(ctx, pending.ID))
	stored, err := f.repo.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, stored.ClientConfirmed)

	// A second positive reply has nothing pending to confirm.
	err = f.svc.ConfirmByClient(ctx, pending.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePolicyViolation))

	// No confirmation request was ever sent for this one.
	err = f.svc.ConfirmByClient(ctx, neverAsked.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePolicyViolation))

	err = f.svc.ConfirmByClient(ctx, "686f0000000000000000bfff")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestCompleteDue_ConsumesCreditOnceAndIsIdempotent(t *testing.T) {
	past := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	withPackage := &model.Booking{
		ID: "686f0000000000000000b001", OrgID: orgID, ClientID: signedClientID,
		StartTime: past, EndTime: past.Add(time.Hour),
		Status: config.StatusConfirmed, Source: config.SourceClient,
		SessionPurchaseID: "686f0000000000000000e001",
	}
	withoutPackage := &model.Booking{
		ID: "686f0000000000000000b002", OrgID: orgID, ClientID: otherClientID,
		StartTime: past.Add(2 * time.Hour), EndTime: past.Add(3 * time.Hour),
		Status: config.StatusConfirmed, Source: config.SourceTrainer,
	}
	future := &model.Booking{
		ID: "686f0000000000000000b003", OrgID: orgID, ClientID: signedClientID,
		StartTime: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
		Status:    config.StatusConfirmed, Source: config.SourceClient,
	}
	f := newFixture(t, withPackage, withoutPackage, future)
	f.ledger.remaining["686f0000000000000000e001"] = 3
	ctx := context.Background()

	summary, err := f.svc.CompleteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, f.ledger.consumed["686f0000000000000000e001"])

	stored, err := f.repo.FindByID(ctx, withPackage.ID)
	require.NoError(t, err)
	assert.Equal(t, config.StatusCompleted, stored.Status)

	stored, err = f.repo.FindByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, config.StatusConfirmed, stored.Status)

	// Running the sweep again must not double-deduct.
	summary, err = f.svc.CompleteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Scanned)
	assert.Equal(t, 1, f.ledger.consumed["686f0000000000000000e001"])
}

func TestCompleteDue_FailuresAreIsolated(t *testing.T) {
	past := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	failing := &model.Booking{
		ID: "686f0000000000000000b001", OrgID: orgID, ClientID: signedClientID,
		StartTime: past, EndTime: past.Add(time.Hour),
		Status: config.StatusConfirmed, Source: config.SourceClient,
		SessionPurchaseID: "686f0000000000000000e001",
	}
	healthy := &model.Booking{
		ID: "686f0000000000000000b002", OrgID: orgID, ClientID: otherClientID,
		StartTime: past.Add(2 * time.Hour), EndTime: past.Add(3 * time.Hour),
		Status: config.StatusConfirmed, Source: config.SourceTrainer,
	}
	f := newFixture(t, failing, healthy)
	f.ledger.failOn["686f0000000000000000e001"] = apperrors.Internal("mongo unreachable", nil)

	summary, err := f.svc.CompleteDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, summary.Failed)

	stored, err := f.repo.FindByID(context.Background(), healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, config.StatusCompleted, stored.Status)
}

func TestCompleteDue_ExhaustedCreditIsShortfallNotFailure(t *testing.T) {
	past := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	overdrawn := &model.Booking{
		ID: "686f0000000000000000b001", OrgID: orgID, ClientID: signedClientID,
		StartTime: past, EndTime: past.Add(time.Hour),
		Status: config.StatusConfirmed, Source: config.SourceClient,
		SessionPurchaseID: "686f0000000000000000e001",
	}
	f := newFixture(t, overdrawn)
	f.ledger.remaining["686f0000000000000000e001"] = 0

	summary, err := f.svc.CompleteDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scanned)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, f.ledger.consumed["686f0000000000000000e001"])

	stored, err := f.repo.FindByID(context.Background(), overdrawn.ID)
	require.NoError(t, err)
	assert.Equal(t, config.StatusCompleted, stored.Status)

	// The sweep must not keep rediscovering the booking.
	summary, err = f.svc.CompleteDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Scanned)
}
