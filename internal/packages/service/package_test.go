package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	packageserrors "coachbook/internal/packages/errors"
	"coachbook/pkg/config"
	apperrors "coachbook/pkg/errors"
	"coachbook/pkg/logger"
	"coachbook/pkg/model"
)

// mockPackageRepository mirrors the atomic bounds-checked semantics of
// the Mongo implementation with a mutex.
type mockPackageRepository struct {
	mu       sync.Mutex
	packages map[string]*model.SessionPackage
}

func newMockPackageRepository(packages ...*model.SessionPackage) *mockPackageRepository {
	m := &mockPackageRepository{packages: make(map[string]*model.SessionPackage)}
	for _, p := range packages {
		m.packages[p.ID] = p
	}
	return m
}

func (m *mockPackageRepository) Create(ctx context.Context, p *model.SessionPackage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = fmt.Sprintf("pkg-%d", len(m.packages)+1)
	}
	m.packages[p.ID] = p
	return nil
}

func (m *mockPackageRepository) FindByID(ctx context.Context, id string) (*model.SessionPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", packageserrors.ErrNotFound, id)
	}
	clone := *p
	return &clone, nil
}

func (m *mockPackageRepository) FindByOrgAndClient(ctx context.Context, orgID string, clientID string) ([]*model.SessionPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SessionPackage
	for _, p := range m.packages {
		if p.OrgID == orgID && p.ClientID == clientID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockPackageRepository) ConsumeCredit(ctx context.Context, id string) (*model.SessionPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", packageserrors.ErrNotFound, id)
	}
	if p.SessionsUsed >= p.SessionsTotal {
		return nil, fmt.Errorf("%w: %s", packageserrors.ErrExhausted, id)
	}
	p.SessionsUsed++
	clone := *p
	return &clone, nil
}

func (m *mockPackageRepository) ReinstateCredit(ctx context.Context, id string) (*model.SessionPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", packageserrors.ErrNotFound, id)
	}
	if p.SessionsUsed <= 0 {
		return nil, fmt.Errorf("%w: %s", packageserrors.ErrNothingToReinstate, id)
	}
	p.SessionsUsed--
	clone := *p
	return &clone, nil
}

func (m *mockPackageRepository) SetPaymentStatus(ctx context.Context, id string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[id]
	if !ok {
		return fmt.Errorf("%w: %s", packageserrors.ErrNotFound, id)
	}
	p.PaymentStatus = status
	return nil
}

func newTestPackageService(repo *mockPackageRepository) *packageService {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return &packageService{
		repo: repo,
		cfg:  &config.Config{Log: log},
		now:  time.Now,
	}
}

func TestConsume_ExhaustedPackage(t *testing.T) {
	repo := newMockPackageRepository(&model.SessionPackage{
		ID:            "pkg-1",
		SessionsTotal: 5,
		SessionsUsed:  5,
		PaymentStatus: config.PaymentSucceeded,
	})
	svc := newTestPackageService(repo)

	err := svc.Consume(context.Background(), "pkg-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCreditExhausted))
}

func TestConsume_UnknownPackage(t *testing.T) {
	svc := newTestPackageService(newMockPackageRepository())

	err := svc.Consume(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestLedgerBounds_UnderConcurrentConsume(t *testing.T) {
	repo := newMockPackageRepository(&model.SessionPackage{
		ID:            "pkg-1",
		SessionsTotal: 5,
		SessionsUsed:  0,
		PaymentStatus: config.PaymentSucceeded,
	})
	svc := newTestPackageService(repo)

	var wg sync.WaitGroup
	errCh := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- svc.Consume(context.Background(), "pkg-1")
		}()
	}
	wg.Wait()
	close(errCh)

	succeeded := 0
	for err := range errCh {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperrors.IsCode(err, apperrors.CodeCreditExhausted))
		}
	}
	assert.Equal(t, 5, succeeded)

	p, err := repo.FindByID(context.Background(), "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.SessionsUsed)
}

func TestReinstate(t *testing.T) {
	repo := newMockPackageRepository(&model.SessionPackage{
		ID:            "pkg-1",
		SessionsTotal: 5,
		SessionsUsed:  2,
		PaymentStatus: config.PaymentSucceeded,
	})
	svc := newTestPackageService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Reinstate(ctx, "pkg-1"))
	require.NoError(t, svc.Reinstate(ctx, "pkg-1"))

	// Floored at zero: further reinstates are no-ops, never negative.
	require.NoError(t, svc.Reinstate(ctx, "pkg-1"))

	p, err := repo.FindByID(ctx, "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.SessionsUsed)
}

func TestUsableRemaining(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name     string
		pkg      model.SessionPackage
		expected int
	}{
		{
			name: "succeeded unexpired",
			pkg: model.SessionPackage{
				ID: "p", SessionsTotal: 5, SessionsUsed: 2,
				PaymentStatus: config.PaymentSucceeded, ExpiresAt: &future,
			},
			expected: 3,
		},
		{
			name: "payment pending gates to zero",
			pkg: model.SessionPackage{
				ID: "p", SessionsTotal: 5, SessionsUsed: 0,
				PaymentStatus: config.PaymentPending,
			},
			expected: 0,
		},
		{
			name: "expired gates to zero",
			pkg: model.SessionPackage{
				ID: "p", SessionsTotal: 5, SessionsUsed: 0,
				PaymentStatus: config.PaymentSucceeded, ExpiresAt: &expired,
			},
			expected: 0,
		},
		{
			name: "no expiry means usable",
			pkg: model.SessionPackage{
				ID: "p", SessionsTotal: 5, SessionsUsed: 5,
				PaymentStatus: config.PaymentSucceeded,
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := tt.pkg
			svc := newTestPackageService(newMockPackageRepository(&pkg))

			remaining, err := svc.UsableRemaining(context.Background(), "p")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, remaining)
		})
	}
}

func TestSetPaymentStatus_RejectsUnknownStatus(t *testing.T) {
	repo := newMockPackageRepository(&model.SessionPackage{ID: "pkg-1", SessionsTotal: 5, PaymentStatus: config.PaymentPending})
	svc := newTestPackageService(repo)

	err := svc.SetPaymentStatus(context.Background(), "pkg-1", "refunded")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	require.NoError(t, svc.SetPaymentStatus(context.Background(), "pkg-1", config.PaymentSucceeded))
}
