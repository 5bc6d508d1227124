package service

import (
	"context"
	"errors"
	"time"

	packageserrors "coachbook/internal/packages/errors"
	"coachbook/internal/packages/repository"
	"coachbook/internal/packages/validator"
	"coachbook/pkg/config"
	apperrors "coachbook/pkg/errors"
	"coachbook/pkg/model"
	"coachbook/pkg/sanitizer"
)

// PackageService is the session credit ledger. sessions_used moves only
// through Consume and Reinstate, both backed by atomic bounds-checked
// updates, so the 0 <= used <= total invariant holds under any
// interleaving.
type PackageService interface {
	Create(ctx context.Context, p *model.SessionPackage) error
	GetByID(ctx context.Context, id string) (*model.SessionPackage, error)
	GetByClient(ctx context.Context, orgID string, clientID string) ([]*model.SessionPackage, error)
	Consume(ctx context.Context, purchaseID string) error
	Reinstate(ctx context.Context, purchaseID string) error
	UsableRemaining(ctx context.Context, purchaseID string) (int, error)
	SetPaymentStatus(ctx context.Context, id string, status string) error
}

type packageService struct {
	repo      repository.PackageRepository
	validator *validator.PackageValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewPackageService(
	repo repository.PackageRepository,
	validator *validator.PackageValidator,
	cfg *config.Config,
) PackageService {
	return &packageService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *packageService) Create(ctx context.Context, p *model.SessionPackage) error {
	p.Label = sanitizer.NormalizeLabel(p.Label)
	if p.PaymentStatus == "" {
		p.PaymentStatus = config.PaymentPending
	}

	if err := s.validator.Validate(p); err != nil {
		s.cfg.Log.Warn("Session package validation failed",
			"org_id", p.OrgID,
			"client_id", p.ClientID,
			"error", err,
		)
		return apperrors.Validation("Session package validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.cfg.Log.Error("Failed to create session package",
			"org_id", p.OrgID,
			"client_id", p.ClientID,
			"error", err,
		)
		return apperrors.Internal("Failed to create session package", err)
	}

	s.cfg.Log.Info("Session package created",
		"id", p.ID,
		"org_id", p.OrgID,
		"client_id", p.ClientID,
		"sessions_total", p.SessionsTotal,
	)
	return nil
}

func (s *packageService) GetByID(ctx context.Context, id string) (*model.SessionPackage, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Session package ID cannot be empty")
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve session package")
	}
	return p, nil
}

func (s *packageService) GetByClient(ctx context.Context, orgID string, clientID string) ([]*model.SessionPackage, error) {
	if orgID == "" || clientID == "" {
		return nil, apperrors.InvalidInput("Organization ID and client ID are required")
	}

	packages, err := s.repo.FindByOrgAndClient(ctx, orgID, clientID)
	if err != nil {
		s.cfg.Log.Error("Failed to list session packages",
			"org_id", orgID,
			"client_id", clientID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve session packages", err)
	}
	return packages, nil
}

func (s *packageService) Consume(ctx context.Context, purchaseID string) error {
	if purchaseID == "" {
		return apperrors.InvalidInput("Session package ID cannot be empty")
	}

	p, err := s.repo.ConsumeCredit(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, packageserrors.ErrExhausted) {
			return apperrors.CreditExhausted(purchaseID)
		}
		return s.mapRepoError(err, purchaseID, "Failed to consume session credit")
	}

	s.cfg.Log.Info("Session credit consumed",
		"id", purchaseID,
		"sessions_used", p.SessionsUsed,
		"sessions_total", p.SessionsTotal,
	)
	return nil
}

// Reinstate is the audited trainer correction that hands a credit back.
// The counter floors at zero, so reinstating an untouched package is a
// no-op rather than an error.
func (s *packageService) Reinstate(ctx context.Context, purchaseID string) error {
	if purchaseID == "" {
		return apperrors.InvalidInput("Session package ID cannot be empty")
	}

	p, err := s.repo.ReinstateCredit(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, packageserrors.ErrNothingToReinstate) {
			s.cfg.Log.Warn("Reinstate requested on untouched package", "id", purchaseID)
			return nil
		}
		return s.mapRepoError(err, purchaseID, "Failed to reinstate session credit")
	}

	s.cfg.Log.Info("Session credit reinstated",
		"id", purchaseID,
		"sessions_used", p.SessionsUsed,
		"sessions_total", p.SessionsTotal,
	)
	return nil
}

func (s *packageService) UsableRemaining(ctx context.Context, purchaseID string) (int, error) {
	p, err := s.GetByID(ctx, purchaseID)
	if err != nil {
		return 0, err
	}
	return p.UsableRemaining(s.now()), nil
}

func (s *packageService) SetPaymentStatus(ctx context.Context, id string, status string) error {
	switch status {
	case config.PaymentPending, config.PaymentSucceeded, config.PaymentFailed:
	default:
		return apperrors.InvalidInput("Payment status must be pending, succeeded or failed")
	}

	if err := s.repo.SetPaymentStatus(ctx, id, status); err != nil {
		return s.mapRepoError(err, id, "Failed to set payment status")
	}

	s.cfg.Log.Info("Session package payment status updated", "id", id, "payment_status", status)
	return nil
}

func (s *packageService) mapRepoError(err error, id string, internalMsg string) error {
	if errors.Is(err, packageserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Session package", id)
	}
	if errors.Is(err, packageserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid session package ID format")
	}
	s.cfg.Log.Error(internalMsg, "id", id, "error", err)
	return apperrors.Internal(internalMsg, err)
}
