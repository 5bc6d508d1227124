package model

import "time"

// SessionPackage is a prepaid bundle of bookable session credits.
// sessions_used only moves through the credit ledger: it is monotonically
// non-decreasing except for an explicit reinstate correction, and never
// exceeds sessions_total.
type SessionPackage struct {
	ID            string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OrgID         string     `json:"org_id" bson:"org_id" validate:"required,mongodb"`
	ClientID      string     `json:"client_id" bson:"client_id" validate:"required,mongodb"`
	Label         string     `json:"label,omitempty" bson:"label,omitempty" validate:"omitempty,max=100"`
	SessionsTotal int        `json:"sessions_total" bson:"sessions_total" validate:"required,min=1,max=500"`
	SessionsUsed  int        `json:"sessions_used" bson:"sessions_used" validate:"min=0"`
	PaymentStatus string     `json:"payment_status" bson:"payment_status" validate:"required,oneof=pending succeeded failed"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// UsableRemaining is the bookable credit at the given instant: zero
// unless payment has succeeded and the package has not expired.
func (p *SessionPackage) UsableRemaining(now time.Time) int {
	if p.PaymentStatus != "succeeded" {
		return 0
	}
	if p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
		return 0
	}
	remaining := p.SessionsTotal - p.SessionsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
