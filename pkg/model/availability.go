package model

import "time"

// AvailabilityWindow is a recurring weekly opening during which booking
// may be possible. Start and end are local times of day ("HH:MM") in the
// organization's timezone; day 0 is Sunday.
type AvailabilityWindow struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OrgID     string    `json:"org_id" bson:"org_id" validate:"required,mongodb"`
	DayOfWeek int       `json:"day_of_week" bson:"day_of_week" validate:"min=0,max=6"`
	StartTime string    `json:"start_time" bson:"start_time" validate:"required,timeofday"`
	EndTime   string    `json:"end_time" bson:"end_time" validate:"required,timeofday"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// BlockedInterval marks time as unavailable, overriding any window.
// Either Date is set (a one-off block for that calendar day) or DayOfWeek
// is set (a recurring weekly block), never both.
type BlockedInterval struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OrgID     string    `json:"org_id" bson:"org_id" validate:"required,mongodb"`
	Date      string    `json:"date,omitempty" bson:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DayOfWeek *int      `json:"day_of_week,omitempty" bson:"day_of_week,omitempty" validate:"omitempty,min=0,max=6"`
	StartTime string    `json:"start_time" bson:"start_time" validate:"required,timeofday"`
	EndTime   string    `json:"end_time" bson:"end_time" validate:"required,timeofday"`
	Reason    string    `json:"reason,omitempty" bson:"reason,omitempty" validate:"omitempty,max=200"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// AppliesTo reports whether the block covers the given calendar day.
func (b *BlockedInterval) AppliesTo(date string, dayOfWeek int) bool {
	if b.Date != "" {
		return b.Date == date
	}
	return b.DayOfWeek != nil && *b.DayOfWeek == dayOfWeek
}
