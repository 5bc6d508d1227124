package model

import "time"

// SlotLock is an advisory lock held while a booking create or reschedule
// validates and writes a slot. The _id encodes the org and slot start, so
// a duplicate-key error on insert means another request holds the slot.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
