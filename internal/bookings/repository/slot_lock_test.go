package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"coachbook/pkg/config"
)

// The lock key must be deterministic: two requests for the same org and
// start instant have to collide on _id for the advisory lock to work.
func TestSlotLockID(t *testing.T) {
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	id := SlotLockID("686f0000000000000000a001", start)
	assert.Equal(t, "org:686f0000000000000000a001:slot:1772618400", id)

	// Same instant in another zone yields the same key.
	brisbane, err := time.LoadLocation("Australia/Brisbane")
	assert.NoError(t, err)
	assert.Equal(t, id, SlotLockID("686f0000000000000000a001", start.In(brisbane)))

	// A different slot or org must not collide.
	assert.NotEqual(t, id, SlotLockID("686f0000000000000000a001", start.Add(15*time.Minute)))
	assert.NotEqual(t, id, SlotLockID("686f0000000000000000a002", start))
}

// Constructor signature used by the service binaries.
var _ func(*config.Config) SlotLockRepository = NewMongoSlotLockRepository
