package redisclient

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLockKeys(t *testing.T) {
	doctor := uuid.MustParse("7d0c2a58-46ab-4b55-9a48-5d9c58b2f0e1")
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "lock:slot:7d0c2a58-46ab-4b55-9a48-5d9c58b2f0e1:1792400400", SlotLockKey(doctor, at))
	assert.Equal(t, SlotLockKey(doctor, at), SlotLockKey(doctor, at.In(time.FixedZone("X", 3600))),
		"the same instant in another zone must map to the same lock")
	assert.Equal(t, "lock:exception:7d0c2a58-46ab-4b55-9a48-5d9c58b2f0e1:2026-10-19", ExceptionLockKey(doctor, "2026-10-19"))
	assert.Equal(t, "reminder:sent:7d0c2a58-46ab-4b55-9a48-5d9c58b2f0e1", ReminderKey(doctor))
}
