package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

func TestErrorMatchesSentinelOfSameKind(t *testing.T) {
	err := fmt.Errorf("book: %w", apperr.SlotUnavailable("doctor busy at %s", "09:00"))

	assert.True(t, errors.Is(err, apperr.ErrSlotUnavailable))
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
	assert.Equal(t, apperr.KindSlotUnavailable, apperr.KindOf(err))
	assert.Equal(t, "book: doctor busy at 09:00", err.Error())
}

func TestServiceFailureKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperr.ServiceFailure(cause, "complete appointment")

	assert.True(t, errors.Is(err, apperr.ErrServiceFailure))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestModificationNotAllowedDetails(t *testing.T) {
	err := fmt.Errorf("cancel: %w",
		apperr.ModificationNotAllowed(apperr.DetailRemainingHours, 5, "too late to cancel"))

	n, ok := apperr.DetailInt(err, apperr.DetailRemainingHours)
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	_, ok = apperr.DetailInt(err, apperr.DetailRemainingBusinessDays)
	assert.False(t, ok)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(errors.New("boom")))
}
