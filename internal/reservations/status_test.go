package reservations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValidity(t *testing.T) {
	assert.True(t, StatusConfirmedPending.IsValid())
	assert.True(t, StatusConfirmed.IsValid())
	assert.True(t, StatusCancelled.IsValid())
	assert.False(t, Status("PAID").IsValid())
}

func TestStatusCapabilities(t *testing.T) {
	assert.True(t, StatusConfirmedPending.CanConfirm())
	assert.False(t, StatusConfirmed.CanConfirm())
	assert.False(t, StatusCancelled.CanConfirm())

	assert.True(t, StatusConfirmedPending.CanCancel())
	assert.True(t, StatusConfirmed.CanCancel())
	assert.False(t, StatusCancelled.CanCancel())
}
