package purchase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/crosspay/types"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()
	allowed := [][2]State{
		{StateIdle, StateValidating},
		{StateValidating, StateSubmitting},
		{StateValidating, StateApproving},
		{StateApproving, StateSubmitting},
		{StateSubmitting, StateAwaitingConfirmation},
		{StateAwaitingConfirmation, StateConfirmed},
		{StateAwaitingConfirmation, StateFailed},
		{StateConfirmed, StateIdle},
		{StateFailed, StateIdle},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]State{
		{StateIdle, StateSubmitting},
		{StateSubmitting, StateApproving},
		{StateConfirmed, StateFailed},
		{StateFailed, StateConfirmed},
		{StateAwaitingConfirmation, StateSubmitting},
		{StateValidating, StateConfirmed},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestAttemptAdvance(t *testing.T) {
	t.Parallel()
	a := newAttempt(types.PaymentKindNative)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, StateIdle, a.State())

	require.NoError(t, a.Advance(StateValidating))
	require.NoError(t, a.Advance(StateSubmitting))

	err := a.Advance(StateApproving)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateSubmitting, a.State())

	assert.Equal(t, []State{StateIdle, StateValidating, StateSubmitting}, a.History())
}

func TestAttemptIDsAreUnique(t *testing.T) {
	t.Parallel()
	assert.NotEqual(t, newAttempt(types.PaymentKindToken).ID, newAttempt(types.PaymentKindToken).ID)
}
