package order

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	all := []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

	// The full matrix, every ordered pair of the closed set.
	allowed := map[[2]Status]bool{
		{StatusPending, StatusProcessing}:   true,
		{StatusPending, StatusShipped}:      true,
		{StatusPending, StatusDelivered}:    true,
		{StatusPending, StatusCancelled}:    true,
		{StatusProcessing, StatusShipped}:   true,
		{StatusProcessing, StatusDelivered}: true,
		{StatusProcessing, StatusCancelled}: true,
		{StatusShipped, StatusDelivered}:    true,
		{StatusShipped, StatusCancelled}:    true,
	}

	for _, current := range all {
		for _, requested := range all {
			want := allowed[[2]Status{current, requested}]
			got := CanTransition(current, requested)
			assert.Equalf(t, want, got, "%s -> %s", current, requested)
		}
	}
}

func TestCanTransitionNoSelfTransition(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.Falsef(t, CanTransition(s, s), "%s -> %s must not be a transition", s, s)
	}
}

func TestCanTransitionProcessingNotBackToPending(t *testing.T) {
	t.Parallel()

	assert.False(t, CanTransition(StatusProcessing, StatusPending))
}

func TestCanTransitionTerminalStatesFrozen(t *testing.T) {
	t.Parallel()

	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		for _, requested := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
			assert.Falsef(t, CanTransition(terminal, requested), "%s -> %s", terminal, requested)
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	t.Parallel()

	const bogus = Status("refunded")

	for _, s := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.Falsef(t, CanTransition(bogus, s), "unknown -> %s", s)
		assert.Falsef(t, CanTransition(s, bogus), "%s -> unknown", s)
	}
	assert.False(t, CanTransition(bogus, bogus))
	assert.False(t, CanTransition(Status(""), StatusPending))
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"pending", "processing", "shipped", "delivered", "cancelled"} {
		s, err := ParseStatus(raw)
		require.NoError(t, err)
		require.Equal(t, Status(raw), s)
	}

	for _, raw := range []string{"", "Pending", "PENDING", "canceled", "refunded", "shipped "} {
		_, err := ParseStatus(raw)
		require.Errorf(t, err, "%q should not parse", raw)
		require.True(t, errors.Is(err, ErrUnknownStatus))
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTerminal(StatusDelivered))
	assert.True(t, IsTerminal(StatusCancelled))
	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusProcessing))
	assert.False(t, IsTerminal(StatusShipped))
}

func TestLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Order Placed", StatusPending.Label())
	assert.Equal(t, "Processing", StatusProcessing.Label())
	assert.Equal(t, "Shipped", StatusShipped.Label())
	assert.Equal(t, "Delivered", StatusDelivered.Label())
	assert.Equal(t, "Cancelled", StatusCancelled.Label())

	// Unknown values render as the pending label, not as raw input.
	assert.Equal(t, "Order Placed", Status("refunded").Label())
	assert.Equal(t, "Order Placed", Status("").Label())
}

func TestStatusOrder(t *testing.T) {
	t.Parallel()

	want := []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered}
	require.Equal(t, want, StatusOrder())

	// Callers get a private copy; mutating it must not leak into later calls.
	got := StatusOrder()
	got[0] = StatusCancelled
	require.Equal(t, want, StatusOrder())
}
