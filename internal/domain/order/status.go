package order

import "github.com/go-faster/errors"

// Status is the closed set of lifecycle states an order moves through.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ErrUnknownStatus is returned by ParseStatus for values outside the closed set.
var ErrUnknownStatus = errors.New("unknown order status")

// ladder is the forward fulfillment progression. Cancelled is a side branch
// and deliberately not part of it.
var ladder = [...]Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered}

var labels = map[Status]string{
	StatusPending:    "Order Placed",
	StatusProcessing: "Processing",
	StatusShipped:    "Shipped",
	StatusDelivered:  "Delivered",
	StatusCancelled:  "Cancelled",
}

// ParseStatus validates a raw string against the closed status set. Invalid
// status strings are rejected here, at the boundary, instead of being carried
// around and rendered as-is.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
}

func (s Status) String() string { return string(s) }

// Label returns the human-readable name for a status. Unknown values fall
// back to the pending label so a corrupted record still renders something.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return labels[StatusPending]
}

// IsTerminal reports whether no further transitions are permitted out of s.
func IsTerminal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// StatusOrder returns the fulfillment ladder pending -> processing -> shipped
// -> delivered. The slice is a fresh copy on every call.
func StatusOrder() []Status {
	steps := make([]Status, len(ladder))
	copy(steps[:], ladder[:])
	return steps
}

// ladderIndex returns the position of s on the ladder, or -1 when s is not a
// ladder status (cancelled, unknown).
func ladderIndex(s Status) int {
	for i, step := range ladder {
		if step == s {
			return i
		}
	}
	return -1
}

// CanTransition reports whether an order currently in status current may move
// to requested. The rules, shared by the customer and admin surfaces:
//
//   - terminal orders (delivered, cancelled) never move again
//   - re-selecting the current status is not a transition
//   - processing may not fall back to pending
//   - ladder statuses never move backward
//   - cancelling is allowed from any non-terminal status
//
// Unknown statuses on either side are not transitionable. Never panics.
func CanTransition(current, requested Status) bool {
	if IsTerminal(current) {
		return false
	}
	if current == requested {
		return false
	}
	if current == StatusProcessing && requested == StatusPending {
		return false
	}
	if requested == StatusCancelled {
		// Only reachable from a known non-terminal status.
		return ladderIndex(current) >= 0
	}

	ci, ri := ladderIndex(current), ladderIndex(requested)
	if ci < 0 || ri < 0 {
		return false
	}
	return ri > ci
}
