package order

// TrackingStep is one rung of the fulfillment ladder as shown to a customer.
type TrackingStep struct {
	Status  Status `json:"status"`
	Label   string `json:"label"`
	Reached bool   `json:"reached"`
}

// Tracking is the read-only progress view of an order. When Cancelled is set
// the ladder is suppressed entirely: cancellation is not a fulfillment stage
// and must not render as one.
type Tracking struct {
	OrderID   string         `json:"order_id"`
	Status    Status         `json:"status"`
	Label     string         `json:"label"`
	Cancelled bool           `json:"cancelled"`
	Steps     []TrackingStep `json:"steps,omitempty"`
}

// TrackOrder derives the customer-facing progress view for an order. A step
// is reached when it sits at or before the order's current position on the
// ladder. Pure function, no I/O.
func TrackOrder(o *Order) Tracking {
	t := Tracking{
		OrderID: o.ID,
		Status:  o.Status,
		Label:   o.Status.Label(),
	}

	if o.Status == StatusCancelled {
		t.Cancelled = true
		return t
	}

	current := ladderIndex(o.Status)
	t.Steps = make([]TrackingStep, 0, len(ladder))
	for i, s := range StatusOrder() {
		t.Steps = append(t.Steps, TrackingStep{
			Status:  s,
			Label:   s.Label(),
			Reached: i <= current,
		})
	}
	return t
}
