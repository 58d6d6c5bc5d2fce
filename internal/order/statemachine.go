package order

// allowedTransitions is the order lifecycle. Cancelled and Completed are
// terminal; Paid is one-way and enforced by the guards below.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

// ValidateTransition checks the transition table and its guards without
// mutating the order. It never treats an illegal request as a no-op.
func ValidateTransition(o *Order, target Status) error {
	reject := func() error {
		return &InvalidTransitionError{OrderNumber: o.Number, From: o.Status, To: target}
	}

	next, ok := allowedTransitions[o.Status]
	if !ok || !next[target] {
		return reject()
	}

	switch target {
	case StatusConfirmed:
		// Confirmation happens only as the payment settles.
		if o.PaymentStatus != PaymentPaid {
			return reject()
		}
	case StatusCancelled:
		// A paid order can no longer be cancelled.
		if o.PaymentStatus != PaymentUnpaid {
			return reject()
		}
	}

	return nil
}

// ValidateSettlement checks that a payment may be applied: the order must
// be unpaid and still on the settlement path.
func ValidateSettlement(o *Order) error {
	if o.PaymentStatus == PaymentPaid {
		// Reported separately by the settlement layer as AlreadySettled.
		return nil
	}
	if o.Status != StatusPending {
		return &InvalidTransitionError{OrderNumber: o.Number, From: o.Status, To: StatusConfirmed}
	}
	if len(o.Lines) == 0 {
		// An empty order has nothing to settle and must never reach Paid.
		return &InvalidTransitionError{OrderNumber: o.Number, From: o.Status, To: StatusConfirmed}
	}
	return nil
}
