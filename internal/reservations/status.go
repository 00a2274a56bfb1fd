package reservations

type Status string

const (
	// StatusConfirmedPending: the row exists and payment is in flight.
	StatusConfirmedPending Status = "CONFIRMED_PENDING"
	// StatusConfirmed: payment settled, inventory decremented.
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusConfirmedPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// CanConfirm reports whether a reservation in this state may settle.
func (s Status) CanConfirm() bool {
	return s == StatusConfirmedPending
}

// CanCancel reports whether a reservation in this state may be cancelled.
func (s Status) CanCancel() bool {
	return s == StatusConfirmedPending || s == StatusConfirmed
}
