package reservation

// Status values mirror the strings the operator dashboard writes into the
// resStatus feed, so they are part of the wire contract and must not be
// renamed.
type Status string

const (
	StatusInactive Status = "Inactive"
	StatusPending  Status = "Pending"
	StatusApproval Status = "Approval"
	StatusAccepted Status = "Accepted"
	StatusActive   Status = "Active"
	StatusPaid     Status = "Paid"
	StatusDeclined Status = "Declined" // transient, never observable between mutations
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusInactive, StatusPending, StatusApproval, StatusAccepted, StatusActive, StatusPaid, StatusDeclined:
		return true
	default:
		return false
	}
}

// IsSettled reports whether the reservation occupies the user's single
// reservation budget. Everything except Inactive does.
func (s Status) IsSettled() bool {
	return s != StatusInactive
}

var transitions = map[Status][]Status{
	StatusInactive: {StatusPending},
	StatusPending:  {StatusApproval, StatusAccepted, StatusDeclined, StatusInactive},
	StatusApproval: {StatusAccepted, StatusDeclined, StatusInactive},
	StatusAccepted: {StatusActive, StatusPaid, StatusDeclined, StatusInactive},
	StatusActive:   {StatusPaid, StatusInactive},
	StatusPaid:     {StatusInactive},
	StatusDeclined: {StatusInactive},
}

func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
