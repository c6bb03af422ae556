package models

type OutcomeKind int

const (
	OutcomeFailed OutcomeKind = iota
	OutcomeSucceeded
	OutcomePending
	OutcomeRejected
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomePending:
		return "pending"
	case OutcomeRejected:
		return "rejected"
	default:
		return "failed"
	}
}

// Outcome is the normalized result of one prediction dispatch.
type Outcome struct {
	Kind OutcomeKind

	// Output is set for OutcomeSucceeded. It is usually a URL string but is
	// relayed as whatever JSON value the upstream returned.
	Output any

	// ID and Status are set for OutcomePending.
	ID     string
	Status string

	// Detail explains OutcomeRejected and OutcomeFailed.
	Detail string

	// Attempts is the number of HTTP round trips made.
	Attempts int
}
