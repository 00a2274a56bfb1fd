package expos

// Status is the coarse-grained lifecycle state of an expo listing:
// approval → payment → publish → settlement.
type Status string

const (
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusPendingPublish  Status = "PENDING_PUBLISH"
	StatusPublished       Status = "PUBLISHED"
	StatusPublishEnded    Status = "PUBLISH_ENDED"
	StatusCompleted       Status = "COMPLETED"
	StatusRejected        Status = "REJECTED"
	StatusCancelled       Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPendingApproval, StatusApproved, StatusPendingPublish,
		StatusPublished, StatusPublishEnded, StatusCompleted,
		StatusRejected, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// allowedTransitions encodes the listing state machine. Reissue-style
// backwards moves are not permitted.
var allowedTransitions = map[Status][]Status{
	StatusPendingApproval: {StatusApproved, StatusRejected},
	StatusApproved:        {StatusPendingPublish, StatusCancelled},
	StatusPendingPublish:  {StatusPublished, StatusCancelled},
	StatusPublished:       {StatusPublishEnded, StatusCancelled},
	StatusPublishEnded:    {StatusCompleted},
}

// CanTransitionTo reports whether the listing may move from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RefundPolicy describes how an organizer refund request is treated for a
// listing in this state.
type RefundPolicy int

const (
	// RefundDenied: no new refund request is accepted.
	RefundDenied RefundPolicy = iota
	// RefundFull: full refund, no day-based tiering (listing never went live).
	RefundFull
	// RefundTiered: day-based tiered fee applies, with the hard 7-day cutoff.
	RefundTiered
)

// RefundPolicy resolves the organizer-refund policy for the state.
func (s Status) RefundPolicy() RefundPolicy {
	switch s {
	case StatusPendingPublish:
		return RefundFull
	case StatusPublished:
		return RefundTiered
	default:
		return RefundDenied
	}
}

// AdStatus is the advertisement lifecycle, same shape as the expo listing
// lifecycle but without the settlement tail.
type AdStatus string

const (
	AdStatusPendingApproval AdStatus = "PENDING_APPROVAL"
	AdStatusApproved        AdStatus = "APPROVED"
	AdStatusPublished       AdStatus = "PUBLISHED"
	AdStatusEnded           AdStatus = "ENDED"
	AdStatusRejected        AdStatus = "REJECTED"
	AdStatusCancelled       AdStatus = "CANCELLED"
)

var allowedAdTransitions = map[AdStatus][]AdStatus{
	AdStatusPendingApproval: {AdStatusApproved, AdStatusRejected},
	AdStatusApproved:        {AdStatusPublished, AdStatusCancelled},
	AdStatusPublished:       {AdStatusEnded, AdStatusCancelled},
}

func (s AdStatus) CanTransitionTo(next AdStatus) bool {
	for _, allowed := range allowedAdTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RefundPolicy for advertisements mirrors the listing policy: paid but not
// yet live refunds in full, live refunds tiered, everything else denied.
func (s AdStatus) RefundPolicy() RefundPolicy {
	switch s {
	case AdStatusApproved:
		return RefundFull
	case AdStatusPublished:
		return RefundTiered
	default:
		return RefundDenied
	}
}
