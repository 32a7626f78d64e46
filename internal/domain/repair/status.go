package repair

// Status represents the lifecycle state of a repair service
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusOnHold     Status = "on-hold"
	StatusCompleted  Status = "completed"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusOnHold, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no transition leaves the status
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusInProgress || target == StatusOnHold
	case StatusInProgress:
		return target == StatusOnHold || target == StatusCompleted
	case StatusOnHold:
		return target == StatusInProgress
	case StatusCompleted:
		return false
	}
	return false
}

// AllowedTransitions lists the statuses reachable from s
func (s Status) AllowedTransitions() []Status {
	allowed := make([]Status, 0, 2)
	for _, target := range []Status{StatusPending, StatusInProgress, StatusOnHold, StatusCompleted} {
		if s.CanTransitionTo(target) {
			allowed = append(allowed, target)
		}
	}
	return allowed
}
