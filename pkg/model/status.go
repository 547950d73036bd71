package model

// transitions lists every permitted status change. Any state may be left for any other
// state; staying in place is not a transition.
var transitions = map[Status][]Status{
	StatusTodo:       {StatusInProgress, StatusDone},
	StatusInProgress: {StatusTodo, StatusDone},
	StatusDone:       {StatusTodo, StatusInProgress},
}

// CanUpdateStatus reports whether a task in status from may be moved to status to.
func CanUpdateStatus(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
