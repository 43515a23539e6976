package engine

import "fmt"

// ValidationError marks malformed directive input. It is surfaced to the
// caller and never retried.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

// TransitionError marks an illegal lifecycle move.
type TransitionError struct {
	From string
	To   string
}

func (e TransitionError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("no directive available to move to %s", e.To)
	}
	return fmt.Sprintf("invalid directive transition %s -> %s", e.From, e.To)
}
