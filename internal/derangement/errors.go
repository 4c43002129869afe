package derangement

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientParticipants = errors.New("derangement: at least 3 participants are required")
	ErrEmptyParticipant         = errors.New("derangement: participant name is empty")
	ErrDuplicateParticipant     = errors.New("derangement: duplicate participant")
	ErrDerangementUnsatisfiable = errors.New("derangement: retry limit reached without a valid draw")
)

// DuplicateParticipantError reports the name that appears more than once.
// It matches ErrDuplicateParticipant with errors.Is.
type DuplicateParticipantError struct {
	Name string
}

func (e *DuplicateParticipantError) Error() string {
	return fmt.Sprintf("%v: %q", ErrDuplicateParticipant, e.Name)
}

func (e *DuplicateParticipantError) Is(target error) bool {
	return target == ErrDuplicateParticipant
}
