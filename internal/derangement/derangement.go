package derangement

import (
	"slices"
	"strings"

	"segredex/internal/models"
)

const (
	// MinParticipants is the smallest draw accepted.
	MinParticipants = 3
	// MaxAttempts bounds the number of shuffles tried before giving up.
	MaxAttempts = 1000
)

// Generate returns receivers such that receivers[i] is the person names[i]
// gives a gift to. Names are trimmed before comparison and the returned
// receivers are the trimmed names. A nil rnd uses DefaultSource.
func Generate(names []string, rnd Source) ([]string, error) {
	givers, err := Validate(names)
	if err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = DefaultSource()
	}

	receivers := slices.Clone(givers)
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		Shuffle(receivers, rnd)
		if !hasFixedPoint(givers, receivers) {
			return receivers, nil
		}
	}
	return nil, ErrDerangementUnsatisfiable
}

// Validate trims names and checks the draw preconditions: enough
// participants, no empty names and no duplicates. It returns the trimmed
// names in their original order.
func Validate(names []string) ([]string, error) {
	if len(names) < MinParticipants {
		return nil, ErrInsufficientParticipants
	}

	trimmed := make([]string, len(names))
	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, ErrEmptyParticipant
		}
		if _, dup := seen[name]; dup {
			return nil, &DuplicateParticipantError{Name: name}
		}
		seen[name] = struct{}{}
		trimmed[i] = name
	}
	return trimmed, nil
}

// Shuffle permutes s in place with the Fisher-Yates algorithm.
func Shuffle[T any](s []T, rnd Source) {
	for i := len(s) - 1; i > 0; i-- {
		j := rnd.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Assignments pairs every giver with its receiver.
func Assignments(givers, receivers []string) []models.Assignment {
	out := make([]models.Assignment, len(givers))
	for i := range givers {
		out[i] = models.Assignment{Giver: givers[i], Receiver: receivers[i]}
	}
	return out
}

func hasFixedPoint(givers, receivers []string) bool {
	for i := range givers {
		if givers[i] == receivers[i] {
			return true
		}
	}
	return false
}
