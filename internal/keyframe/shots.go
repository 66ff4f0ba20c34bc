package keyframe

import (
	"errors"
	"fmt"

	"keyframer/internal/services"
)

// ErrInvalidBoundaries reports a boundary list that is negative or not
// strictly increasing.
var ErrInvalidBoundaries = errors.New("invalid shot boundaries")

// Shot is the half-open frame range [Start, End).
type Shot struct {
	Start int
	End   int
}

// Len returns the number of frames in the shot.
func (s Shot) Len() int { return s.End - s.Start }

// ValidateBoundaries checks that boundaries are non-negative and strictly
// increasing.
func ValidateBoundaries(boundaries []int) error {
	for i, b := range boundaries {
		if b < 0 {
			return invalidBoundaries(fmt.Sprintf("boundary %d is negative (%d)", i, b))
		}
		if i > 0 && b <= boundaries[i-1] {
			return invalidBoundaries(fmt.Sprintf("boundary %d (%d) does not follow %d", i, b, boundaries[i-1]))
		}
	}
	return nil
}

// Shots splits boundaries into consecutive shots. Fewer than two boundaries
// yield no shots.
func Shots(boundaries []int) ([]Shot, error) {
	if err := ValidateBoundaries(boundaries); err != nil {
		return nil, err
	}
	if len(boundaries) < 2 {
		return nil, nil
	}
	shots := make([]Shot, 0, len(boundaries)-1)
	for i := 0; i+1 < len(boundaries); i++ {
		shots = append(shots, Shot{Start: boundaries[i], End: boundaries[i+1]})
	}
	return shots, nil
}

func invalidBoundaries(msg string) error {
	return services.Wrap(services.ErrValidation, "select", "validate boundaries", msg, ErrInvalidBoundaries)
}
