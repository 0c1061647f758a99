package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLimitExceeded marks a save blocked by roster or entry limits.
var ErrLimitExceeded = errors.New("roster limit exceeded")

// Violation kinds.
const (
	KindScoringCount      = "scoring_count"
	KindRelayCount        = "relay_count"
	KindIndividualCount   = "individual_count"
	KindDivingCount       = "diving_count"
	KindTestSpotCandidate = "test_spot_candidate"
	KindTestSpotMember    = "test_spot_member"
	KindSensitivityCount  = "sensitivity_count"
	KindSensitivityMember = "sensitivity_member"
	KindExhibitionOverlap = "exhibition_overlap"
)

// Violation is one broken limit: what was checked, against whom, the limit
// and the observed value.
type Violation struct {
	Kind      string  `json:"kind"`
	SubjectID string  `json:"subject_id,omitempty"`
	Subject   string  `json:"subject"`
	Limit     float64 `json:"limit"`
	Actual    float64 `json:"actual"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (limit %g, actual %g)", v.Kind, v.Subject, v.Limit, v.Actual)
}

// LimitError carries the violations that blocked a save. Read and preview
// paths use the violations directly instead.
type LimitError struct {
	Violations []Violation
}

func (e *LimitError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: %s", ErrLimitExceeded, strings.Join(parts, "; "))
}

func (e *LimitError) Unwrap() error { return ErrLimitExceeded }

// CheckViolations returns a *LimitError when vs is non-empty.
func CheckViolations(vs []Violation) error {
	if len(vs) == 0 {
		return nil
	}
	return &LimitError{Violations: vs}
}
