package reconcile

// Reason explains why a results row could not be matched.
type Reason string

// Unresolved reasons.
const (
	ReasonNoMatch      Reason = "no_match"
	ReasonAmbiguous    Reason = "ambiguous"
	ReasonUnknownEvent Reason = "unknown_event"
	ReasonBadTime      Reason = "bad_time"
)
