package infer

// Reason explains why a diagnostic was left unresolved.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonNoEvidence           Reason = "no-evidence"
	ReasonLowConfidence        Reason = "low-confidence"
	ReasonStrictBroad          Reason = "strict-broad"
	ReasonReviewRejected       Reason = "review-rejected"
	ReasonVerificationRejected Reason = "verification-rejected"
	ReasonDeferred             Reason = "deferred"
	ReasonStale                Reason = "stale"
	ReasonUnlocated            Reason = "unlocated"
	ReasonUnsupported          Reason = "unsupported"
	ReasonExcludedFile         Reason = "excluded-file"
)

func (r Reason) String() string {
	if r == ReasonNone {
		return "none"
	}
	return string(r)
}
