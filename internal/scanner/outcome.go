package scanner

// Outcome is the result of attempting to scan one file.
type Outcome int

const (
	// OutcomeSuccess means the file was processed and the index updated.
	OutcomeSuccess Outcome = iota
	// OutcomeNotApplicable means the scanner declined the file (e.g., an
	// empty entry file with nothing to record). Not an error, and not
	// retried; fingerprinting is skipped so the file is reconsidered on the
	// next tree scan.
	OutcomeNotApplicable
	// OutcomeTransientFailure means processing failed in a way an in-place
	// fixup might resolve. Retried exactly once with fixup enabled.
	OutcomeTransientFailure
	// OutcomeSkipped means the file's extension is not indexable. Treated as
	// success for fingerprinting purposes.
	OutcomeSkipped
)

// String returns the metric label for an outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotApplicable:
		return "not_applicable"
	case OutcomeTransientFailure:
		return "transient_failure"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}
