package email

const (
	subjectReviewFlag        = "Loan decision flagged for manual review"
	subjectDecisionDigestFmt = "Loan decision digest for %s"
)
