package email

const (
	subjectLeadMessageFmt = "A message for %s"
	subjectLeadAlertFmt   = "Lead needs attention: %s"
)
