package enums

type ReportReason string

const (
	ReportReasonSpam       ReportReason = "spam"
	ReportReasonFake       ReportReason = "fake"
	ReportReasonHarassment ReportReason = "harassment"
	ReportReasonOther      ReportReason = "other"
)
