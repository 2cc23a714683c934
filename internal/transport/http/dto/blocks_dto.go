package dto

type ReportRequest struct {
	TargetID string `json:"target_id"`
	Reason   string `json:"reason"`
	Details  string `json:"details"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
