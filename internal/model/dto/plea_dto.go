package dto

import "time"

// ========== 申诉相关 DTO ==========

// SubmitPleaRequest 提交缺勤申诉请求
type SubmitPleaRequest struct {
	Message       string   `json:"message" binding:"required"`
	Reasons       []string `json:"reasons,omitempty"`
	ProofFileName string   `json:"proof_file_name,omitempty"`
	ProofURL      string   `json:"proof_url,omitempty"`
}

// ReviewPleaRequest 审核申诉请求
type ReviewPleaRequest struct {
	Decision string `json:"decision" binding:"required"` // approved / rejected
	Note     string `json:"note,omitempty"`
}

// PleaData 申诉数据
type PleaData struct {
	SessionID    int64      `json:"session_id"`
	StudentID    int64      `json:"student_id"`
	Status       string     `json:"status"`
	Message      string     `json:"message,omitempty"`
	Reasons      []string   `json:"reasons,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	ReviewerNote string     `json:"reviewer_note,omitempty"`
	FinalStatus  string     `json:"final_status"`
}
