package events

import "time"

// Routing keys published on the marketplace.events exchange.
const (
	ProposalSubmitted = "proposal.submitted"
	ProposalAccepted  = "proposal.accepted"
	ProposalRejected  = "proposal.rejected"
	ContractCompleted = "contract.completed"
	ReviewCreated     = "review.created"
	MessageSent       = "message.sent"
)

type ProposalSubmittedPayload struct {
	ProposalID    int       `json:"proposal_id"`
	ProjectID     int       `json:"project_id"`
	ProjectTitle  string    `json:"project_title"`
	CompanyUserID int       `json:"company_user_id"`
	FreelancerID  int       `json:"freelancer_id"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// ProposalDecidedPayload covers both proposal.accepted and proposal.rejected.
type ProposalDecidedPayload struct {
	ProposalID   int    `json:"proposal_id"`
	ProjectID    int    `json:"project_id"`
	ProjectTitle string `json:"project_title"`
	FreelancerID int    `json:"freelancer_id"`
	Status       string `json:"status"`
}

type ContractCompletedPayload struct {
	ContractID    int    `json:"contract_id"`
	ProjectID     int    `json:"project_id"`
	ProjectTitle  string `json:"project_title"`
	CompanyUserID int    `json:"company_user_id"`
	FreelancerID  int    `json:"freelancer_id"`
}

type ReviewCreatedPayload struct {
	ReviewID   int `json:"review_id"`
	ContractID int `json:"contract_id"`
	ReviewerID int `json:"reviewer_id"`
	ReviewedID int `json:"reviewed_id"`
	Rating     int `json:"rating"`
}

type MessageSentPayload struct {
	MessageID   int `json:"message_id"`
	SenderID    int `json:"sender_id"`
	RecipientID int `json:"recipient_id"`
}
