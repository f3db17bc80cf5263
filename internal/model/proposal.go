package model

import "time"

const (
	ProposalStatusPending  = "pending"
	ProposalStatusAccepted = "accepted"
	ProposalStatusRejected = "rejected"
)

type Proposal struct {
	ID                int       `json:"id"`
	ProjectID         int       `json:"project_id"`
	FreelancerID      int       `json:"freelancer_id"`
	Message           string    `json:"message"`
	ProposedBudget    float64   `json:"proposed_budget"`
	EstimatedDuration *string   `json:"estimated_duration,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`

	// Joined for display
	ProjectTitle   string `json:"project_title,omitempty"`
	FreelancerName string `json:"freelancer_name,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`
}
