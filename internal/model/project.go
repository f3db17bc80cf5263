package model

import "time"

const (
	ProjectStatusOpen       = "open"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

type Project struct {
	ID             int        `json:"id"`
	CompanyID      int        `json:"company_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Budget         float64    `json:"budget"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	RequiredSkills []string   `json:"required_skills"`
	Status         string     `json:"status"`
	FreelancerID   *int       `json:"freelancer_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Joined for display
	CompanyName string `json:"company_name,omitempty"`
}
