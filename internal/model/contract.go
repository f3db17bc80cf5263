package model

import "time"

type Contract struct {
	ID           int        `json:"id"`
	ProjectID    int        `json:"project_id"`
	CompanyID    int        `json:"company_id"`
	FreelancerID int        `json:"freelancer_id"`
	Budget       float64    `json:"budget"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Terms        string     `json:"terms"`
	IsCompleted  bool       `json:"is_completed"`

	// Joined for display
	ProjectTitle   string `json:"project_title,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`
	FreelancerName string `json:"freelancer_name,omitempty"`
}
