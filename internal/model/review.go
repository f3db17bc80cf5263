package model

import "time"

type Review struct {
	ID         int       `json:"id"`
	ContractID int       `json:"contract_id"`
	ReviewerID int       `json:"reviewer_id"`
	ReviewedID int       `json:"reviewed_id"`
	Rating     int       `json:"rating"` // 1..5
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	// Joined for display
	ReviewerName string `json:"reviewer_name,omitempty"`
	ReviewedName string `json:"reviewed_name,omitempty"`
}
