package models

import "time"

// Student carries the identity the payment subsystem needs for receipts and
// notifications. Full student CRUD lives in the surrounding application.
type Student struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	CollegeID    string `gorm:"index" json:"college_id"`
	DepartmentID string `gorm:"index" json:"department_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
