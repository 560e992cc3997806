package model

import "time"

const (
	OperationSucceeded = "succeeded"
	OperationFailed    = "failed"
)

// Operation is one engine-backed transformation as kept in the optional history table.
type Operation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Kind      string    `gorm:"type:varchar(32);index" json:"kind"`
	Status    string    `gorm:"type:varchar(16)" json:"status"`
	Outputs   string    `gorm:"type:text" json:"outputs"` // comma separated output URLs
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Operation) TableName() string {
	return "operations"
}
