package models

import "time"

const (
	TaskStatusOpen    = "open"
	TaskStatusDone    = "done"
	TaskStatusOverdue = "overdue"
)

// FollowUpTask is a coaching follow-up, optionally tied to the call that
// prompted it.
type FollowUpTask struct {
	ID     string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RepID  string `gorm:"column:rep_id;type:uuid;index" json:"rep_id"`
	UserID string `gorm:"column:user_id;type:uuid;index" json:"user_id"` // creator

	CallID *string `gorm:"column:call_id;type:uuid;index" json:"call_id,omitempty"`

	Title  string `gorm:"column:title;type:text" json:"title"`
	Detail string `gorm:"column:detail;type:text" json:"detail"`
	Status string `gorm:"column:status;type:text;index" json:"status"`

	DueDate   time.Time `gorm:"column:due_date;type:timestamptz;index" json:"due_date"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (FollowUpTask) TableName() string { return "follow_up_tasks" }
