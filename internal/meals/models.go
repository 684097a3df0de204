package meals

import "time"

// Suggestion is one stored meal-suggestion result. The payloads are kept as
// JSON documents, matching the original meal_suggestions table.
type Suggestion struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint64    `gorm:"index" json:"-"`
	SessionID      string    `gorm:"type:varchar(36);index" json:"session_id"`
	SuggestionData string    `gorm:"type:json;not null" json:"-"`
	HealthData     string    `gorm:"type:json;not null" json:"-"`
	Timestamp      time.Time `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`
}

func (Suggestion) TableName() string { return "meal_suggestions" }

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is an async meal-suggestion request worked off the queue.
type Job struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	UserID    uint64 `gorm:"index;not null"`
	SessionID string `gorm:"size:36;index;not null"`

	// the SuggestionRequest serialized at enqueue time
	RequestData string `gorm:"type:json;not null"`

	IdempotencyKey *string `gorm:"type:varchar(128);index:uniq_user_idempo,unique" json:"idempotency_key"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when succeeded
	ResultSuggestionID *uint64 `gorm:"index"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string { return "meal_jobs" }
