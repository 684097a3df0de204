package chat

import "time"

type Session struct {
	SessionID     string    `gorm:"type:varchar(36);primaryKey" json:"session_id"`
	UserID        uint64    `gorm:"index" json:"-"`
	QuestionCount int       `gorm:"not null;default:0" json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Session) TableName() string { return "chat_sessions" }

type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"type:varchar(36);index;not null" json:"session_id"`
	UserID    uint64    `gorm:"index" json:"-"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`
}

func (Message) TableName() string { return "chat_messages" }
