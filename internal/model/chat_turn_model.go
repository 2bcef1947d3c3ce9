package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatTurn struct {
	Id         uuid.UUID                `gorm:"type:uuid;primaryKey"`
	SessionId  uuid.UUID                `gorm:"type:uuid;not null;index"`
	UserId     string                   `gorm:"type:varchar(64);index"`
	DocumentId string                   `gorm:"type:varchar(64);index"`
	Kind       string                   `gorm:"type:varchar(20);not null"`
	Query      string                   `gorm:"type:text"`
	Content    string                   `gorm:"type:text;not null"`
	RawContent string                   `gorm:"type:text"`
	Reason     string                   `gorm:"type:varchar(32)"`
	CitedIds   datatypes.JSONSlice[int] `gorm:"type:jsonb"`
	CreatedAt  time.Time
}

func (ChatTurn) TableName() string {
	return "chat_turns"
}

// All returns every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{&Document{}, &DocumentChunk{}, &ChatTurn{}}
}
