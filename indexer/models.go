package indexer

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventRecord is one archived event. Seq preserves commit order.
type EventRecord struct {
	Seq        uint64            `gorm:"primaryKey;autoIncrement"`
	EventID    uuid.UUID         `gorm:"type:uuid;uniqueIndex"`
	Type       string            `gorm:"index;not null"`
	Attributes map[string]string `gorm:"serializer:json"`
	CreatedAt  time.Time
}

// TableName pins the table name independent of the struct name.
func (EventRecord) TableName() string { return "vine_events" }

// AutoMigrate performs all schema migrations for the archive.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&EventRecord{})
}
