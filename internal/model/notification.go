package model

import "encoding/json"

// swagger:model Notification
type Notification struct {
	BaseModel
	UserID uint   `gorm:"index;type:bigint unsigned" json:"userId"`
	Kind   string `gorm:"size:50;not null" json:"kind"`
	Title  string `gorm:"size:255" json:"title"`
	Body   string `gorm:"type:text" json:"body"`
	Link   string `gorm:"size:512" json:"link"`
	IsRead bool   `gorm:"default:false" json:"isRead"`
}

func (Notification) TableName() string {
	return "notifications"
}

type AuditLog struct {
	BaseModel
	TraceID    string          `gorm:"size:36;index" json:"traceId"`
	ActorID    uint            `gorm:"index;type:bigint unsigned" json:"actorId"`
	Action     string          `gorm:"size:100;not null" json:"action"`
	EntityType string          `gorm:"size:50;not null" json:"entityType"`
	EntityID   uint            `gorm:"index;type:bigint unsigned" json:"entityId"`
	Metadata   json.RawMessage `gorm:"type:json" json:"metadata,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
