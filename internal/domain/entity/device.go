package entity

import (
	"medreminder/internal/domain/constant"
	"time"
)

// Device is a delivery target that reminders for its owner are pushed to.
type Device struct {
	ID        string            `gorm:"column:id;primaryKey" json:"id"`
	OwnerID   string            `gorm:"column:owner_id;uniqueIndex:idx_device_target;not null" json:"ownerId"`
	Provider  constant.Provider `gorm:"column:provider;type:varchar(16);uniqueIndex:idx_device_target" json:"provider"`
	Target    string            `gorm:"column:target;uniqueIndex:idx_device_target" json:"target"`
	CreatedAt time.Time         `gorm:"column:created_at" json:"createdAt"`
}

// TableName specifies the table name for the Device entity.
func (Device) TableName() string {
	return "devices"
}
