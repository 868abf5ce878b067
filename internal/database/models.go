package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// KVEntry mirrors one durable builder collection as a JSONB row. Key is
// one of the fixed persist keys (current_project, dynamic_templates,
// dynamic_components, user_settings).
type KVEntry struct {
	gorm.Model
	Key   string         `gorm:"uniqueIndex;size:64"`
	Value datatypes.JSON `gorm:"type:jsonb"`
}
