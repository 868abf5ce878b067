package persist

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pagecraft/internal/database"
)

// Gorm persists collections as JSONB rows in the kv_entries table.
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps a GORM instance as a Port. The caller is expected to have
// migrated database.KVEntry.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Load(ctx context.Context, key string) ([]byte, error) {
	var entry database.KVEntry
	err := g.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %q from database: %w", key, err)
	}
	return []byte(entry.Value), nil
}

func (g *Gorm) Save(ctx context.Context, key string, data []byte) error {
	entry := database.KVEntry{Key: key, Value: datatypes.JSON(data)}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save %q to database: %w", key, err)
	}
	return nil
}

func (g *Gorm) Delete(ctx context.Context, key string) error {
	err := g.db.WithContext(ctx).
		Unscoped().
		Where("key = ?", key).
		Delete(&database.KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("delete %q from database: %w", key, err)
	}
	return nil
}
