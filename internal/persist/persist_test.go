package persist

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pagecraft/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.KVEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// portContract exercises the behavior every Port implementation must
// share: load-after-save, overwrite, not-found, idempotent delete.
func portContract(t *testing.T, port Port) {
	t.Helper()
	ctx := context.Background()

	if _, err := port.Load(ctx, KeyCurrentProject); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load of absent key: err = %v, want ErrNotFound", err)
	}

	if err := port.Save(ctx, KeyCurrentProject, []byte(`{"id":"project_1"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := port.Load(ctx, KeyCurrentProject)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"id":"project_1"}` {
		t.Fatalf("load returned %s", got)
	}

	if err := port.Save(ctx, KeyCurrentProject, []byte(`{"id":"project_2"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = port.Load(ctx, KeyCurrentProject)
	if err != nil {
		t.Fatalf("load after overwrite: %v", err)
	}
	if string(got) != `{"id":"project_2"}` {
		t.Fatalf("overwrite not applied: %s", got)
	}

	// keys are independent
	if err := port.Save(ctx, KeyDynamicTemplates, []byte(`[]`)); err != nil {
		t.Fatalf("save second key: %v", err)
	}
	got, err = port.Load(ctx, KeyCurrentProject)
	if err != nil || string(got) != `{"id":"project_2"}` {
		t.Fatalf("unrelated save touched another key: %s err=%v", got, err)
	}

	if err := port.Delete(ctx, KeyCurrentProject); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := port.Load(ctx, KeyCurrentProject); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load after delete: err = %v, want ErrNotFound", err)
	}

	// deleting an absent key is not an error
	if err := port.Delete(ctx, KeyCurrentProject); err != nil {
		t.Fatalf("double delete: %v", err)
	}
}

func TestMemoryPortContract(t *testing.T) {
	portContract(t, NewMemory())
}

func TestGormPortContract(t *testing.T) {
	portContract(t, NewGorm(newTestDB(t)))
}

func TestMemoryLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.Save(ctx, KeyUserSettings, []byte(`{"deviceView":"desktop"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := m.Load(ctx, KeyUserSettings)
	got[0] = 'X'

	again, _ := m.Load(ctx, KeyUserSettings)
	if again[0] == 'X' {
		t.Fatalf("load exposed internal buffer")
	}
}

func TestGormSaveReusesRow(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	port := NewGorm(db)

	for i := 0; i < 3; i++ {
		if err := port.Save(ctx, KeyDynamicComponents, []byte(`[]`)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	var count int64
	if err := db.Model(&database.KVEntry{}).Where("key = ?", KeyDynamicComponents).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert created %d rows", count)
	}
}
