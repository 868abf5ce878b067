// Package persist is the durable key-value port behind the builder store.
// The store mirrors its collections through a Port after every committed
// mutation; writes are best-effort and reads happen once at startup.
package persist

import (
	"context"
	"errors"
)

// Durable keys. Each holds the JSON serialization of one collection.
const (
	KeyCurrentProject    = "current_project"
	KeyDynamicTemplates  = "dynamic_templates"
	KeyDynamicComponents = "dynamic_components"
	KeyUserSettings      = "user_settings"
)

// Keys lists every durable key, in reset/teardown order.
var Keys = []string{
	KeyCurrentProject,
	KeyDynamicTemplates,
	KeyDynamicComponents,
	KeyUserSettings,
}

// ErrNotFound is returned by Load when a key has never been written.
var ErrNotFound = errors.New("persist: key not found")

// Port is the byte-oriented store the builder persists through.
type Port interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
