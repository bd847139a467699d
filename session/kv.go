package session

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

// KV persists JSON values by key.
type KV interface {
	Load(key string, dst any) (bool, error)
	Save(key string, value any) error
}

// RecordKV stores values in the kv_entries collection.
type RecordKV struct {
	App core.App
}

const kvCollection = "kv_entries"

// Load unmarshals the value stored under key into dst. It reports false
// when no entry exists.
func (kv RecordKV) Load(key string, dst any) (bool, error) {
	rec, err := kv.find(key)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	if err := rec.UnmarshalJSONField("value", dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save creates or replaces the entry under key.
func (kv RecordKV) Save(key string, value any) error {
	rec, err := kv.find(key)
	if err != nil {
		return err
	}
	if rec == nil {
		col, err := kv.App.FindCollectionByNameOrId(kvCollection)
		if err != nil {
			return fmt.Errorf("find %s collection: %w", kvCollection, err)
		}
		rec = core.NewRecord(col)
		rec.Set("key", key)
	}
	rec.Set("value", value)
	if err := kv.App.Save(rec); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (kv RecordKV) find(key string) (*core.Record, error) {
	rec, err := kv.App.FindFirstRecordByFilter(kvCollection, "key = {:key}", map[string]any{"key": key})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", key, err)
	}
	return rec, nil
}
