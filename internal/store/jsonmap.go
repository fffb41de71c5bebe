package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap adapts a map[string]any to gorm's jsonb column type, mirroring
// the serde_json::Value columns in common/src/types.rs.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(map[string]any(m))
}

func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("jsonmap: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*m = JSONMap{}
		return nil
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("jsonmap: unmarshal: %w", err)
	}
	*m = out
	return nil
}

func (m JSONMap) decodeInto(v any) {
	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, v)
}

func fromAnyMap(data map[string]any) JSONMap {
	if data == nil {
		return JSONMap{}
	}
	return JSONMap(data)
}
