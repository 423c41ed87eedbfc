package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringArray maps a jsonb column to a []string. The scraper writes tag
// arrays as jsonb, so both sides agree on the encoding.
type StringArray []string

// Value implements driver.Valuer
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = StringArray{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringArray: %T", src)
	}

	if len(data) == 0 {
		*a = StringArray{}
		return nil
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to unmarshal string array: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*a = StringArray(out)
	return nil
}

// GormDataType tells GORM which column type to use
func (StringArray) GormDataType() string {
	return "jsonb"
}
