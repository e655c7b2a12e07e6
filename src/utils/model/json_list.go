package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// List of documents kept in a single JSONB column
type JSONList[T any] []T

func (self JSONList[T]) Value() (driver.Value, error) {
	if self == nil {
		return "[]", nil
	}
	buf, err := json.Marshal([]T(self))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

func (self *JSONList[T]) Scan(value interface{}) error {
	var buf []byte
	switch v := value.(type) {
	case nil:
		*self = JSONList[T]{}
		return nil
	case []byte:
		buf = v
	case string:
		buf = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB value type %T", value)
	}

	var out []T
	err := json.Unmarshal(buf, &out)
	if err != nil {
		return err
	}
	if out == nil {
		out = []T{}
	}
	*self = out
	return nil
}
